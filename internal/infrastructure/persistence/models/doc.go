// Package models contains GORM persistence models for the migration target
// store. Domain entities stay free of ORM tags; each model converts with
// ToDomain / FromDomain.
//
// Unique indexes are named uq_<table>_<column>. The persistence layer relies
// on that convention to report which column a write collided on.
package models
