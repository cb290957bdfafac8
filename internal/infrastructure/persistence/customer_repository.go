package persistence

import (
	"context"
	"strings"

	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/shared"
	"github.com/erp/migrator/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const customersTable = "customers"

// GormCustomerRepository implements partner.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByCode finds a customer by its source code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	m, err := findOne[models.CustomerModel](ctx, r.db, "code = ?", strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByCedula finds a customer by identity document
func (r *GormCustomerRepository) FindByCedula(ctx context.Context, cedula string) (*partner.Customer, error) {
	cedula = strings.TrimSpace(cedula)
	if cedula == "" {
		return nil, shared.ErrNotFound
	}
	m, err := findOne[models.CustomerModel](ctx, r.db, "cedula = ?", cedula)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindMarkerCandidates returns customers that are synthetic by provenance or
// carry a placeholder cedula, ordered by code
func (r *GormCustomerRepository) FindMarkerCandidates(ctx context.Context) ([]*partner.Customer, error) {
	var rows []models.CustomerModel
	err := r.db.WithContext(ctx).
		Where("provenance = ? OR cedula LIKE ?", shared.ProvenanceSynthetic, partner.SyntheticKeyPrefix+"%").
		Order("code").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*partner.Customer, 0, len(rows))
	for i := range rows {
		c := rows[i].ToDomain()
		// LIKE treats '_' as a wildcard
		if c.IsSynthetic() {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	return insert(ctx, r.db, customersTable, models.CustomerModelFromDomain(customer))
}

// Update writes the mutable fields of an existing customer
func (r *GormCustomerRepository) Update(ctx context.Context, customer *partner.Customer) error {
	return save(ctx, r.db, customersTable, models.CustomerModelFromDomain(customer))
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
