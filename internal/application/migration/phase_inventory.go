package migrationapp

import (
	"context"
	"fmt"

	"github.com/erp/migrator/internal/domain/inventory"
	"github.com/erp/migrator/internal/domain/shared"
	"github.com/erp/migrator/internal/infrastructure/workbook"
)

func newBase() shared.BaseEntity {
	return shared.NewBaseEntity()
}

// inventory upserts one snapshot per (product, branch, warehouse). The
// quantity of the sheet replaces the stored one.
func (r *run) inventory(ctx context.Context, recs []workbook.StockRecord, products *EntityMap, cats catalogMaps) error {
	r.decodeErrors(ctx, PhaseInventory, KindInventory)
	repo := r.repos.Snapshots
	b := NewMapBuilder(KindInventory)

	for _, rec := range recs {
		productID, ok := products.Lookup(rec.ProductCode)
		if !ok {
			r.skip(ctx, PhaseInventory, KindInventory, SkipUnresolvedReference, rec.Meta, "product not found", rec.ProductCode)
			continue
		}
		branchID, branch, ok := lookupCatalog(cats.branches, rec.Branch, r.opts.DefaultBranch)
		if !ok {
			r.skip(ctx, PhaseInventory, KindInventory, SkipUnresolvedReference, rec.Meta, "branch not found", branch)
			continue
		}
		warehouseID, warehouse, ok := lookupCatalog(cats.warehouses, rec.Warehouse, r.opts.DefaultWarehouse)
		if !ok {
			r.skip(ctx, PhaseInventory, KindInventory, SkipUnresolvedReference, rec.Meta, "warehouse not found", warehouse)
			continue
		}
		key := fmt.Sprintf("%s|%s|%s", productID, branchID, warehouseID)
		if _, ok := b.Lookup(key); ok {
			r.duplicate(PhaseInventory, KindInventory, rec.Meta, rec.ProductCode+"@"+branch+"/"+warehouse)
			continue
		}

		in, err := inventory.NewSnapshot(productID, branchID, warehouseID, amountOrZero(rec.Quantity))
		if err != nil {
			r.skip(ctx, PhaseInventory, KindInventory, SkipInvalidRow, rec.Meta, err.Error(), rec.ProductCode)
			continue
		}
		res, err := Resolve(ctx, r.resolver, Target[inventory.Snapshot]{
			Kind:       KindInventory,
			NaturalKey: key,
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*inventory.Snapshot, error) {
				return repo.Find(ctx, productID, branchID, warehouseID)
			},
			Merge: func(_ context.Context, existing, in *inventory.Snapshot) (bool, error) {
				return existing.SetQuantity(in.Quantity), nil
			},
			Create: repo.Create,
			Update: repo.Update,
		})
		if err != nil {
			return err
		}
		r.record(ctx, PhaseInventory, KindInventory, rec.Meta, res.Outcome, nil, "")
		if err := b.Put(key, res.Entity.ID); err != nil {
			return err
		}
	}
	return nil
}
