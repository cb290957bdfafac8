package migrationapp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/erp/migrator/internal/domain/catalog"
	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/infrastructure/workbook"
)

type catalogMaps struct {
	currencies *EntityMap
	branches   *EntityMap
	warehouses *EntityMap
}

// catalogs discovers currencies, branches and warehouses from every sheet
// that references one, plus the configured defaults.
func (r *run) catalogs(ctx context.Context, src *Source) (catalogMaps, error) {
	currencies := []string{r.opts.DefaultCurrency}
	for _, p := range src.Purchases {
		currencies = append(currencies, p.Currency)
	}
	for _, s := range src.Sales {
		currencies = append(currencies, s.Currency)
	}

	branches := []string{r.opts.DefaultBranch}
	for _, s := range src.Sales {
		branches = append(branches, s.Branch)
	}
	for _, s := range src.Stock {
		branches = append(branches, s.Branch)
	}

	warehouses := []string{r.opts.DefaultWarehouse}
	for _, l := range src.PurchaseLines {
		warehouses = append(warehouses, l.Warehouse)
	}
	for _, l := range src.SaleLines {
		warehouses = append(warehouses, l.Warehouse)
	}
	for _, s := range src.Stock {
		warehouses = append(warehouses, s.Warehouse)
	}

	var (
		out catalogMaps
		err error
	)
	if out.currencies, err = r.ensureEntries(ctx, PhaseCatalogs, catalog.KindCurrency, currencies); err != nil {
		return out, err
	}
	if out.branches, err = r.ensureEntries(ctx, PhaseCatalogs, catalog.KindBranch, branches); err != nil {
		return out, err
	}
	if out.warehouses, err = r.ensureEntries(ctx, PhaseCatalogs, catalog.KindWarehouse, warehouses); err != nil {
		return out, err
	}
	return out, nil
}

// ensureEntries find-or-creates one catalog entry per distinct code
func (r *run) ensureEntries(ctx context.Context, phase string, kind catalog.Kind, codes []string) (*EntityMap, error) {
	b := NewMapBuilder(string(kind))
	for _, code := range distinctCodes(codes) {
		in, err := catalog.NewEntry(kind, code, "")
		if err != nil {
			return nil, err
		}
		res, err := Resolve(ctx, r.resolver, Target[catalog.Entry]{
			Kind:       string(kind),
			NaturalKey: in.Code,
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*catalog.Entry, error) {
				return r.repos.Entries.FindByCode(ctx, kind, in.Code)
			},
			Merge: func(_ context.Context, existing, in *catalog.Entry) (bool, error) {
				return existing.Merge(in), nil
			},
			Create: r.repos.Entries.Create,
			Update: r.repos.Entries.Update,
		})
		if err != nil {
			return nil, err
		}
		r.record(ctx, phase, string(kind), workbook.Meta{}, res.Outcome, nil, "")
		if err := b.Put(in.Code, res.Entity.ID); err != nil {
			return nil, err
		}
	}
	return b.Freeze(), nil
}

func distinctCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = catalog.NormalizeCode(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (r *run) suppliers(ctx context.Context, recs []workbook.SupplierRecord) (*EntityMap, error) {
	r.decodeErrors(ctx, PhaseSuppliers, KindSupplier)
	b := NewMapBuilder(KindSupplier)
	repo := r.repos.Suppliers

	for _, rec := range recs {
		key := strconv.FormatInt(rec.Code, 10)
		if _, ok := b.Lookup(key); ok {
			r.duplicate(PhaseSuppliers, KindSupplier, rec.Meta, key)
			continue
		}
		in, err := partner.NewSupplier(rec.Code, rec.Name)
		if err != nil {
			r.skip(ctx, PhaseSuppliers, KindSupplier, SkipInvalidRow, rec.Meta, err.Error(), key)
			continue
		}
		in.Phone = strings.TrimSpace(rec.Phone)
		in.Email = strings.TrimSpace(rec.Email)
		in.Address = strings.TrimSpace(rec.Address)
		in.TaxID = strings.TrimSpace(rec.TaxID)

		// the column is NOT NULL UNIQUE: a missing tax id is substituted up front
		var substituted []string
		if in.TaxID == "" {
			v, err := r.resolver.keys.Next(key, 0)
			if err != nil {
				return nil, err
			}
			in.TaxID = v
			substituted = append(substituted, v)
		}
		taxID := in.TaxID

		res, err := Resolve(ctx, r.resolver, Target[partner.Supplier]{
			Kind:       KindSupplier,
			NaturalKey: key,
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*partner.Supplier, error) {
				return repo.FindByCode(ctx, rec.Code)
			},
			FindSecondary: func(ctx context.Context) (*partner.Supplier, error) {
				if partner.IsSyntheticKey(taxID) {
					return nil, nil
				}
				return repo.FindByTaxID(ctx, taxID)
			},
			Conflicts: func(hit *partner.Supplier) bool { return hit.Code != rec.Code },
			Merge: func(ctx context.Context, existing, in *partner.Supplier) (bool, error) {
				if in.TaxID != existing.TaxID && !partner.IsSyntheticKey(in.TaxID) {
					owner, err := find(ctx, func(ctx context.Context) (*partner.Supplier, error) {
						return repo.FindByTaxID(ctx, in.TaxID)
					})
					if err != nil {
						return false, err
					}
					if owner != nil && owner.ID != existing.ID {
						r.note(PhaseSuppliers, rec.Meta, "conflict", "tax id belongs to supplier "+owner.NaturalKey(), in.TaxID)
						in.TaxID = ""
					}
				}
				return existing.Merge(in), nil
			},
			Create: repo.Create,
			Update: repo.Update,
			Fallbacks: map[string]func(*partner.Supplier, string){
				"tax_id": func(s *partner.Supplier, v string) { s.TaxID = v },
			},
		})
		if err != nil {
			return nil, err
		}
		fallbacks := append(substituted, res.Fallbacks...)
		detail := "missing tax id"
		if len(res.Fallbacks) > 0 {
			detail = fmt.Sprintf("tax id %q already in use", taxID)
		}
		r.record(ctx, PhaseSuppliers, KindSupplier, rec.Meta, res.Outcome, fallbacks, detail)
		if err := b.Put(key, res.Entity.ID); err != nil {
			return nil, err
		}
	}
	return b.Freeze(), nil
}

// customers loads the price lists the customer sheet names, then the
// customers themselves.
func (r *run) customers(ctx context.Context, recs []workbook.CustomerRecord) (*EntityMap, error) {
	r.decodeErrors(ctx, PhaseCustomers, KindCustomer)

	names := make([]string, 0, len(recs))
	for _, rec := range recs {
		names = append(names, rec.PriceList)
	}
	priceLists, err := r.ensureEntries(ctx, PhaseCustomers, catalog.KindPriceList, names)
	if err != nil {
		return nil, err
	}

	b := NewMapBuilder(KindCustomer)
	for _, rec := range recs {
		code := strings.TrimSpace(rec.Code)
		if _, ok := b.Lookup(code); ok {
			r.duplicate(PhaseCustomers, KindCustomer, rec.Meta, code)
			continue
		}
		in, err := partner.NewCustomer(code, rec.Name)
		if err != nil {
			r.skip(ctx, PhaseCustomers, KindCustomer, SkipInvalidRow, rec.Meta, err.Error(), code)
			continue
		}
		if rec.Cedula != nil && !isBlank(*rec.Cedula) {
			v := strings.TrimSpace(*rec.Cedula)
			in.Cedula = &v
		}
		in.Phone = strings.TrimSpace(rec.Phone)
		in.Email = strings.TrimSpace(rec.Email)
		in.Address = strings.TrimSpace(rec.Address)
		if pl := catalog.NormalizeCode(rec.PriceList); pl != "" {
			if id, ok := priceLists.Lookup(pl); ok {
				in.PriceListID = &id
			}
		}

		res, err := r.resolveCustomer(ctx, PhaseCustomers, rec.Meta, in)
		if err != nil {
			return nil, err
		}
		if err := b.Put(code, res.Entity.ID); err != nil {
			return nil, err
		}
	}
	return b.Freeze(), nil
}

// resolveCustomer find-or-creates a customer. It serves both the customer
// sheet and the synthetic customers created for sales.
func (r *run) resolveCustomer(ctx context.Context, phase string, meta workbook.Meta, in *partner.Customer) (Resolution[partner.Customer], error) {
	repo := r.repos.Customers
	cedula := ""
	if in.Cedula != nil {
		cedula = *in.Cedula
	}
	res, err := Resolve(ctx, r.resolver, Target[partner.Customer]{
		Kind:       KindCustomer,
		NaturalKey: in.Code,
		Incoming:   in,
		FindPrimary: func(ctx context.Context) (*partner.Customer, error) {
			return repo.FindByCode(ctx, in.Code)
		},
		FindSecondary: func(ctx context.Context) (*partner.Customer, error) {
			if cedula == "" || partner.IsSyntheticKey(cedula) {
				return nil, nil
			}
			return repo.FindByCedula(ctx, cedula)
		},
		Conflicts: func(hit *partner.Customer) bool { return hit.Code != in.Code },
		Merge: func(ctx context.Context, existing, in *partner.Customer) (bool, error) {
			if in.Cedula != nil && !partner.IsSyntheticKey(*in.Cedula) &&
				(existing.Cedula == nil || *existing.Cedula != *in.Cedula) {
				owner, err := find(ctx, func(ctx context.Context) (*partner.Customer, error) {
					return repo.FindByCedula(ctx, *in.Cedula)
				})
				if err != nil {
					return false, err
				}
				if owner != nil && owner.ID != existing.ID {
					r.note(phase, meta, "conflict", "cedula belongs to customer "+owner.Code, *in.Cedula)
					in.Cedula = nil
				}
			}
			return existing.Merge(in), nil
		},
		Create: repo.Create,
		Update: repo.Update,
		Fallbacks: map[string]func(*partner.Customer, string){
			"cedula": func(c *partner.Customer, v string) { c.Cedula = &v },
		},
	})
	if err != nil {
		return res, err
	}
	r.record(ctx, phase, KindCustomer, meta, res.Outcome, res.Fallbacks, fmt.Sprintf("cedula %q already in use", cedula))
	return res, nil
}

func (r *run) products(ctx context.Context, recs []workbook.ProductRecord) (*EntityMap, error) {
	r.decodeErrors(ctx, PhaseProducts, KindProduct)
	b := NewMapBuilder(KindProduct)
	repo := r.repos.Products

	for _, rec := range recs {
		code := strings.TrimSpace(rec.Code)
		if _, ok := b.Lookup(code); ok {
			r.duplicate(PhaseProducts, KindProduct, rec.Meta, code)
			continue
		}
		in, err := catalog.NewProduct(code, rec.Name)
		if err != nil {
			r.skip(ctx, PhaseProducts, KindProduct, SkipInvalidRow, rec.Meta, err.Error(), code)
			continue
		}
		if rec.Barcode != nil {
			in.SetBarcode(*rec.Barcode)
		}
		in.Unit = strings.TrimSpace(rec.Unit)
		in.CostPrice = rec.CostPrice
		in.SalePrice = rec.SalePrice
		in.TaxRate = rec.TaxRate
		barcode := in.BarcodeValue()

		res, err := Resolve(ctx, r.resolver, Target[catalog.Product]{
			Kind:       KindProduct,
			NaturalKey: code,
			Incoming:   in,
			FindPrimary: func(ctx context.Context) (*catalog.Product, error) {
				return repo.FindByCode(ctx, code)
			},
			FindSecondary: func(ctx context.Context) (*catalog.Product, error) {
				if barcode == "" {
					return nil, nil
				}
				return repo.FindByBarcode(ctx, barcode)
			},
			Conflicts: func(hit *catalog.Product) bool { return hit.Code != code },
			Merge: func(ctx context.Context, existing, in *catalog.Product) (bool, error) {
				free := true
				if in.Barcode != nil && in.BarcodeValue() != existing.BarcodeValue() {
					owner, err := find(ctx, func(ctx context.Context) (*catalog.Product, error) {
						return repo.FindByBarcode(ctx, in.BarcodeValue())
					})
					if err != nil {
						return false, err
					}
					if owner != nil && owner.ID != existing.ID {
						free = false
						r.note(PhaseProducts, rec.Meta, "conflict", "barcode belongs to product "+owner.Code, barcode)
					}
				}
				return existing.Merge(in, free), nil
			},
			Create: repo.Create,
			Update: repo.Update,
			Clears: map[string]func(*catalog.Product){
				"barcode": func(p *catalog.Product) { p.Barcode = nil },
			},
		})
		if err != nil {
			return nil, err
		}
		var dropped []string
		if res.FallbackUsed() {
			dropped = []string{barcode}
		}
		r.record(ctx, PhaseProducts, KindProduct, rec.Meta, res.Outcome, dropped, "barcode already in use, stored without barcode")
		if err := b.Put(code, res.Entity.ID); err != nil {
			return nil, err
		}
	}
	return b.Freeze(), nil
}

func (r *run) expenseTypes(ctx context.Context, recs []workbook.PurchaseExpenseRecord) (*EntityMap, error) {
	codes := make([]string, 0, len(recs))
	for _, rec := range recs {
		codes = append(codes, rec.ExpenseType)
	}
	return r.ensureEntries(ctx, PhaseExpenseTypes, catalog.KindExpenseType, codes)
}
