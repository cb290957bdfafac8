package migrationapp

import (
	"fmt"

	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/erp/migrator/internal/infrastructure/workbook"
)

// SheetNames names the worksheets read from the two workbooks
type SheetNames struct {
	Suppliers        string
	Purchases        string
	PurchaseLines    string
	PurchaseExpenses string
	Customers        string
	Products         string
	Sales            string
	SaleLines        string
	Stock            string
}

// SheetNamesFromConfig takes the sheet names from the source settings
func SheetNamesFromConfig(cfg config.SourceConfig) SheetNames {
	return SheetNames{
		Suppliers:        cfg.SupplierSheet,
		Purchases:        cfg.PurchaseSheet,
		PurchaseLines:    cfg.PurchaseLineSheet,
		PurchaseExpenses: cfg.PurchaseExpenseSheet,
		Customers:        cfg.CustomerSheet,
		Products:         cfg.ProductSheet,
		Sales:            cfg.SaleSheet,
		SaleLines:        cfg.SaleLineSheet,
		Stock:            cfg.StockSheet,
	}
}

// Source holds the typed records of both workbooks. Rows that failed to
// decode are not in the record slices; they are kept in RowErrors by
// entity kind and counted as skipped by the phase of that kind.
type Source struct {
	Suppliers        []workbook.SupplierRecord
	Purchases        []workbook.PurchaseRecord
	PurchaseLines    []workbook.PurchaseLineRecord
	PurchaseExpenses []workbook.PurchaseExpenseRecord
	Customers        []workbook.CustomerRecord
	Products         []workbook.ProductRecord
	Sales            []workbook.SaleRecord
	SaleLines        []workbook.SaleLineRecord
	Stock            []workbook.StockRecord

	RowErrors map[string]*workbook.ErrorCollection
}

// LoadSource reads and decodes every sheet. A missing sheet, a sheet
// without a key column or an unreadable workbook is returned as an error.
func LoadSource(purchases, sales *workbook.Workbook, names SheetNames, n *sheetdate.Normalizer, maxErrors int) (*Source, error) {
	src := &Source{RowErrors: make(map[string]*workbook.ErrorCollection)}
	var err error

	if src.Suppliers, err = decodeSheet[workbook.SupplierRecord](src, purchases, names.Suppliers, KindSupplier, n, maxErrors); err != nil {
		return nil, err
	}
	if src.Purchases, err = decodeSheet[workbook.PurchaseRecord](src, purchases, names.Purchases, KindPurchase, n, maxErrors); err != nil {
		return nil, err
	}
	if src.PurchaseLines, err = decodeSheet[workbook.PurchaseLineRecord](src, purchases, names.PurchaseLines, KindPurchaseLine, n, maxErrors); err != nil {
		return nil, err
	}
	if src.PurchaseExpenses, err = decodeSheet[workbook.PurchaseExpenseRecord](src, purchases, names.PurchaseExpenses, KindPurchaseExpense, n, maxErrors); err != nil {
		return nil, err
	}
	if src.Customers, err = decodeSheet[workbook.CustomerRecord](src, sales, names.Customers, KindCustomer, n, maxErrors); err != nil {
		return nil, err
	}
	if src.Products, err = decodeSheet[workbook.ProductRecord](src, sales, names.Products, KindProduct, n, maxErrors); err != nil {
		return nil, err
	}
	if src.Sales, err = decodeSheet[workbook.SaleRecord](src, sales, names.Sales, KindSale, n, maxErrors); err != nil {
		return nil, err
	}
	if src.SaleLines, err = decodeSheet[workbook.SaleLineRecord](src, sales, names.SaleLines, KindSaleLine, n, maxErrors); err != nil {
		return nil, err
	}
	if src.Stock, err = decodeSheet[workbook.StockRecord](src, sales, names.Stock, KindInventory, n, maxErrors); err != nil {
		return nil, err
	}
	return src, nil
}

func decodeSheet[T any](src *Source, wb *workbook.Workbook, sheet, kind string, n *sheetdate.Normalizer, maxErrors int) ([]T, error) {
	s, err := wb.Sheet(sheet)
	if err != nil {
		return nil, err
	}
	recs, errs, err := workbook.Decode[T](s, n, maxErrors)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sheet, err)
	}
	if errs.HasErrors() {
		src.RowErrors[kind] = errs
	}
	return recs, nil
}
