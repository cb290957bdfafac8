package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	correctionapp "github.com/erp/migrator/internal/application/correction"
	diagnosticsapp "github.com/erp/migrator/internal/application/diagnostics"
	migrationapp "github.com/erp/migrator/internal/application/migration"
	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/erp/migrator/internal/infrastructure/bootstrap"
	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/erp/migrator/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeWorkbooks(t *testing.T, dir string) (string, string) {
	t.Helper()
	purchases := testutil.WorkbookBytes(t,
		testutil.Sheet{Name: "Proveedores", Rows: [][]any{
			{"COD_PROVEEDOR", "RAZON_SOCIAL", "RUC"},
			{1, "Alfa SA", "80012345-1"},
			{2, "Beta SRL", "80099999-2"},
			{3, "Gamma", "80012345-1"},
		}},
		testutil.Sheet{Name: "Compras y Saldos", Rows: [][]any{
			{"ID_COMPRA", "NRO_FACTURA", "COD_PROVEEDOR", "FECHA", "TOTAL"},
			{"C-1", "001-001-1", 1, "15/03/2023", 150000},
		}},
		testutil.Sheet{Name: "Detalle Productos Compra", Rows: [][]any{
			{"ID_COMPRA", "COD_PRODUCTO", "CANTIDAD", "COSTO_UNITARIO"},
			{"C-1", "P1", 10, 1000},
		}},
		testutil.Sheet{Name: "Detalle Gastos Compra", Rows: [][]any{
			{"ID_COMPRA", "TIPO_GASTO", "MONTO"},
			{"C-1", "FLETE", 5000},
		}},
	)
	sales := testutil.WorkbookBytes(t,
		testutil.Sheet{Name: "Clientes", Rows: [][]any{
			{"COD_CLIENTE", "NOMBRE", "CEDULA"},
			{"C1", "Juan Perez", "1234567"},
		}},
		testutil.Sheet{Name: "Productos", Rows: [][]any{
			{"COD_PRODUCTO", "DESCRIPCION", "CODIGO_BARRAS"},
			{"P1", "Yerba 500g", "7840001"},
			{"P2", "Yerba 1kg", "7840001"},
		}},
		testutil.Sheet{Name: "Ventas y Saldos", Rows: [][]any{
			{"NRO_FACTURA", "COD_CLIENTE", "NOMBRE_CLIENTE", "FECHA", "TOTAL"},
			{"001-1", "C1", "", 45017, 4000},
			{"001-2", "C9", "Maria Gomez", "02/04/2023", 2500},
		}},
		testutil.Sheet{Name: "Detalle Ventas", Rows: [][]any{
			{"NRO_FACTURA", "COD_PRODUCTO", "CANTIDAD", "PRECIO_UNITARIO"},
			{"001-1", "P1", 2, 2000},
		}},
		testutil.Sheet{Name: "Stock", Rows: [][]any{
			{"COD_PRODUCTO", "SUCURSAL", "CANTIDAD"},
			{"P1", "Central", 8},
		}},
	)
	pPath := filepath.Join(dir, "compras.xlsx")
	sPath := filepath.Join(dir, "ventas.xlsx")
	require.NoError(t, os.WriteFile(pPath, purchases, 0o644))
	require.NoError(t, os.WriteFile(sPath, sales, 0o644))
	return pPath, sPath
}

func storeConfig(dsn string, dir string) *config.Config {
	pPath, sPath := filepath.Join(dir, "compras.xlsx"), filepath.Join(dir, "ventas.xlsx")
	return &config.Config{
		Database: config.DatabaseConfig{URL: dsn, MaxOpenConns: 5, MaxIdleConns: 2, LogLevel: "silent"},
		Lock:     config.LockConfig{TTL: time.Minute, Prefix: "it:lock:"},
		Source: config.SourceConfig{
			PurchasesWorkbook: pPath, SalesWorkbook: sPath,
			SupplierSheet: "Proveedores", PurchaseSheet: "Compras y Saldos",
			PurchaseLineSheet: "Detalle Productos Compra", PurchaseExpenseSheet: "Detalle Gastos Compra",
			CustomerSheet: "Clientes", ProductSheet: "Productos", SaleSheet: "Ventas y Saldos",
			SaleLineSheet: "Detalle Ventas", StockSheet: "Stock",
			Location: "America/Asuncion", FlagLimit: 20, MaxRowErrors: 50,
		},
		Diagnostics: config.DiagnosticsConfig{ReportPath: filepath.Join(dir, "report.json")},
	}
}

func TestPipeline_PostgreSQL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	ctx := context.Background()
	dir := t.TempDir()
	writeWorkbooks(t, dir)
	cfg := storeConfig(testDB.DSN, dir)

	env, err := bootstrap.Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer env.Close(ctx)
	require.NoError(t, env.PrepareSchema(ctx))
	require.NoError(t, env.Lock(ctx))

	purchases, err := env.OpenWorkbook(ctx, cfg.Source.PurchasesWorkbook)
	require.NoError(t, err)
	defer purchases.Close()
	sales, err := env.OpenWorkbook(ctx, cfg.Source.SalesWorkbook)
	require.NoError(t, err)
	defer sales.Close()

	normalizer := sheetdate.MustNew(cfg.Source.Location)
	src, err := migrationapp.LoadSource(purchases, sales, migrationapp.SheetNamesFromConfig(cfg.Source), normalizer, cfg.Source.MaxRowErrors)
	require.NoError(t, err)

	orch := migrationapp.NewOrchestrator(migrationapp.StoreRepositories(env.Store), migrationapp.Options{
		FlagLimit:    cfg.Source.FlagLimit,
		Placeholders: partner.DefaultPlaceholders,
	}, env.Logger)

	sum, err := orch.Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, migrationapp.StateCompleted, sum.State)

	t.Run("unique violations take the fallback path", func(t *testing.T) {
		s := sum.Kinds[migrationapp.KindSupplier]
		assert.Equal(t, 3, s.Created)
		assert.Equal(t, 1, s.FallbackUsed)

		gamma, err := env.Store.Suppliers.FindByCode(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "TEMP_3", gamma.TaxID)

		p2, err := env.Store.Products.FindByCode(ctx, "P2")
		require.NoError(t, err)
		assert.Nil(t, p2.Barcode)
	})

	t.Run("unknown sale customer is synthesized", func(t *testing.T) {
		c9, err := env.Store.Customers.FindByCode(ctx, "C9")
		require.NoError(t, err)
		assert.Equal(t, "* Maria Gomez", c9.Name)
	})

	t.Run("re-run changes nothing", func(t *testing.T) {
		again, err := orch.Run(ctx, src)
		require.NoError(t, err)
		assert.Zero(t, again.Totals().Created)
		assert.Equal(t, 3, again.Kinds[migrationapp.KindSupplier].Unchanged)
	})

	t.Run("date correction restores epoch dates", func(t *testing.T) {
		before, err := env.Store.Sales.FindByInvoiceNumber(ctx, "001-1")
		require.NoError(t, err)
		require.NoError(t, testDB.DB.Exec(
			`UPDATE sales SET date = to_timestamp(45) WHERE invoice_number = ?`, "001-1").Error)

		dates, err := correctionapp.LoadDateSource(ctx, purchases, sales, cfg.Source.PurchaseSheet, cfg.Source.SaleSheet, normalizer, 50)
		require.NoError(t, err)
		c := correctionapp.NewCorrector(correctionapp.Repositories{
			Purchases: env.Store.Purchases, Sales: env.Store.Sales, Customers: env.Store.Customers,
		})
		rep, err := c.FixDates(ctx, dates)
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Table(correctionapp.TableSales).Updated)

		after, err := env.Store.Sales.FindByInvoiceNumber(ctx, "001-1")
		require.NoError(t, err)
		assert.True(t, before.Date.Equal(after.Date))

		rep, err = c.FixDates(ctx, dates)
		require.NoError(t, err)
		assert.Zero(t, rep.Table(correctionapp.TableSales).Scanned)
	})

	t.Run("diagnostics audit the store", func(t *testing.T) {
		rep, err := diagnosticsapp.NewReporter(env.Store.Audit, diagnosticsapp.Options{}).Build(ctx, purchases, sales)
		require.NoError(t, err)
		assert.Len(t, rep.Sheets, 9)
		for _, a := range rep.Store {
			assert.Zero(t, a.Suspect, "%s.%s", a.Table, a.Column)
		}
		require.NoError(t, rep.Save(ctx, env.Storage, cfg.Diagnostics.ReportPath))
		assert.FileExists(t, cfg.Diagnostics.ReportPath)
	})
}
