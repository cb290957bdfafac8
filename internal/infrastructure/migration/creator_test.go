package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/erp/migrator/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add barcode index", "add_barcode_index"},
		{"Add-Barcode-Index", "add_barcode_index"},
		{"ADD__BARCODE__INDEX", "add_barcode_index"},
		{"Sales 2024", "sales_2024"},
		{"   spaces   ", "spaces"},
		{"símbolos!@#", "smbolos"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "add provenance index", "Index synthetic customers")
	require.NoError(t, err)
	assert.Len(t, mf.Version, 14)

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)
	assert.True(t, strings.HasSuffix(upBase, "_add_provenance_index"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Index synthetic customers")
	assert.Contains(t, string(up), "uq_<table>_<column>")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	require.NoError(t, CheckPairs(os.DirFS(dir)))
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"000003_add_stock.up.sql", "000003_add_stock.down.sql",
		"000001_init.up.sql", "000001_init.down.sql",
		"README.md", ".gitkeep",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	got, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000003_add_stock"}, got)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	got, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"1_a.up.sql":   {Data: []byte("")},
		"1_a.down.sql": {Data: []byte("")},
		"2_b.up.sql":   {Data: []byte("")},
	}
	err := CheckPairs(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2_b")
}

func TestEmbeddedSchema(t *testing.T) {
	require.NoError(t, CheckPairs(migrations.FS))

	names, err := ListMigrationsFS(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	var schema strings.Builder
	for _, n := range names {
		b, err := migrations.FS.ReadFile(n + ".up.sql")
		require.NoError(t, err)
		schema.Write(b)
	}
	// unique violations are classified by index name
	for _, idx := range []string{
		"uq_suppliers_tax_id", "uq_customers_cedula", "uq_products_barcode",
		"uq_purchases_header_id", "uq_sales_invoice_number",
		"uq_purchase_lines_line_no", "uq_sale_lines_line_no",
		"uq_inventory_snapshots_product_id", "uq_catalog_entries_code",
	} {
		assert.Contains(t, schema.String(), idx)
	}
}
