package workbook

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sheetData struct {
	name string
	rows [][]any
}

func buildWorkbook(t *testing.T, sheets ...sheetData) *Workbook {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	wb, err := Open(bytes.NewReader(buf.Bytes()), "test.xlsx")
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Código Barras":      "CODIGO_BARRAS",
		"  razón   social ":  "RAZON_SOCIAL",
		"Nro. Factura":       "NRO_FACTURA",
		"COD_PROVEEDOR":      "COD_PROVEEDOR",
		"Compras y Saldos":   "COMPRAS_Y_SALDOS",
		"Depósito/Almacén ":  "DEPOSITO_ALMACEN",
		"":                   "",
		"---":                "",
		"Teléfono (celular)": "TELEFONO_CELULAR",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestValue(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.True(t, Empty.IsEmpty())
		assert.Nil(t, Empty.Any())
		d, err := Empty.Decimal()
		assert.NoError(t, err)
		assert.Nil(t, d)
		assert.True(t, TextValue("   ").IsEmpty())
	})

	t.Run("number", func(t *testing.T) {
		v := NumberValue(45000)
		assert.Equal(t, 45000.0, v.Any())
		n, err := v.Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(45000), n)

		_, err = NumberValue(1.5).Int64()
		assert.Error(t, err)
	})

	t.Run("text numbers use local separators", func(t *testing.T) {
		for in, want := range map[string]string{
			"1.234.567":  "1234567",
			"1.234,50":   "1234.5",
			"12,5":       "12.5",
			"Gs. 15.000": "15000",
			"3.5":        "3.5",
		} {
			d, err := TextValue(in).Decimal()
			require.NoError(t, err, in)
			assert.True(t, d.Equal(decimal.RequireFromString(want)), in)
		}
		_, err := TextValue("n/a").Decimal()
		assert.Error(t, err)
	})

	t.Run("text stays text for date decoding", func(t *testing.T) {
		assert.Equal(t, "15/03/2023", TextValue(" 15/03/2023 ").Any())
	})
}

func TestWorkbook_Sheet(t *testing.T) {
	wb := buildWorkbook(t,
		sheetData{name: "Proveedores", rows: [][]any{
			{"Cód. Proveedor", "Razón Social", "RUC", "Teléfono"},
			{1, "Alfa SA", "80000001-1", "021 555"},
			{nil, nil, nil, nil},
			{2, "Beta SRL", nil},
			{"00123", "Gamma", "80000003-3", nil},
		}},
		sheetData{name: "Vacía", rows: nil},
	)

	t.Run("matches sheet names loosely", func(t *testing.T) {
		s, err := wb.Sheet("PROVEEDORES")
		require.NoError(t, err)
		assert.Equal(t, "Proveedores", s.Name)
		assert.Equal(t, []string{"COD_PROVEEDOR", "RAZON_SOCIAL", "RUC", "TELEFONO"}, s.Columns)
	})

	t.Run("skips blank rows and keeps sheet row numbers", func(t *testing.T) {
		s, err := wb.Sheet("Proveedores")
		require.NoError(t, err)
		require.Len(t, s.Rows, 3)
		assert.Equal(t, 2, s.Rows[0].Number)
		assert.Equal(t, 4, s.Rows[1].Number)
		assert.Equal(t, 5, s.Rows[2].Number)
	})

	t.Run("distinguishes numbers from numeric text", func(t *testing.T) {
		s, err := wb.Sheet("Proveedores")
		require.NoError(t, err)
		assert.Equal(t, KindNumber, s.Rows[0].Get("COD_PROVEEDOR").Kind)
		assert.Equal(t, KindText, s.Rows[2].Get("COD_PROVEEDOR").Kind)
		assert.Equal(t, "00123", s.Rows[2].Get("cod proveedor").String())
	})

	t.Run("missing cells are explicit empty values", func(t *testing.T) {
		s, err := wb.Sheet("Proveedores")
		require.NoError(t, err)
		v := s.Rows[1].Get("TELEFONO")
		assert.Equal(t, KindEmpty, v.Kind)
		assert.True(t, s.Rows[1].Get("NOT_A_COLUMN").IsEmpty())
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := wb.Sheet("Stock")
		assert.ErrorIs(t, err, ErrMissingSheet)
	})

	t.Run("sheet without header", func(t *testing.T) {
		_, err := wb.Sheet("Vacia")
		assert.ErrorIs(t, err, ErrNoHeader)
	})
}

func TestOpen_Unreadable(t *testing.T) {
	_, err := Open(strings.NewReader("not a zip"), "broken.xlsx")
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestDecode_Suppliers(t *testing.T) {
	n := sheetdate.MustNew("")
	sheet := &Sheet{
		Name:    "Proveedores",
		Columns: []string{"COD_PROVEEDOR", "RAZON_SOCIAL", "RUC"},
		Rows: []Row{
			NewRow(2, map[string]Value{"COD_PROVEEDOR": NumberValue(1), "RAZON_SOCIAL": TextValue("Alfa"), "RUC": TextValue("800-1")}),
			NewRow(3, map[string]Value{"COD_PROVEEDOR": Empty, "RAZON_SOCIAL": TextValue("Sin codigo")}),
			NewRow(4, map[string]Value{"COD_PROVEEDOR": TextValue("abc"), "RAZON_SOCIAL": TextValue("Texto")}),
			NewRow(5, map[string]Value{"COD_PROVEEDOR": NumberValue(5), "RAZON_SOCIAL": Empty}),
		},
	}

	recs, errs, err := Decode[SupplierRecord](sheet, n, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Code)
	assert.Equal(t, "Alfa", recs[0].Name)
	assert.Equal(t, "800-1", recs[0].TaxID)
	assert.Equal(t, 2, recs[0].Row)
	assert.Equal(t, "Proveedores", recs[0].Sheet)

	require.Equal(t, 3, errs.TotalCount())
	got := errs.Errors()
	assert.Equal(t, ErrCodeMissingKey, got[0].Code)
	assert.Equal(t, 3, got[0].Row)
	assert.Equal(t, ErrCodeInvalidType, got[1].Code)
	assert.Equal(t, "COD_PROVEEDOR", got[1].Column)
	assert.Equal(t, ErrCodeRequiredField, got[2].Code)
	assert.Equal(t, "RAZON_SOCIAL", got[2].Column)
}

func TestDecode_MissingKeyColumn(t *testing.T) {
	sheet := &Sheet{Name: "Clientes", Columns: []string{"NOMBRE"}}
	_, _, err := Decode[CustomerRecord](sheet, sheetdate.MustNew(""), 10)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestDecode_PurchasesFromWorkbook(t *testing.T) {
	wb := buildWorkbook(t, sheetData{name: "Compras y Saldos", rows: [][]any{
		{"ID_COMPRA", "NRO_FACTURA", "COD_PROVEEDOR", "FECHA", "VENCIMIENTO", "TOTAL", "SALDO", "CONDICION"},
		{"C-1", "001-001-1", 1, 45000, "15/04/2023", 150000, 0, "Contado"},
		{"C-2", "001-001-2", 2, "31/02/2023", nil, "1.500.000", "1.500.000", "Crédito"},
	}})

	s, err := wb.Sheet("Compras y Saldos")
	require.NoError(t, err)

	norm := sheetdate.MustNew("")
	recs, errs, err := Decode[PurchaseRecord](s, norm, 10)
	require.NoError(t, err)
	assert.False(t, errs.HasErrors(), errs.String())
	require.Len(t, recs, 2)

	first := recs[0]
	require.True(t, first.Date.IsValid())
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, norm.Location()), first.Date.Time)
	assert.Equal(t, "15/03/2023", norm.Format(first.Date.Time))
	assert.True(t, first.DueDate.IsValid())
	assert.True(t, first.Total.Equal(decimal.NewFromInt(150000)))
	assert.Equal(t, "Contado", first.Condition)

	second := recs[1]
	assert.Equal(t, sheetdate.Invalid, second.Date.Status)
	assert.Equal(t, "31/02/2023", second.Date.Raw)
	assert.False(t, second.DueDate.Present())
	assert.True(t, second.Total.Equal(decimal.NewFromInt(1500000)))
	assert.Equal(t, int64(2), second.SupplierCode)
}
