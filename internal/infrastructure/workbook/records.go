package workbook

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrCodeMissingKey marks a row whose natural key or foreign key is blank
const ErrCodeMissingKey = "ERR_SHEET_MISSING_KEY"

// ErrMissingColumn is returned when a sheet lacks a key column entirely
var ErrMissingColumn = errors.New("sheet is missing a key column")

// Meta carries the position of a record in its sheet
type Meta struct {
	Sheet string
	Row   int
}

// DateCell is a decoded date column. Raw keeps the cell text for reports.
type DateCell struct {
	sheetdate.Result
	Raw string
}

// Present reports whether the cell had any content
func (d DateCell) Present() bool {
	return d.Status != sheetdate.NoValue
}

// Typed records, one per sheet kind. The col tag lists accepted header names
// (folded with NormalizeHeader); ",key" marks natural and foreign keys.

type SupplierRecord struct {
	Meta
	Code    int64  `col:"COD_PROVEEDOR|CODIGO|ID_PROVEEDOR,key" validate:"required,gt=0"`
	Name    string `col:"RAZON_SOCIAL|NOMBRE|PROVEEDOR" validate:"required"`
	TaxID   string `col:"RUC|NRO_RUC|RUC_PROVEEDOR"`
	Phone   string `col:"TELEFONO|TEL"`
	Address string `col:"DIRECCION"`
	Email   string `col:"EMAIL|CORREO"`
}

type CustomerRecord struct {
	Meta
	Code      string  `col:"COD_CLIENTE|CODIGO|ID_CLIENTE,key" validate:"required"`
	Name      string  `col:"NOMBRE|RAZON_SOCIAL|CLIENTE" validate:"required"`
	Cedula    *string `col:"CEDULA|CI|NRO_DOCUMENTO"`
	Phone     string  `col:"TELEFONO|TEL|CELULAR"`
	Address   string  `col:"DIRECCION"`
	Email     string  `col:"EMAIL|CORREO"`
	PriceList string  `col:"LISTA_PRECIO|LISTA_DE_PRECIO|LISTA"`
}

type ProductRecord struct {
	Meta
	Code      string           `col:"COD_PRODUCTO|CODIGO|ID_PRODUCTO,key" validate:"required"`
	Barcode   *string          `col:"CODIGO_BARRAS|COD_BARRAS|CODIGO_DE_BARRAS"`
	Name      string           `col:"DESCRIPCION|NOMBRE|PRODUCTO"`
	Unit      string           `col:"UNIDAD|UNIDAD_MEDIDA"`
	CostPrice *decimal.Decimal `col:"PRECIO_COSTO|COSTO"`
	SalePrice *decimal.Decimal `col:"PRECIO_VENTA|PRECIO"`
	TaxRate   *decimal.Decimal `col:"IVA|TASA_IVA"`
}

type PurchaseRecord struct {
	Meta
	HeaderID      string           `col:"ID_COMPRA|NRO_COMPRA,key" validate:"required"`
	InvoiceNumber string           `col:"NRO_FACTURA|FACTURA"`
	SupplierCode  int64            `col:"COD_PROVEEDOR|ID_PROVEEDOR,key" validate:"required,gt=0"`
	Date          DateCell         `col:"FECHA|FECHA_COMPRA"`
	DueDate       DateCell         `col:"VENCIMIENTO|FECHA_VENCIMIENTO"`
	Currency      string           `col:"MONEDA"`
	Total         *decimal.Decimal `col:"TOTAL|MONTO_TOTAL"`
	Balance       *decimal.Decimal `col:"SALDO"`
	Condition     string           `col:"CONDICION|CONDICION_PAGO"`
}

type PurchaseLineRecord struct {
	Meta
	HeaderID    string           `col:"ID_COMPRA|NRO_COMPRA,key" validate:"required"`
	ProductCode string           `col:"COD_PRODUCTO|CODIGO,key" validate:"required"`
	Quantity    *decimal.Decimal `col:"CANTIDAD" validate:"required"`
	UnitCost    *decimal.Decimal `col:"COSTO_UNITARIO|COSTO|PRECIO_UNITARIO"`
	Warehouse   string           `col:"DEPOSITO|ALMACEN"`
}

type PurchaseExpenseRecord struct {
	Meta
	HeaderID    string           `col:"ID_COMPRA|NRO_COMPRA,key" validate:"required"`
	ExpenseType string           `col:"TIPO_GASTO|GASTO,key" validate:"required"`
	Description string           `col:"DESCRIPCION|CONCEPTO"`
	Amount      *decimal.Decimal `col:"MONTO|IMPORTE" validate:"required"`
}

type SaleRecord struct {
	Meta
	InvoiceNumber string           `col:"NRO_FACTURA|FACTURA,key" validate:"required"`
	CustomerCode  string           `col:"COD_CLIENTE|ID_CLIENTE"`
	CustomerName  string           `col:"NOMBRE_CLIENTE|CLIENTE"`
	Date          DateCell         `col:"FECHA|FECHA_VENTA"`
	DueDate       DateCell         `col:"VENCIMIENTO|FECHA_VENCIMIENTO"`
	Currency      string           `col:"MONEDA"`
	Total         *decimal.Decimal `col:"TOTAL|MONTO_TOTAL"`
	Balance       *decimal.Decimal `col:"SALDO"`
	Condition     string           `col:"CONDICION|CONDICION_PAGO"`
	Branch        string           `col:"SUCURSAL"`
}

type SaleLineRecord struct {
	Meta
	InvoiceNumber string           `col:"NRO_FACTURA|FACTURA,key" validate:"required"`
	ProductCode   string           `col:"COD_PRODUCTO|CODIGO,key" validate:"required"`
	Quantity      *decimal.Decimal `col:"CANTIDAD" validate:"required"`
	UnitPrice     *decimal.Decimal `col:"PRECIO_UNITARIO|PRECIO"`
	Discount      *decimal.Decimal `col:"DESCUENTO"`
	Warehouse     string           `col:"DEPOSITO|ALMACEN"`
}

type StockRecord struct {
	Meta
	ProductCode string           `col:"COD_PRODUCTO|CODIGO,key" validate:"required"`
	Branch      string           `col:"SUCURSAL"`
	Warehouse   string           `col:"DEPOSITO|ALMACEN"`
	Quantity    *decimal.Decimal `col:"CANTIDAD|STOCK|EXISTENCIA" validate:"required"`
}

type fieldPlan struct {
	index   int
	name    string // canonical column name used in errors
	aliases []string
	key     bool
}

var (
	plans    sync.Map // reflect.Type -> []fieldPlan
	validate = newValidator()

	decimalPtrType = reflect.TypeOf((*decimal.Decimal)(nil))
	dateCellType   = reflect.TypeOf(DateCell{})
	stringPtrType  = reflect.TypeOf((*string)(nil))
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := f.Tag.Get("col")
		if tag == "" {
			return f.Name
		}
		name, _, _ := strings.Cut(tag, "|")
		name, _, _ = strings.Cut(name, ",")
		return name
	})
	return v
}

func planFor(t reflect.Type) []fieldPlan {
	if p, ok := plans.Load(t); ok {
		return p.([]fieldPlan)
	}
	var out []fieldPlan
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("col")
		if tag == "" {
			continue
		}
		names, opts, _ := strings.Cut(tag, ",")
		fp := fieldPlan{index: i, key: opts == "key"}
		for _, n := range strings.Split(names, "|") {
			fp.aliases = append(fp.aliases, NormalizeHeader(n))
		}
		fp.name = fp.aliases[0]
		out = append(out, fp)
	}
	plans.Store(t, out)
	return out
}

// Decode converts every row of s into a record of type T. Rows that fail
// conversion or validation are reported in the returned collection and left
// out of the result. A sheet without any accepted header for a key column is
// an error.
func Decode[T any](s *Sheet, n *sheetdate.Normalizer, maxErrors int) ([]T, *ErrorCollection, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("decode target %s is not a struct", t)
	}
	plan := planFor(t)

	columns := make([]string, len(plan))
	for i, fp := range plan {
		for _, a := range fp.aliases {
			if s.HasColumn(a) {
				columns[i] = a
				break
			}
		}
		if columns[i] == "" && fp.key {
			return nil, nil, fmt.Errorf("%w: %s needs one of %v", ErrMissingColumn, s.Name, fp.aliases)
		}
	}

	errs := NewErrorCollection(maxErrors)
	out := make([]T, 0, len(s.Rows))
	for _, row := range s.Rows {
		var rec T
		rv := reflect.ValueOf(&rec).Elem()
		if mf := rv.FieldByName("Meta"); mf.IsValid() {
			mf.Set(reflect.ValueOf(Meta{Sheet: s.Name, Row: row.Number}))
		}

		ok := true
		for i, fp := range plan {
			cell := Empty
			if columns[i] != "" {
				cell = row.Get(columns[i])
			}
			if err := assign(rv.Field(fp.index), cell, n); err != nil {
				errs.Add(NewRowErrorWithValue(s.Name, row.Number, fp.name, ErrCodeInvalidType, err.Error(), cell.Raw))
				ok = false
			}
		}
		if !ok {
			continue
		}

		if err := validate.Struct(rec); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				errs.Add(NewRowError(s.Name, row.Number, "", ErrCodeValidation, err.Error()))
				continue
			}
			for _, fe := range verrs {
				errs.Add(fieldError(s.Name, row.Number, fe, plan))
			}
			continue
		}
		out = append(out, rec)
	}
	return out, errs, nil
}

func fieldError(sheet string, row int, fe validator.FieldError, plan []fieldPlan) RowError {
	code := ErrCodeValidation
	msg := fmt.Sprintf("failed '%s' validation", fe.Tag())
	if fe.Tag() == "required" {
		code = ErrCodeRequiredField
		msg = fmt.Sprintf("field '%s' is required", fe.Field())
		for _, fp := range plan {
			if fp.name == fe.Field() && fp.key {
				code = ErrCodeMissingKey
			}
		}
	}
	return NewRowErrorWithValue(sheet, row, fe.Field(), code, msg, fmt.Sprint(fe.Value()))
}

func assign(f reflect.Value, cell Value, n *sheetdate.Normalizer) error {
	switch {
	case f.Type() == dateCellType:
		f.Set(reflect.ValueOf(DateCell{Result: n.Normalize(cell.Any()), Raw: cell.String()}))
		return nil
	case f.Type() == decimalPtrType:
		d, err := cell.Decimal()
		if err != nil {
			return err
		}
		f.Set(reflect.ValueOf(d))
		return nil
	case f.Type() == stringPtrType:
		if cell.IsEmpty() {
			return nil
		}
		s := cell.String()
		f.Set(reflect.ValueOf(&s))
		return nil
	}
	switch f.Kind() {
	case reflect.String:
		f.SetString(cell.String())
	case reflect.Int64:
		v, err := cell.Int64()
		if err != nil {
			return err
		}
		f.SetInt(v)
	default:
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}
