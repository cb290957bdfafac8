package correctionapp

import "go.uber.org/zap"

// Tables covered by the corrector
const (
	TablePurchases = "purchases"
	TableSales     = "sales"
	TableCustomers = "customers"
)

// TableReport counts what a correction did to one table
type TableReport struct {
	Table         string `json:"table"`
	Scanned       int    `json:"scanned"`
	Updated       int    `json:"updated"`
	Unresolved    int    `json:"unresolved"`
	MissingSource int    `json:"missing_source"`
}

// Report collects table reports in the order tables were visited
type Report struct {
	Tables []*TableReport `json:"tables"`
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{}
}

// Table returns the report of table, adding it on first use
func (r *Report) Table(table string) *TableReport {
	for _, t := range r.Tables {
		if t.Table == table {
			return t
		}
	}
	t := &TableReport{Table: table}
	r.Tables = append(r.Tables, t)
	return t
}

// Log writes one line per table
func (r *Report) Log(log *zap.Logger) {
	for _, t := range r.Tables {
		log.Info("Correction totals",
			zap.String("table", t.Table),
			zap.Int("scanned", t.Scanned),
			zap.Int("updated", t.Updated),
			zap.Int("unresolved", t.Unresolved),
			zap.Int("missing_source", t.MissingSource),
		)
	}
}
