// Package diagnosticsapp produces read-only reports about the source
// workbooks and the dates held by the target store.
package diagnosticsapp

import (
	"regexp"
	"sort"

	"github.com/erp/migrator/internal/infrastructure/workbook"
)

// InferredType is the dominant value class of a column
type InferredType string

const (
	TypeNull          InferredType = "null"
	TypeNumber        InferredType = "number"
	TypeBoolean       InferredType = "boolean"
	TypeNumericString InferredType = "numeric-string"
	TypeDateLike      InferredType = "date-like-string"
	TypeString        InferredType = "string"
)

var dateLike = regexp.MustCompile(`^(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2})([ T]\d{1,2}:\d{2}(:\d{2})?)?$`)

// ColumnProfile describes the values of one column
type ColumnProfile struct {
	Name        string       `json:"name"`
	Filled      int          `json:"filled"`
	FillRate    float64      `json:"fill_rate"`
	Cardinality int          `json:"cardinality"`
	Type        InferredType `json:"inferred_type"`
	Samples     []string     `json:"samples,omitempty"`
}

// SheetProfile describes one worksheet
type SheetProfile struct {
	Workbook string          `json:"workbook"`
	Sheet    string          `json:"sheet"`
	Rows     int             `json:"rows"`
	Columns  []ColumnProfile `json:"columns"`
}

// ProfileSheet counts fill rate, distinct values and the dominant type of
// every column, keeping up to samples distinct example values each.
func ProfileSheet(workbookName string, s *workbook.Sheet, samples int) SheetProfile {
	p := SheetProfile{Workbook: workbookName, Sheet: s.Name, Rows: len(s.Rows)}
	for _, col := range s.Columns {
		p.Columns = append(p.Columns, profileColumn(col, s.Rows, samples))
	}
	return p
}

func profileColumn(col string, rows []workbook.Row, samples int) ColumnProfile {
	cp := ColumnProfile{Name: col}
	distinct := make(map[string]struct{})
	classes := make(map[InferredType]int)

	for _, r := range rows {
		v := r.Get(col)
		if v.IsEmpty() {
			continue
		}
		cp.Filled++
		classes[classify(v)]++
		s := v.String()
		if _, seen := distinct[s]; !seen {
			distinct[s] = struct{}{}
			if len(cp.Samples) < samples {
				cp.Samples = append(cp.Samples, s)
			}
		}
	}
	cp.Cardinality = len(distinct)
	if len(rows) > 0 {
		cp.FillRate = float64(cp.Filled) / float64(len(rows))
	}
	cp.Type = dominant(classes)
	return cp
}

func classify(v workbook.Value) InferredType {
	switch v.Kind {
	case workbook.KindNumber:
		return TypeNumber
	case workbook.KindBool:
		return TypeBoolean
	case workbook.KindDate:
		return TypeDateLike
	}
	s := v.String()
	if dateLike.MatchString(s) {
		return TypeDateLike
	}
	if d, err := v.Decimal(); err == nil && d != nil {
		return TypeNumericString
	}
	return TypeString
}

// dominant picks the most frequent class; ties go to the more general one
func dominant(classes map[InferredType]int) InferredType {
	if len(classes) == 0 {
		return TypeNull
	}
	rank := map[InferredType]int{
		TypeNumber: 0, TypeBoolean: 1, TypeNumericString: 2, TypeDateLike: 3, TypeString: 4,
	}
	types := make([]InferredType, 0, len(classes))
	for t := range classes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if classes[types[i]] != classes[types[j]] {
			return classes[types[i]] > classes[types[j]]
		}
		return rank[types[i]] > rank[types[j]]
	})
	return types[0]
}
