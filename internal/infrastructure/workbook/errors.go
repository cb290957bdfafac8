package workbook

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeRequiredField     = "ERR_SHEET_REQUIRED_FIELD"
	ErrCodeInvalidType       = "ERR_SHEET_INVALID_TYPE"
	ErrCodeInvalidDate       = "ERR_SHEET_INVALID_DATE"
	ErrCodeValidation        = "ERR_SHEET_VALIDATION"
	ErrCodeReferenceNotFound = "ERR_SHEET_REFERENCE_NOT_FOUND"
	ErrCodeConflict          = "ERR_SHEET_CONFLICT"
)

// Workbook level errors. All of them are fatal to a run.
var (
	ErrUnreadable   = errors.New("workbook cannot be read")
	ErrMissingSheet = errors.New("workbook sheet not found")
	ErrNoHeader     = errors.New("sheet has no header row")
)

// RowError describes a problem with one sheet row. Row is the 1-based sheet
// row number as a spreadsheet user sees it.
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s row %d, column '%s': %s", e.Sheet, e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(sheet string, row int, column, code, message string) RowError {
	return RowError{
		Sheet:   sheet,
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	}
}

// NewRowErrorWithValue creates a new RowError with the offending value
func NewRowErrorWithValue(sheet string, row int, column, code, message, value string) RowError {
	e := NewRowError(sheet, row, column, code, message)
	e.Value = value
	return e
}

// ErrorCollection keeps the first maxErrors row errors and counts the rest
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0, min(maxErrors, 16)),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequiredError adds a missing required field error
func (ec *ErrorCollection) AddRequiredError(sheet string, row int, column string) {
	ec.Add(NewRowError(sheet, row, column, ErrCodeRequiredField, fmt.Sprintf("field '%s' is required", column)))
}

// AddTypeError adds a type conversion error
func (ec *ErrorCollection) AddTypeError(sheet string, row int, column, expectedType, value string) {
	ec.Add(NewRowErrorWithValue(sheet, row, column, ErrCodeInvalidType,
		fmt.Sprintf("expected %s", expectedType), value))
}

// AddDateError adds an undecodable date error
func (ec *ErrorCollection) AddDateError(sheet string, row int, column, value string) {
	ec.Add(NewRowErrorWithValue(sheet, row, column, ErrCodeInvalidDate, "date cannot be decoded", value))
}

// AddReferenceError adds a reference not found error
func (ec *ErrorCollection) AddReferenceError(sheet string, row int, column, value, refType string) {
	ec.Add(NewRowErrorWithValue(sheet, row, column, ErrCodeReferenceNotFound,
		fmt.Sprintf("%s '%s' not found", refType, value), value))
}

// Merge appends all errors kept by other and carries its overflow count
func (ec *ErrorCollection) Merge(other *ErrorCollection) {
	if other == nil {
		return
	}
	for _, e := range other.errors {
		ec.Add(e)
	}
	ec.totalCount += other.totalCount - len(other.errors)
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// Count returns the number of collected errors (up to maxErrors)
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// TotalCount returns the total number of errors including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were not collected due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > len(ec.errors)
}

// ErrorSummary returns a summary of collected errors by code
func (ec *ErrorCollection) ErrorSummary() map[string]int {
	summary := make(map[string]int)
	for _, err := range ec.errors {
		summary[err.Code]++
	}
	return summary
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", len(ec.errors))
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}
