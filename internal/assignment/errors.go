package assignment

import (
	"fmt"
	"strings"
)

// HeaderRowEmptyError: the uploaded file has no header columns.
type HeaderRowEmptyError struct{}

func (*HeaderRowEmptyError) Error() string {
	return "uploaded file has an empty header row"
}

// InvalidColumnMappingError: the supplied column mapping repeats a logical
// field or a physical column. Every duplicate is listed.
type InvalidColumnMappingError struct {
	Duplicates []string
}

func (e *InvalidColumnMappingError) Error() string {
	return fmt.Sprintf("invalid column mapping: %s", strings.Join(e.Duplicates, "; "))
}

// InvalidFileStructureError: a mapped column is missing from the file or
// appears more than once. Structure problems are reported before any
// record-level check runs.
type InvalidFileStructureError struct {
	Problems []string
}

func (e *InvalidFileStructureError) Error() string {
	return fmt.Sprintf("invalid file structure: %s", strings.Join(e.Problems, "; "))
}

// RecordErrorSummary is the top-level tally of a failed record validation.
type RecordErrorSummary struct {
	TotalRows           int `json:"total_rows"`
	TotalCorrectRows    int `json:"total_correct_rows"`
	TotalRowsWithErrors int `json:"total_rows_with_errors"`
}

// CategorySummary is one error category with the 1-indexed data-row
// numbers it covers (the header is row 1, so the first data row is 2).
type CategorySummary struct {
	ErrorType  string `json:"error_type"`
	Message    string `json:"error_message"`
	Count      int    `json:"error_count"`
	RowNumbers []int  `json:"row_numbers_with_errors"`
}

// InvalidRecords carries every failing row, each with its concatenated
// per-row error text under the "errors" key.
type InvalidRecords struct {
	OrderedColumns []string            `json:"ordered_columns"`
	Records        []map[string]string `json:"records"`
}

// InvalidRecordsError is raised instead of persisting anything when any
// record-level category is non-empty.
type InvalidRecordsError struct {
	Summary            RecordErrorSummary `json:"summary"`
	SummaryByErrorType []CategorySummary  `json:"summary_by_error_type"`
	InvalidRecords     InvalidRecords     `json:"invalid_records"`
}

func (e *InvalidRecordsError) Error() string {
	return fmt.Sprintf("assignment records failed validation: %d of %d rows have errors",
		e.Summary.TotalRowsWithErrors, e.Summary.TotalRows)
}
