package assignment

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Logical fields an assignments upload must map.
const (
	FieldTargetID     = "target_id"
	FieldEnumeratorID = "enumerator_id"
)

// ColumnMapping maps logical fields to physical column names in the
// uploaded file.
type ColumnMapping map[string]string

// Validate rejects mappings that repeat a physical column or miss a
// required logical field. Logical fields are map keys and cannot repeat
// by construction; physical duplicates are all listed.
func (m ColumnMapping) Validate(required ...string) error {
	var duplicates []string
	byPhysical := make(map[string][]string, len(m))
	for logical, physical := range m {
		byPhysical[physical] = append(byPhysical[physical], logical)
	}
	for physical, logicals := range byPhysical {
		if len(logicals) > 1 {
			sort.Strings(logicals)
			duplicates = append(duplicates, fmt.Sprintf("column %q mapped by %d fields: %v", physical, len(logicals), logicals))
		}
	}
	for _, logical := range required {
		if strings.TrimSpace(m[logical]) == "" {
			duplicates = append(duplicates, fmt.Sprintf("required field %q has no column mapped", logical))
		}
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return &InvalidColumnMappingError{Duplicates: duplicates}
	}
	return nil
}

// Row is one data row keyed by logical field. Number is the row's position
// in the file, 1-indexed and offset by the header: the first data row is 2.
type Row struct {
	Number int
	Fields map[string]string
}

// Batch is a parsed, structure-validated upload.
type Batch struct {
	Columns []string // physical header order
	Rows    []Row
}

// ParseCSV reads decoded CSV text into raw records. Ragged rows are
// tolerated; structure validation decides what is usable.
func ParseCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv file: %w", err)
	}
	return records, nil
}

// ParseXLSX reads the first sheet of an xlsx upload into raw records.
func ParseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	return rows, nil
}

// NewBatch validates the file structure against the column mapping and
// projects raw records onto logical fields. Every mapped column must
// appear in the header exactly once.
func NewBatch(records [][]string, columns ColumnMapping) (*Batch, error) {
	if len(records) == 0 {
		return nil, &HeaderRowEmptyError{}
	}
	header := records[0]
	empty := true
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			empty = false
			break
		}
	}
	if empty {
		return nil, &HeaderRowEmptyError{}
	}

	headerCount := make(map[string]int, len(header))
	headerIndex := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		headerCount[name]++
		headerIndex[name] = i
	}

	var problems []string
	for _, physical := range columns {
		switch c := headerCount[physical]; c {
		case 1:
		case 0:
			problems = append(problems, fmt.Sprintf("column %q appears 0 times in the file", physical))
		default:
			problems = append(problems, fmt.Sprintf("column %q appears %d times in the file", physical, c))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &InvalidFileStructureError{Problems: problems}
	}

	batch := &Batch{Columns: header}
	for i, record := range records[1:] {
		fields := make(map[string]string, len(columns))
		for logical, physical := range columns {
			idx := headerIndex[physical]
			if idx < len(record) {
				fields[logical] = strings.TrimSpace(record[idx])
			} else {
				fields[logical] = ""
			}
		}
		batch.Rows = append(batch.Rows, Row{Number: i + 2, Fields: fields})
	}
	return batch, nil
}
