package assignment

import (
	"errors"
	"strings"
	"testing"
)

func TestColumnMappingValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m := ColumnMapping{FieldTargetID: "tid", FieldEnumeratorID: "eid"}
		if err := m.Validate(FieldTargetID, FieldEnumeratorID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("duplicate_physical", func(t *testing.T) {
		m := ColumnMapping{FieldTargetID: "id", FieldEnumeratorID: "id"}
		err := m.Validate(FieldTargetID, FieldEnumeratorID)
		var mapErr *InvalidColumnMappingError
		if !errors.As(err, &mapErr) {
			t.Fatalf("want InvalidColumnMappingError, got %v", err)
		}
		if len(mapErr.Duplicates) != 1 || !strings.Contains(mapErr.Duplicates[0], `"id"`) {
			t.Fatalf("duplicates = %v", mapErr.Duplicates)
		}
	})

	t.Run("missing_required", func(t *testing.T) {
		m := ColumnMapping{FieldTargetID: "tid"}
		err := m.Validate(FieldTargetID, FieldEnumeratorID)
		var mapErr *InvalidColumnMappingError
		if !errors.As(err, &mapErr) {
			t.Fatalf("want InvalidColumnMappingError, got %v", err)
		}
	})
}

func TestNewBatch(t *testing.T) {
	mapping := ColumnMapping{FieldTargetID: "tid", FieldEnumeratorID: "eid"}

	t.Run("empty_file", func(t *testing.T) {
		_, err := NewBatch(nil, mapping)
		var headerErr *HeaderRowEmptyError
		if !errors.As(err, &headerErr) {
			t.Fatalf("want HeaderRowEmptyError, got %v", err)
		}
	})

	t.Run("blank_header", func(t *testing.T) {
		_, err := NewBatch([][]string{{"", "  "}}, mapping)
		var headerErr *HeaderRowEmptyError
		if !errors.As(err, &headerErr) {
			t.Fatalf("want HeaderRowEmptyError, got %v", err)
		}
	})

	t.Run("missing_and_repeated_columns", func(t *testing.T) {
		_, err := NewBatch([][]string{{"tid", "tid", "other"}}, mapping)
		var structErr *InvalidFileStructureError
		if !errors.As(err, &structErr) {
			t.Fatalf("want InvalidFileStructureError, got %v", err)
		}
		joined := strings.Join(structErr.Problems, "; ")
		if !strings.Contains(joined, `"tid" appears 2 times`) {
			t.Fatalf("repeated column not reported with count: %v", structErr.Problems)
		}
		if !strings.Contains(joined, `"eid" appears 0 times`) {
			t.Fatalf("missing column not reported: %v", structErr.Problems)
		}
	})

	t.Run("rows_and_numbering", func(t *testing.T) {
		batch, err := NewBatch([][]string{
			{"tid", "eid", "ignored"},
			{" T1 ", "E1", "x"},
			{"T2", "E2"},
		}, mapping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batch.Rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(batch.Rows))
		}
		if batch.Rows[0].Number != 2 || batch.Rows[1].Number != 3 {
			t.Fatalf("first data row must be row 2: %+v", batch.Rows)
		}
		if batch.Rows[0].Fields[FieldTargetID] != "T1" {
			t.Fatalf("fields must be trimmed, got %q", batch.Rows[0].Fields[FieldTargetID])
		}
	})
}

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV([]byte("tid,eid\nT1,E1\nT2,E2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 || records[1][0] != "T1" {
		t.Fatalf("got %v", records)
	}
}
