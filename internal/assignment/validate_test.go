package assignment

import (
	"testing"

	"github.com/google/uuid"
)

func baseContext() (RecordContext, uuid.UUID) {
	supervisor := uuid.New()
	t1 := TargetInfo{UID: uuid.New(), Assignable: true}
	e1 := EnumeratorInfo{UID: uuid.New(), Status: "Active"}
	return RecordContext{
		Targets:            map[string]TargetInfo{"T1": t1},
		Enumerators:        map[string]EnumeratorInfo{"E1": e1},
		VisibleSupervisors: map[uuid.UUID]bool{supervisor: true},
		TargetSupervisor:   map[uuid.UUID]uuid.UUID{t1.UID: supervisor},
		EnumeratorSupervisor: map[uuid.UUID]uuid.UUID{
			e1.UID: supervisor,
		},
	}, supervisor
}

func makeBatch(rows ...[2]string) *Batch {
	b := &Batch{Columns: []string{"tid", "eid"}}
	for i, r := range rows {
		b.Rows = append(b.Rows, Row{
			Number: i + 2,
			Fields: map[string]string{FieldTargetID: r[0], FieldEnumeratorID: r[1]},
		})
	}
	return b
}

func categories(err *InvalidRecordsError) map[string][]int {
	out := map[string][]int{}
	if err == nil {
		return out
	}
	for _, s := range err.SummaryByErrorType {
		out[s.ErrorType] = s.RowNumbers
	}
	return out
}

func TestValidateRecordsClean(t *testing.T) {
	rc, _ := baseContext()
	if err := ValidateRecords(makeBatch([2]string{"T1", "E1"}), rc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRecordsDuplicateRowsOnly(t *testing.T) {
	// two identical valid rows: exactly one category, covering both rows
	rc, _ := baseContext()
	err := ValidateRecords(makeBatch([2]string{"T1", "E1"}, [2]string{"T1", "E1"}), rc)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	cats := categories(err)
	if len(cats) != 1 {
		t.Fatalf("want only the duplicate-rows category, got %v", cats)
	}
	rows := cats[CategoryDuplicateRows]
	if len(rows) != 2 || rows[0] != 2 || rows[1] != 3 {
		t.Fatalf("duplicate rows = %v, want [2 3]", rows)
	}
}

func TestValidateRecordsBlankField(t *testing.T) {
	// blank target_id lands in Blank field and nothing else
	rc, _ := baseContext()
	err := ValidateRecords(makeBatch([2]string{"", "E1"}), rc)
	cats := categories(err)
	if len(cats) != 1 || len(cats[CategoryBlankField]) != 1 {
		t.Fatalf("want only Blank field, got %v", cats)
	}
}

func TestValidateRecordsBothFieldsBlank(t *testing.T) {
	// a row missing both ids is one affected row, reported once
	rc, _ := baseContext()
	err := ValidateRecords(makeBatch([2]string{"", ""}), rc)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if len(err.SummaryByErrorType) != 1 {
		t.Fatalf("want only Blank field, got %+v", err.SummaryByErrorType)
	}
	summary := err.SummaryByErrorType[0]
	if summary.ErrorType != CategoryBlankField || summary.Count != 1 {
		t.Fatalf("summary = %+v, want Blank field count 1", summary)
	}
	if len(summary.RowNumbers) != 1 || summary.RowNumbers[0] != 2 {
		t.Fatalf("rows = %v, want [2]", summary.RowNumbers)
	}
	if len(err.InvalidRecords.Records) != 1 {
		t.Fatalf("invalid records = %d, want 1", len(err.InvalidRecords.Records))
	}
	if got := err.InvalidRecords.Records[0]["errors"]; got != categoryMessage[CategoryBlankField] {
		t.Fatalf("record errors = %q, want the message once", got)
	}
}

func TestValidateRecordsDuplicateTargets(t *testing.T) {
	// same target on two distinct rows
	rc, _ := baseContext()
	rc.Enumerators["E2"] = EnumeratorInfo{UID: uuid.New(), Status: "Active"}
	err := ValidateRecords(makeBatch([2]string{"T1", "E1"}, [2]string{"T1", "E2"}), rc)
	cats := categories(err)
	if rows := cats[CategoryDuplicateTargets]; len(rows) != 2 {
		t.Fatalf("duplicate targets = %v, want both rows", cats)
	}
	if _, ok := cats[CategoryDuplicateRows]; ok {
		t.Fatalf("distinct rows must not be duplicate rows: %v", cats)
	}
}

func TestValidateRecordsEveryCategoryTagsRows(t *testing.T) {
	rc, supervisor := baseContext()
	otherSupervisor := uuid.New()

	// T2 not assignable, mapped fine
	t2 := TargetInfo{UID: uuid.New(), Assignable: false}
	rc.Targets["T2"] = t2
	rc.TargetSupervisor[t2.UID] = supervisor
	// T3 mapped to a supervisor the caller cannot see
	t3 := TargetInfo{UID: uuid.New(), Assignable: true}
	rc.Targets["T3"] = t3
	rc.TargetSupervisor[t3.UID] = otherSupervisor
	// E2 is a dropout; E3 reports to a different supervisor
	rc.Enumerators["E2"] = EnumeratorInfo{UID: uuid.New(), Status: "Dropout"}
	e3 := EnumeratorInfo{UID: uuid.New(), Status: "Active"}
	rc.Enumerators["E3"] = e3
	visible2 := uuid.New()
	rc.VisibleSupervisors[visible2] = true
	rc.EnumeratorSupervisor[e3.UID] = visible2

	err := ValidateRecords(makeBatch(
		[2]string{"T9", "E1"}, // row 2: invalid target
		[2]string{"T2", "E1"}, // row 3: not assignable
		[2]string{"T1", "E9"}, // row 4: invalid enumerator
		[2]string{"T1", "E2"}, // row 5: dropout (and duplicate target with rows 4/6)
		[2]string{"T3", "E1"}, // row 6: not mapped for caller
		[2]string{"T1", "E3"}, // row 7: incorrectly mapped
	), rc)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	cats := categories(err)

	expect := map[string][]int{
		CategoryInvalidTargets:    {2},
		CategoryNotAssignable:     {3},
		CategoryInvalidEnums:      {4},
		CategoryDropoutEnums:      {5},
		CategoryNotMapped:         {6},
		CategoryIncorrectlyMapped: {7},
		CategoryDuplicateTargets:  {4, 5, 7},
	}
	for category, rows := range expect {
		got := cats[category]
		if len(got) != len(rows) {
			t.Fatalf("%s rows = %v, want %v (all: %v)", category, got, rows, cats)
		}
		for i := range rows {
			if got[i] != rows[i] {
				t.Fatalf("%s rows = %v, want %v", category, got, rows)
			}
		}
	}

	if err.Summary.TotalRows != 6 || err.Summary.TotalRowsWithErrors != 6 || err.Summary.TotalCorrectRows != 0 {
		t.Fatalf("summary = %+v", err.Summary)
	}
	if len(err.InvalidRecords.Records) != 6 {
		t.Fatalf("invalid records = %d, want 6", len(err.InvalidRecords.Records))
	}
	for _, record := range err.InvalidRecords.Records {
		if record["errors"] == "" {
			t.Fatalf("record missing concatenated errors: %v", record)
		}
	}
}

func TestValidateRecordsUnmappedTarget(t *testing.T) {
	// a target with no supervisor mapping at all is "not mapped"
	rc, _ := baseContext()
	orphan := TargetInfo{UID: uuid.New(), Assignable: true}
	rc.Targets["T4"] = orphan

	err := ValidateRecords(makeBatch([2]string{"T4", "E1"}), rc)
	cats := categories(err)
	if rows := cats[CategoryNotMapped]; len(rows) != 1 || rows[0] != 2 {
		t.Fatalf("got %v, want Not mapped on row 2", cats)
	}
}

func TestClassifyCounts(t *testing.T) {
	e1, e2 := uuid.New(), uuid.New()

	var c Counts
	c.Add(Classify(nil, e1))
	c.Add(Classify(&e1, e1))
	c.Add(Classify(&e1, e2))
	if c.New != 1 || c.Unchanged != 1 || c.Reassigned != 1 || c.Total != 3 {
		t.Fatalf("counts = %+v", c)
	}
}
