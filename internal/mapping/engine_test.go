package mapping

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateMappings(t *testing.T) {
	sup1 := Supervisor{UserID: uuid.New(), Values: Values{CriterionGender: "Female"}}
	sup2 := Supervisor{UserID: uuid.New(), Values: Values{CriterionGender: "Male"}}
	sup3 := Supervisor{UserID: uuid.New(), Values: Values{CriterionGender: "Male"}}

	t1, t2, t3, t4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	targets := map[uuid.UUID]Values{
		t1: {CriterionGender: "Female"},
		t2: {CriterionGender: "Male"},   // ambiguous: sup2 and sup3
		t3: {CriterionGender: "Other"},  // no supervisor
		t4: {CriterionGender: "Female"},
	}

	pairs := GenerateMappings(targets, []Supervisor{sup1, sup2, sup3})
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2 (ambiguous and unmatched targets omitted): %v", len(pairs), pairs)
	}
	for _, p := range pairs {
		if p.TargetUID != t1 && p.TargetUID != t4 {
			t.Fatalf("target %s should not have been mapped", p.TargetUID)
		}
		if p.UserID != sup1.UserID {
			t.Fatalf("target mapped to %s, want %s", p.UserID, sup1.UserID)
		}
	}
	_ = t2
	_ = t3
}

func TestGenerateMappingsIdempotent(t *testing.T) {
	sups := []Supervisor{
		{UserID: uuid.New(), Values: Values{CriterionLanguage: "Swahili"}},
		{UserID: uuid.New(), Values: Values{CriterionLanguage: "Luo"}},
	}
	targets := map[uuid.UUID]Values{}
	for i := 0; i < 20; i++ {
		lang := "Swahili"
		if i%2 == 0 {
			lang = "Luo"
		}
		targets[uuid.New()] = Values{CriterionLanguage: lang}
	}

	first := GenerateMappings(targets, sups)
	second := GenerateMappings(targets, sups)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("generate must be idempotent on unchanged data")
	}
	if len(first) != 20 {
		t.Fatalf("got %d pairs, want 20", len(first))
	}
}

func TestResolveMappedTo(t *testing.T) {
	supValues := Values{CriterionLocation: "D1"}
	sups := []Supervisor{{UserID: uuid.New(), Values: supValues}}
	override := Override{
		From: Values{CriterionLocation: "D2"},
		To:   Values{CriterionLocation: "D1"},
	}

	t.Run("override_applies_without_natural_supervisor", func(t *testing.T) {
		got := ResolveMappedTo(Values{CriterionLocation: "D2"}, []Override{override}, sups)
		if !got.Equal(Values{CriterionLocation: "D1"}) {
			t.Fatalf("got %v, want the override target", got)
		}
	})

	t.Run("override_excluded_once_supervisor_exists", func(t *testing.T) {
		withD2 := append(sups, Supervisor{UserID: uuid.New(), Values: Values{CriterionLocation: "D2"}})
		got := ResolveMappedTo(Values{CriterionLocation: "D2"}, []Override{override}, withD2)
		if !got.Equal(Values{CriterionLocation: "D2"}) {
			t.Fatalf("got %v, want the natural key once a real supervisor holds it", got)
		}
	})

	t.Run("no_override_no_change", func(t *testing.T) {
		got := ResolveMappedTo(Values{CriterionLocation: "D3"}, []Override{override}, sups)
		if !got.Equal(Values{CriterionLocation: "D3"}) {
			t.Fatalf("got %v, want unchanged values", got)
		}
	})
}

func TestValidateManualPairs(t *testing.T) {
	target := uuid.New()
	ghost := uuid.New()
	supervisor := uuid.New()
	wrongSupervisor := uuid.New()

	targets := map[uuid.UUID]Values{target: {CriterionGender: "Female"}}
	supervisors := map[uuid.UUID]Values{
		supervisor:      {CriterionGender: "Female"},
		wrongSupervisor: {CriterionGender: "Male"},
	}

	pairs := []Pair{
		{TargetUID: target, UserID: supervisor},       // ok
		{TargetUID: target, UserID: wrongSupervisor},  // duplicate target
		{TargetUID: ghost, UserID: supervisor},        // target not found
		{TargetUID: uuid.New(), UserID: uuid.New()},   // both missing
	}

	violations := ValidateManualPairs(pairs, targets, supervisors)

	counts := map[ViolationType]int{}
	for _, v := range violations {
		counts[v.Type]++
	}
	if counts[ViolationDuplicateTarget] != 1 {
		t.Fatalf("duplicate target count = %d: %v", counts[ViolationDuplicateTarget], violations)
	}
	if counts[ViolationTargetNotFound] != 2 {
		t.Fatalf("target not found count = %d: %v", counts[ViolationTargetNotFound], violations)
	}
	if counts[ViolationSupervisorNotFound] != 1 {
		t.Fatalf("supervisor not found count = %d: %v", counts[ViolationSupervisorNotFound], violations)
	}
}

func TestValidateManualPairsCriteriaViolation(t *testing.T) {
	target := uuid.New()
	supervisor := uuid.New()
	targets := map[uuid.UUID]Values{target: {CriterionGender: "Female", CriterionLanguage: "Hindi"}}
	supervisors := map[uuid.UUID]Values{supervisor: {CriterionGender: "Female", CriterionLanguage: "Tamil"}}

	violations := ValidateManualPairs([]Pair{{TargetUID: target, UserID: supervisor}}, targets, supervisors)
	if len(violations) != 1 || violations[0].Type != ViolationCriteria {
		t.Fatalf("got %v, want one MappingCriteriaViolation", violations)
	}
}
