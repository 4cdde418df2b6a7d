package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/mapping"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

// mappingFixture seeds a survey with a two-role chain, one coordinator,
// three bottom-level supervisors (one F, two M) and a form mapping on
// Gender alone.
type mappingFixture struct {
	survey *types.Survey
	form   *types.Form
	s1     *types.User // gender F, unique key holder
	s2     *types.User // gender M
	s3     *types.User // gender M
}

func seedMappingFixture(t *testing.T, env *testEnv, admin *types.User) *mappingFixture {
	t.Helper()
	survey := env.seedSurvey(t, "household-2026")
	ctx := adminCtx(admin.ID)

	roles, err := env.roles.ReplaceRoles(ctx, survey.ID, []RoleInput{
		{Name: "Coordinator"},
		{Name: "Supervisor", ReportingRoleName: strPtr("Coordinator")},
	})
	if err != nil {
		t.Fatalf("ReplaceRoles: %v", err)
	}
	coordinatorRole, supervisorRole := roles[0], roles[1]

	coordinator := env.seedUser(t, "Meera", "Iyer")
	s1 := env.seedUser(t, "Ravi", "Kumar")
	s2 := env.seedUser(t, "Sana", "Shah")
	s3 := env.seedUser(t, "Nina", "Das")
	env.seedHierarchyEntry(t, survey.ID, coordinator, coordinatorRole.ID, nil, "")
	env.seedHierarchyEntry(t, survey.ID, s1, supervisorRole.ID, &coordinator.ID, "F")
	env.seedHierarchyEntry(t, survey.ID, s2, supervisorRole.ID, &coordinator.ID, "M")
	env.seedHierarchyEntry(t, survey.ID, s3, supervisorRole.ID, &coordinator.ID, "M")

	form := env.seedForm(t, survey.ID, `["Gender"]`)
	return &mappingFixture{survey: survey, form: form, s1: s1, s2: s2, s3: s3}
}

func TestGetTargetsMappingFlagsAmbiguousKeys(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	fx := seedMappingFixture(t, env, admin)
	ctx := adminCtx(admin.ID)

	targetF := env.seedTarget(t, fx.form.ID, "T-F", "F")
	targetM := env.seedTarget(t, fx.form.ID, "T-M", "M")

	rows, err := env.mappings.GetTargetsMapping(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("GetTargetsMapping: %v", err)
	}
	byTarget := make(map[uuid.UUID]TargetMappingRow, len(rows))
	for _, row := range rows {
		byTarget[row.Target.ID] = row
	}

	rowF := byTarget[targetF.ID]
	if rowF.SupervisorCount != 1 || rowF.Pending {
		t.Fatalf("F target: count=%d pending=%v, want singleton not pending", rowF.SupervisorCount, rowF.Pending)
	}
	rowM := byTarget[targetM.ID]
	if rowM.SupervisorCount != 2 || !rowM.Pending {
		t.Fatalf("M target: count=%d pending=%v, want 2 candidates pending", rowM.SupervisorCount, rowM.Pending)
	}
}

func TestGenerateMappingsMapsSingletonKeysOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	fx := seedMappingFixture(t, env, admin)
	ctx := adminCtx(admin.ID)

	targetF := env.seedTarget(t, fx.form.ID, "T-F", "F")
	env.seedTarget(t, fx.form.ID, "T-M", "M")

	pairs, err := env.mappings.GenerateMappings(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("GenerateMappings: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("generated %d pairs, want 1 (ambiguous keys stay pending)", len(pairs))
	}
	if pairs[0].TargetUID != targetF.ID || pairs[0].UserID != fx.s1.ID {
		t.Fatalf("generated pair %v, want %s -> %s", pairs[0], targetF.ID, fx.s1.ID)
	}

	supervisors, err := env.mappings.TargetSupervisors(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("TargetSupervisors: %v", err)
	}
	if got := supervisors[targetF.ID]; got != fx.s1.ID {
		t.Fatalf("persisted supervisor = %s, want %s", got, fx.s1.ID)
	}

	// A second run resolves identically and upserts in place.
	again, err := env.mappings.GenerateMappings(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("GenerateMappings (second run): %v", err)
	}
	if len(again) != 1 || again[0] != pairs[0] {
		t.Fatalf("second run produced %v, want %v", again, pairs)
	}
}

func TestGenerateMappingsAppliesConfigOverrides(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	fx := seedMappingFixture(t, env, admin)
	ctx := adminCtx(admin.ID)

	targetM := env.seedTarget(t, fx.form.ID, "T-M", "M")

	saved, err := env.mappings.PutConfig(ctx, fx.form.ID, types.MappingTypeTarget, []MappingConfigInput{
		// Identity rows carry no information and are dropped.
		{
			MappingValues: mapping.Values{mapping.CriterionGender: "F"},
			MappedTo:      mapping.Values{mapping.CriterionGender: "F"},
		},
		{
			MappingValues: mapping.Values{mapping.CriterionGender: "M"},
			MappedTo:      mapping.Values{mapping.CriterionGender: "F"},
		},
	})
	if err != nil {
		t.Fatalf("PutConfig: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved %d config rows, want 1 after dropping the identity row", len(saved))
	}

	pairs, err := env.mappings.GenerateMappings(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("GenerateMappings: %v", err)
	}
	if len(pairs) != 1 || pairs[0].TargetUID != targetM.ID || pairs[0].UserID != fx.s1.ID {
		t.Fatalf("override should route the M target to the F supervisor, got %v", pairs)
	}

	// Deleting the config restores the ambiguous key.
	if err := env.mappings.DeleteConfig(ctx, fx.form.ID, types.MappingTypeTarget); err != nil {
		t.Fatalf("DeleteConfig: %v", err)
	}
	rows, err := env.mappings.GetConfig(ctx, fx.form.ID, types.MappingTypeTarget)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("config rows remain after delete: %d", len(rows))
	}
}

func TestSaveManualMappingsValidatesAgainstResolvedKeys(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	fx := seedMappingFixture(t, env, admin)
	ctx := adminCtx(admin.ID)

	targetM := env.seedTarget(t, fx.form.ID, "T-M", "M")

	// Mismatched values: the whole batch is rejected, nothing persists.
	violations, err := env.mappings.SaveManualMappings(ctx, fx.form.ID, []mapping.Pair{
		{TargetUID: targetM.ID, UserID: fx.s1.ID},
	})
	if err != nil {
		t.Fatalf("SaveManualMappings: %v", err)
	}
	if len(violations) == 0 {
		t.Fatalf("expected a violation for mismatched mapping values")
	}
	supervisors, err := env.mappings.TargetSupervisors(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("TargetSupervisors: %v", err)
	}
	if len(supervisors) != 0 {
		t.Fatalf("rejected batch persisted %d mappings", len(supervisors))
	}

	// A manual pick among matching candidates resolves the ambiguity.
	violations, err = env.mappings.SaveManualMappings(ctx, fx.form.ID, []mapping.Pair{
		{TargetUID: targetM.ID, UserID: fx.s2.ID},
	})
	if err != nil {
		t.Fatalf("SaveManualMappings (valid): %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	supervisors, err = env.mappings.TargetSupervisors(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("TargetSupervisors: %v", err)
	}
	if got := supervisors[targetM.ID]; got != fx.s2.ID {
		t.Fatalf("persisted supervisor = %s, want %s", got, fx.s2.ID)
	}
}

func TestEnumeratorSupervisorsResolveSingletonKeys(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	fx := seedMappingFixture(t, env, admin)
	ctx := adminCtx(admin.ID)

	enumF := env.seedEnumerator(t, fx.form.ID, "E-F", "F", types.EnumeratorStatusActive)
	enumM := env.seedEnumerator(t, fx.form.ID, "E-M", "M", types.EnumeratorStatusActive)

	resolved, err := env.mappings.EnumeratorSupervisors(ctx, fx.form.ID)
	if err != nil {
		t.Fatalf("EnumeratorSupervisors: %v", err)
	}
	if got := resolved[enumF.ID]; got != fx.s1.ID {
		t.Fatalf("F enumerator resolves to %s, want %s", got, fx.s1.ID)
	}
	if _, ok := resolved[enumM.ID]; ok {
		t.Fatalf("ambiguous enumerator key should stay unresolved")
	}
}
