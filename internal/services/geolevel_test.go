package services

import (
	"errors"
	"testing"
)

func TestReplaceGeoLevelsOrdersChainTopFirst(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	survey := env.seedSurvey(t, "household-2026")
	ctx := adminCtx(admin.ID)

	// Inputs arrive out of chain order; the saved rows come back ordered.
	saved, err := env.geoLevels.ReplaceGeoLevels(ctx, survey.ID, []GeoLevelInput{
		{Name: "District", ParentName: strPtr("State")},
		{Name: "Block", ParentName: strPtr("District")},
		{Name: "State"},
	})
	if err != nil {
		t.Fatalf("ReplaceGeoLevels: %v", err)
	}
	want := []string{"State", "District", "Block"}
	if len(saved) != len(want) {
		t.Fatalf("saved %d levels, want %d", len(saved), len(want))
	}
	for i, name := range want {
		if saved[i].Name != name {
			t.Fatalf("saved[%d] = %q, want %q", i, saved[i].Name, name)
		}
	}
	if saved[0].ParentGeoLevelUID != nil {
		t.Fatalf("top level should have no parent")
	}
	if saved[1].ParentGeoLevelUID == nil || *saved[1].ParentGeoLevelUID != saved[0].ID {
		t.Fatalf("District should parent to State")
	}

	listed, err := env.geoLevels.ListGeoLevels(ctx, survey.ID)
	if err != nil {
		t.Fatalf("ListGeoLevels: %v", err)
	}
	for i, name := range want {
		if listed[i].Name != name {
			t.Fatalf("listed[%d] = %q, want %q", i, listed[i].Name, name)
		}
	}
}

func TestReplaceGeoLevelsReplacesPreviousChain(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	survey := env.seedSurvey(t, "household-2026")
	ctx := adminCtx(admin.ID)

	if _, err := env.geoLevels.ReplaceGeoLevels(ctx, survey.ID, []GeoLevelInput{
		{Name: "State"},
		{Name: "District", ParentName: strPtr("State")},
		{Name: "Block", ParentName: strPtr("District")},
	}); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if _, err := env.geoLevels.ReplaceGeoLevels(ctx, survey.ID, []GeoLevelInput{
		{Name: "Region"},
		{Name: "Village", ParentName: strPtr("Region")},
	}); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	listed, err := env.geoLevels.ListGeoLevels(ctx, survey.ID)
	if err != nil {
		t.Fatalf("ListGeoLevels: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d levels after replace, want 2", len(listed))
	}
	if listed[0].Name != "Region" || listed[1].Name != "Village" {
		t.Fatalf("unexpected chain after replace: %q, %q", listed[0].Name, listed[1].Name)
	}
}

func TestReplaceGeoLevelsReportsChainProblems(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	survey := env.seedSurvey(t, "household-2026")
	ctx := adminCtx(admin.ID)

	// Two roots and a branch: every problem comes back together, nothing
	// is persisted.
	_, err := env.geoLevels.ReplaceGeoLevels(ctx, survey.ID, []GeoLevelInput{
		{Name: "State"},
		{Name: "Region"},
		{Name: "District", ParentName: strPtr("State")},
		{Name: "Block", ParentName: strPtr("State")},
	})
	var hierarchyErr *HierarchyError
	if !errors.As(err, &hierarchyErr) {
		t.Fatalf("expected *HierarchyError, got %v", err)
	}
	if len(hierarchyErr.Errors) == 0 {
		t.Fatalf("expected at least one problem")
	}

	listed, err := env.geoLevels.ListGeoLevels(ctx, survey.ID)
	if err != nil {
		t.Fatalf("ListGeoLevels: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("invalid batch persisted %d levels", len(listed))
	}
}

func TestReplaceGeoLevelsRejectsUnknownParent(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "Asha", "Rao")
	survey := env.seedSurvey(t, "household-2026")

	_, err := env.geoLevels.ReplaceGeoLevels(adminCtx(admin.ID), survey.ID, []GeoLevelInput{
		{Name: "District", ParentName: strPtr("State")},
	})
	if err == nil {
		t.Fatalf("expected error for unknown parent name")
	}
}
