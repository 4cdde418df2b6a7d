package mapping

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestParseCriteria(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "all_three", raw: `["Location","Gender","Language"]`, want: 3},
		{name: "subset", raw: `["Gender"]`, want: 1},
		{name: "empty", raw: ``, want: 0},
		{name: "unknown", raw: `["Age"]`, wantErr: true},
		{name: "not_a_list", raw: `{"a":1}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCriteria(datatypes.JSON(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("want error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d criteria, want %d", len(got), tc.want)
			}
		})
	}
}

func TestValuesEqualIsPerCriterion(t *testing.T) {
	// "a|b" vs "a" + "b" split differently must not collide: equality is
	// criterion-by-criterion, never a joined string.
	a := Values{CriterionGender: "a|b", CriterionLanguage: "c"}
	b := Values{CriterionGender: "a", CriterionLanguage: "b|c"}
	if a.Equal(b) {
		t.Fatal("values with colliding concatenations must not be equal")
	}
	if a.key() == b.key() {
		t.Fatal("group keys must not collide either")
	}

	c := Values{CriterionLanguage: "c", CriterionGender: "a|b"}
	if !a.Equal(c) {
		t.Fatal("same pairs in any order must be equal")
	}

	d := Values{CriterionGender: "a|b"}
	if a.Equal(d) {
		t.Fatal("missing criterion must not be equal")
	}
}

func TestResolveValuesLocation(t *testing.T) {
	prime := uuid.New()
	district := uuid.New()
	village := uuid.New()
	loc := uuid.New()
	ancestry := map[uuid.UUID][]AncestorEntry{
		loc: {
			{GeoLevelUID: district, LocationID: "D01"},
			{GeoLevelUID: prime, LocationID: "B07"},
			{GeoLevelUID: village, LocationUID: loc, LocationID: "V99"},
		},
	}

	e := Entity{UID: uuid.New(), Gender: "Female", Language: "Hindi", LocationUID: &loc}
	values, err := ResolveValues([]Criterion{CriterionLocation, CriterionGender, CriterionLanguage}, e, &prime, ancestry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values[CriterionLocation] != "B07" {
		t.Fatalf("location value = %q, want prime level ancestor B07", values[CriterionLocation])
	}
	if values[CriterionGender] != "Female" || values[CriterionLanguage] != "Hindi" {
		t.Fatalf("verbatim criteria wrong: %v", values)
	}

	// no ancestor at prime level
	other := uuid.New()
	ancestry[other] = []AncestorEntry{{GeoLevelUID: village, LocationUID: other}}
	e.LocationUID = &other
	if _, err := ResolveValues([]Criterion{CriterionLocation}, e, &prime, ancestry); err == nil {
		t.Fatal("expected error when no ancestor sits at the prime geo level")
	}
}

func TestGroupByValues(t *testing.T) {
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	values := map[uuid.UUID]Values{
		u1: {CriterionGender: "Male"},
		u2: {CriterionGender: "Male"},
		u3: {CriterionGender: "Female"},
	}
	groups := GroupByValues(values)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	sizes := map[string]int{}
	for _, g := range groups {
		sizes[g.Values[CriterionGender]] = len(g.UIDs)
	}
	if sizes["Male"] != 2 || sizes["Female"] != 1 {
		t.Fatalf("wrong group sizes: %v", sizes)
	}
}
