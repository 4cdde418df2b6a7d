package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Criterion is one configured mapping attribute. A form declares an ordered
// subset of these; targets and supervisors match when their values agree on
// every configured criterion.
type Criterion string

const (
	CriterionLocation Criterion = "Location"
	CriterionGender   Criterion = "Gender"
	CriterionLanguage Criterion = "Language"
)

// ParseCriteria decodes a form's configured criteria list from its jsonb
// column and rejects unknown entries.
func ParseCriteria(raw datatypes.JSON) ([]Criterion, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("invalid mapping criteria config: %w", err)
	}
	criteria := make([]Criterion, 0, len(names))
	for _, name := range names {
		c := Criterion(name)
		switch c {
		case CriterionLocation, CriterionGender, CriterionLanguage:
			criteria = append(criteria, c)
		default:
			return nil, fmt.Errorf("unknown mapping criterion %q", name)
		}
	}
	return criteria, nil
}

// Values is an entity's resolved value per configured criterion.
// Comparison is always criterion-by-criterion; values are never
// concatenated into a single string, so delimiter collisions cannot
// produce false matches.
type Values map[Criterion]string

func (v Values) Equal(other Values) bool {
	if len(v) != len(other) {
		return false
	}
	for c, val := range v {
		o, ok := other[c]
		if !ok || o != val {
			return false
		}
	}
	return true
}

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for c, val := range v {
		out[c] = val
	}
	return out
}

// MarshalJSON keeps the jsonb representation a plain object keyed by
// criterion name.
func (v Values) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(v))
	for c, val := range v {
		out[string(c)] = val
	}
	return json.Marshal(out)
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for name, val := range raw {
		out[Criterion(name)] = val
	}
	*v = out
	return nil
}

// ValuesFromJSON decodes a stored criteria-value object (mapping config
// rows).
func ValuesFromJSON(raw datatypes.JSON) (Values, error) {
	var v Values
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid criteria values: %w", err)
	}
	return v, nil
}

// groupKey is a comparable projection of Values used as a map key when
// grouping entities. One field per criterion plus a presence flag; no
// string joining.
type groupKey struct {
	hasLocation bool
	location    string
	hasGender   bool
	gender      string
	hasLanguage bool
	language    string
}

func (v Values) key() groupKey {
	var k groupKey
	if val, ok := v[CriterionLocation]; ok {
		k.hasLocation, k.location = true, val
	}
	if val, ok := v[CriterionGender]; ok {
		k.hasGender, k.gender = true, val
	}
	if val, ok := v[CriterionLanguage]; ok {
		k.hasLanguage, k.language = true, val
	}
	return k
}

// Entity is the slice of a target or enumerator/supervisor row that
// criteria resolution needs.
type Entity struct {
	UID         uuid.UUID
	Gender      string
	Language    string
	LocationUID *uuid.UUID
}

// ResolveValues computes an entity's criteria-value object. Location
// resolves through the entity's ancestor chain to the survey's prime geo
// level; Gender and Language are taken verbatim.
func ResolveValues(criteria []Criterion, e Entity, primeGeoLevelUID *uuid.UUID, ancestry map[uuid.UUID][]AncestorEntry) (Values, error) {
	values := make(Values, len(criteria))
	for _, c := range criteria {
		switch c {
		case CriterionGender:
			values[CriterionGender] = e.Gender
		case CriterionLanguage:
			values[CriterionLanguage] = e.Language
		case CriterionLocation:
			if e.LocationUID == nil {
				values[CriterionLocation] = ""
				continue
			}
			if primeGeoLevelUID == nil {
				return nil, fmt.Errorf("location criterion configured but survey has no prime geo level")
			}
			chain, ok := ancestry[*e.LocationUID]
			if !ok {
				return nil, fmt.Errorf("entity %s: location %s has no resolved ancestry", e.UID, e.LocationUID)
			}
			found := false
			for _, entry := range chain {
				if entry.GeoLevelUID == *primeGeoLevelUID {
					values[CriterionLocation] = entry.LocationID
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("entity %s: location %s has no ancestor at the prime geo level", e.UID, e.LocationUID)
			}
		}
	}
	return values, nil
}

// Group is a set of entities sharing one criteria-value object. Group
// cardinality decides auto- vs manual-mapping eligibility.
type Group struct {
	Values Values
	UIDs   []uuid.UUID
}

// GroupByValues groups entities by their resolved values. Iteration order
// of the result is not significant; callers key decisions off cardinality.
func GroupByValues(values map[uuid.UUID]Values) []Group {
	index := make(map[groupKey]int)
	var groups []Group
	for uid, v := range values {
		k := v.key()
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Values: v})
		}
		groups[i].UIDs = append(groups[i].UIDs, uid)
	}
	return groups
}
