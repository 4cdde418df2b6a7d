package mapping

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Supervisor is a bottom-level user with their resolved criteria values.
type Supervisor struct {
	UserID uuid.UUID
	Values Values
}

// Pair is one resolved target→supervisor mapping.
type Pair struct {
	TargetUID uuid.UUID `json:"target_uid"`
	UserID    uuid.UUID `json:"supervisor_uid"`
}

// Override is one UserMappingConfig row: entities whose values equal From
// are looked up under To instead. An override only applies while no
// supervisor naturally holds From.
type Override struct {
	From Values
	To   Values
}

// ResolveMappedTo returns the value object actually used to find a
// target's supervisor. If any supervisor naturally holds the target's own
// values, overrides are ignored for that key.
func ResolveMappedTo(values Values, overrides []Override, supervisors []Supervisor) Values {
	natural := make(map[groupKey]bool, len(supervisors))
	for _, s := range supervisors {
		natural[s.Values.key()] = true
	}
	return resolveMappedTo(values, overrides, natural)
}

func resolveMappedTo(values Values, overrides []Override, natural map[groupKey]bool) Values {
	if natural[values.key()] {
		return values
	}
	for _, o := range overrides {
		if o.From.Equal(values) {
			return o.To
		}
	}
	return values
}

// ResolveAllMappedTo applies ResolveMappedTo across a batch with the
// natural-key index built once.
func ResolveAllMappedTo(values map[uuid.UUID]Values, overrides []Override, supervisors []Supervisor) map[uuid.UUID]Values {
	natural := make(map[groupKey]bool, len(supervisors))
	for _, s := range supervisors {
		natural[s.Values.key()] = true
	}
	out := make(map[uuid.UUID]Values, len(values))
	for uid, v := range values {
		out[uid] = resolveMappedTo(v, overrides, natural)
	}
	return out
}

// GenerateMappings maps each target to the supervisor holding its
// mapped-to key, but only when exactly one supervisor holds that key.
// Targets whose key is held by zero or several supervisors are omitted:
// the caller treats omission as "Pending, needs manual mapping", never as
// an error. Output is ordered by target uid, so unchanged inputs yield
// identical output.
func GenerateMappings(targetMappedTo map[uuid.UUID]Values, supervisors []Supervisor) []Pair {
	groupSize := make(map[groupKey]int, len(supervisors))
	holder := make(map[groupKey]uuid.UUID, len(supervisors))
	for _, s := range supervisors {
		k := s.Values.key()
		groupSize[k]++
		holder[k] = s.UserID
	}

	pairs := make([]Pair, 0, len(targetMappedTo))
	for targetUID, v := range targetMappedTo {
		k := v.key()
		if groupSize[k] != 1 {
			continue
		}
		pairs = append(pairs, Pair{TargetUID: targetUID, UserID: holder[k]})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].TargetUID.String() < pairs[j].TargetUID.String()
	})
	return pairs
}

// CandidateCount reports how many supervisors hold exactly the given
// mapped-to key.
func CandidateCount(values Values, supervisors []Supervisor) int {
	k := values.key()
	count := 0
	for _, s := range supervisors {
		if s.Values.key() == k {
			count++
		}
	}
	return count
}

type ViolationType string

const (
	ViolationTargetNotFound     ViolationType = "TargetNotFound"
	ViolationSupervisorNotFound ViolationType = "SupervisorNotFound"
	ViolationDuplicateTarget    ViolationType = "DuplicateTarget"
	ViolationCriteria           ViolationType = "MappingCriteriaViolation"
)

// Violation is one rejected manual-mapping pair.
type Violation struct {
	Type      ViolationType `json:"type"`
	TargetUID uuid.UUID     `json:"target_uid"`
	UserID    uuid.UUID     `json:"supervisor_uid"`
	Message   string        `json:"message"`
}

// ValidateManualPairs checks a submitted batch of manual mappings against
// current target and supervisor state. Every violation across the whole
// batch is collected; nothing short-circuits on first failure.
func ValidateManualPairs(pairs []Pair, targetMappedTo map[uuid.UUID]Values, supervisors map[uuid.UUID]Values) []Violation {
	var violations []Violation
	seen := make(map[uuid.UUID]bool, len(pairs))
	for _, p := range pairs {
		if seen[p.TargetUID] {
			violations = append(violations, Violation{
				Type:      ViolationDuplicateTarget,
				TargetUID: p.TargetUID,
				UserID:    p.UserID,
				Message:   fmt.Sprintf("target %s appears more than once in the batch", p.TargetUID),
			})
			continue
		}
		seen[p.TargetUID] = true

		targetValues, targetOK := targetMappedTo[p.TargetUID]
		if !targetOK {
			violations = append(violations, Violation{
				Type:      ViolationTargetNotFound,
				TargetUID: p.TargetUID,
				UserID:    p.UserID,
				Message:   fmt.Sprintf("target %s not found", p.TargetUID),
			})
		}
		supervisorValues, supervisorOK := supervisors[p.UserID]
		if !supervisorOK {
			violations = append(violations, Violation{
				Type:      ViolationSupervisorNotFound,
				TargetUID: p.TargetUID,
				UserID:    p.UserID,
				Message:   fmt.Sprintf("supervisor %s not found", p.UserID),
			})
		}
		if !targetOK || !supervisorOK {
			continue
		}
		if !supervisorValues.Equal(targetValues) {
			violations = append(violations, Violation{
				Type:      ViolationCriteria,
				TargetUID: p.TargetUID,
				UserID:    p.UserID,
				Message:   fmt.Sprintf("supervisor %s does not cover target %s's mapping criteria", p.UserID, p.TargetUID),
			})
		}
	}
	return violations
}
