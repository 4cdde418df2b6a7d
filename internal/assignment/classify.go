package assignment

import "github.com/google/uuid"

// Change classifies one assignment write against the existing row.
type Change int

const (
	ChangeNew Change = iota
	ChangeUnchanged
	ChangeReassigned
)

// Classify compares the target's existing enumerator (nil when the target
// has no assignment) against the incoming one. The same classification
// backs both the bulk upload and the interactive update endpoint, so both
// report identical counts for identical input.
func Classify(existing *uuid.UUID, next uuid.UUID) Change {
	switch {
	case existing == nil:
		return ChangeNew
	case *existing == next:
		return ChangeUnchanged
	default:
		return ChangeReassigned
	}
}

// Counts tallies an assignment write. Field names follow the response
// contract.
type Counts struct {
	New        int `json:"new_assignments_count"`
	Reassigned int `json:"re_assignments_count"`
	Unchanged  int `json:"no_changes_count"`
	Total      int `json:"assignments_count"`
}

func (c *Counts) Add(change Change) {
	switch change {
	case ChangeNew:
		c.New++
	case ChangeUnchanged:
		c.Unchanged++
	case ChangeReassigned:
		c.Reassigned++
	}
	c.Total++
}
