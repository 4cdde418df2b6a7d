package assignment

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Record error categories. Names and order are part of the API response
// contract.
const (
	CategoryBlankField        = "Blank field"
	CategoryDuplicateRows     = "Duplicate rows"
	CategoryDuplicateTargets  = "Duplicate target_id's in file"
	CategoryInvalidTargets    = "Invalid target_id's"
	CategoryNotAssignable     = "Not Assignable target_id's"
	CategoryInvalidEnums      = "Invalid enumerator_id's"
	CategoryDropoutEnums      = "Dropout enumerator_id's"
	CategoryNotMapped         = "Not mapped target_id's"
	CategoryIncorrectlyMapped = "Incorrectly mapped target_id's"
)

var categoryOrder = []string{
	CategoryBlankField,
	CategoryDuplicateRows,
	CategoryDuplicateTargets,
	CategoryInvalidTargets,
	CategoryNotAssignable,
	CategoryInvalidEnums,
	CategoryDropoutEnums,
	CategoryNotMapped,
	CategoryIncorrectlyMapped,
}

var categoryMessage = map[string]string{
	CategoryBlankField:        "A required field (target_id or enumerator_id) is blank",
	CategoryDuplicateRows:     "The file contains exact duplicate rows",
	CategoryDuplicateTargets:  "A target_id appears on more than one distinct row in the file",
	CategoryInvalidTargets:    "The target_id was not found among the form's current targets",
	CategoryNotAssignable:     "The target is currently not assignable",
	CategoryInvalidEnums:      "The enumerator_id was not found for the form",
	CategoryDropoutEnums:      "The enumerator has Dropout status",
	CategoryNotMapped:         "The target is not mapped to a supervisor you have access to",
	CategoryIncorrectlyMapped: "The target and enumerator are mapped to different supervisors",
}

// TargetInfo is the slice of target state the validator needs, keyed by
// natural target_id.
type TargetInfo struct {
	UID        uuid.UUID
	Assignable bool
}

// EnumeratorInfo is the slice of enumerator state the validator needs,
// keyed by natural enumerator_id.
type EnumeratorInfo struct {
	UID    uuid.UUID
	Status string
}

// RecordContext is the current state an upload batch is validated
// against. VisibleSupervisors is the caller's reachable bottom-level user
// set (everyone, for admins). The supervisor maps come from the mapping
// engine's resolved pairings.
type RecordContext struct {
	Targets              map[string]TargetInfo
	Enumerators          map[string]EnumeratorInfo
	VisibleSupervisors   map[uuid.UUID]bool
	TargetSupervisor     map[uuid.UUID]uuid.UUID
	EnumeratorSupervisor map[uuid.UUID]uuid.UUID
	DropoutStatus        string
}

// ValidateRecords runs every record-level rule over the whole batch in a
// single pass and returns nil only when every category is empty. All
// applicable categories are reported together; nothing short-circuits.
func ValidateRecords(batch *Batch, rc RecordContext) *InvalidRecordsError {
	dropout := rc.DropoutStatus
	if dropout == "" {
		dropout = "Dropout"
	}

	contentCount := make(map[string]int, len(batch.Rows))
	targetContents := make(map[string]map[string]bool)
	targetRows := make(map[string][]int)
	for _, row := range batch.Rows {
		key := rowContentKey(row)
		contentCount[key]++
		tid := row.Fields[FieldTargetID]
		if tid != "" {
			if targetContents[tid] == nil {
				targetContents[tid] = make(map[string]bool)
			}
			targetContents[tid][key] = true
			targetRows[tid] = append(targetRows[tid], row.Number)
		}
	}

	categoryRows := make(map[string][]int)
	rowErrors := make(map[int][]string)
	flag := func(row Row, category string) {
		categoryRows[category] = append(categoryRows[category], row.Number)
		rowErrors[row.Number] = append(rowErrors[row.Number], categoryMessage[category])
	}

	for _, row := range batch.Rows {
		tid := row.Fields[FieldTargetID]
		eid := row.Fields[FieldEnumeratorID]

		targetUsable := tid != ""
		enumUsable := eid != ""
		// one entry per row even when both fields are blank
		if tid == "" || eid == "" {
			flag(row, CategoryBlankField)
		}

		if contentCount[rowContentKey(row)] > 1 {
			flag(row, CategoryDuplicateRows)
		}
		// a repeated target_id across identical rows is already fully
		// described by the duplicate-rows category
		if targetUsable && len(targetRows[tid]) > 1 && len(targetContents[tid]) > 1 {
			flag(row, CategoryDuplicateTargets)
		}

		var target TargetInfo
		if targetUsable {
			var ok bool
			target, ok = rc.Targets[tid]
			if !ok {
				flag(row, CategoryInvalidTargets)
				targetUsable = false
			}
		}
		if targetUsable && !target.Assignable {
			flag(row, CategoryNotAssignable)
		}

		var enum EnumeratorInfo
		if enumUsable {
			var ok bool
			enum, ok = rc.Enumerators[eid]
			if !ok {
				flag(row, CategoryInvalidEnums)
				enumUsable = false
			}
		}
		if enumUsable && enum.Status == dropout {
			flag(row, CategoryDropoutEnums)
		}

		var targetSupervisor uuid.UUID
		targetMapped := false
		if targetUsable {
			sup, ok := rc.TargetSupervisor[target.UID]
			if !ok || !rc.VisibleSupervisors[sup] {
				flag(row, CategoryNotMapped)
			} else {
				targetSupervisor = sup
				targetMapped = true
			}
		}
		if targetMapped && enumUsable {
			if enumSup, ok := rc.EnumeratorSupervisor[enum.UID]; ok && enumSup != targetSupervisor {
				flag(row, CategoryIncorrectlyMapped)
			}
		}
	}

	if len(categoryRows) == 0 {
		return nil
	}

	var summaries []CategorySummary
	for _, category := range categoryOrder {
		rows := categoryRows[category]
		if len(rows) == 0 {
			continue
		}
		sort.Ints(rows)
		summaries = append(summaries, CategorySummary{
			ErrorType:  category,
			Message:    categoryMessage[category],
			Count:      len(rows),
			RowNumbers: rows,
		})
	}

	invalid := InvalidRecords{OrderedColumns: orderedFieldColumns(batch)}
	totalBad := 0
	for _, row := range batch.Rows {
		messages := rowErrors[row.Number]
		if len(messages) == 0 {
			continue
		}
		totalBad++
		record := make(map[string]string, len(row.Fields)+1)
		for field, value := range row.Fields {
			record[field] = value
		}
		record["errors"] = strings.Join(messages, "; ")
		invalid.Records = append(invalid.Records, record)
	}

	return &InvalidRecordsError{
		Summary: RecordErrorSummary{
			TotalRows:           len(batch.Rows),
			TotalCorrectRows:    len(batch.Rows) - totalBad,
			TotalRowsWithErrors: totalBad,
		},
		SummaryByErrorType: summaries,
		InvalidRecords:     invalid,
	}
}

// rowContentKey is a collision-safe encoding of a row's mapped fields,
// used only for duplicate detection within one file.
func rowContentKey(row Row) string {
	fields := make([]string, 0, len(row.Fields))
	for f := range row.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	pairs := make([][2]string, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, [2]string{f, row.Fields[f]})
	}
	encoded, _ := json.Marshal(pairs)
	return string(encoded)
}

func orderedFieldColumns(batch *Batch) []string {
	fieldSet := make(map[string]bool)
	for _, row := range batch.Rows {
		for f := range row.Fields {
			fieldSet[f] = true
		}
	}
	fields := make([]string, 0, len(fieldSet)+1)
	for f := range fieldSet {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return append(fields, "errors")
}
