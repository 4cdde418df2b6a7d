package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/assignment"
	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/requestdata"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

// AssignmentInput is one row of an interactive assignment write. A nil
// EnumeratorUID unassigns the target.
type AssignmentInput struct {
	TargetUID     uuid.UUID  `json:"target_uid"`
	EnumeratorUID *uuid.UUID `json:"enumerator_uid"`
}

// AssignmentUploadRequest is the bulk-upload payload. File carries the
// base64-encoded bytes; FileType selects the parser; Mode selects merge
// (upsert only) or overwrite (replace the form's whole assignment set).
type AssignmentUploadRequest struct {
	FormUID       uuid.UUID         `json:"form_uid"`
	ColumnMapping map[string]string `json:"column_mapping"`
	File          string            `json:"file"`
	FileType      string            `json:"file_type"`
	Mode          string            `json:"mode"`
}

// AssignmentWriteResult is the shared outcome shape of the interactive PUT
// and the bulk upload.
type AssignmentWriteResult struct {
	Counts        assignment.Counts              `json:"counts"`
	EmailSchedule *types.AssignmentEmailSchedule `json:"email_schedule,omitempty"`
}

const (
	UploadModeMerge     = "merge"
	UploadModeOverwrite = "overwrite"
)

type AssignmentService interface {
	GetAssignments(ctx context.Context, formUID uuid.UUID) ([]*types.SurveyorAssignment, error)
	PutAssignments(ctx context.Context, formUID uuid.UUID, inputs []AssignmentInput) (*AssignmentWriteResult, error)
	// UploadAssignments runs the staged upload pipeline: decode, parse,
	// structure validation, record validation, then a transactional
	// save. Validation failures surface as the typed errors of the
	// assignment package; stages before the save write nothing.
	UploadAssignments(ctx context.Context, req AssignmentUploadRequest) (*AssignmentWriteResult, error)
}

type assignmentService struct {
	db                   *gorm.DB
	log                  *logger.Logger
	assignmentRepo       repos.SurveyorAssignmentRepo
	targetRepo           repos.TargetRepo
	targetStatusRepo     repos.TargetStatusRepo
	enumeratorRepo       repos.EnumeratorRepo
	scheduleRepo         repos.AssignmentEmailScheduleRepo
	formRepo             repos.FormRepo
	mappingService       MappingService
	userHierarchyService UserHierarchyService
}

func NewAssignmentService(
	db *gorm.DB,
	log *logger.Logger,
	assignmentRepo repos.SurveyorAssignmentRepo,
	targetRepo repos.TargetRepo,
	targetStatusRepo repos.TargetStatusRepo,
	enumeratorRepo repos.EnumeratorRepo,
	scheduleRepo repos.AssignmentEmailScheduleRepo,
	formRepo repos.FormRepo,
	mappingService MappingService,
	userHierarchyService UserHierarchyService,
) AssignmentService {
	serviceLog := log.With("service", "AssignmentService")
	return &assignmentService{
		db:                   db,
		log:                  serviceLog,
		assignmentRepo:       assignmentRepo,
		targetRepo:           targetRepo,
		targetStatusRepo:     targetStatusRepo,
		enumeratorRepo:       enumeratorRepo,
		scheduleRepo:         scheduleRepo,
		formRepo:             formRepo,
		mappingService:       mappingService,
		userHierarchyService: userHierarchyService,
	}
}

func (as *assignmentService) GetAssignments(ctx context.Context, formUID uuid.UUID) ([]*types.SurveyorAssignment, error) {
	return as.assignmentRepo.ListByForm(ctx, nil, formUID)
}

func (as *assignmentService) PutAssignments(ctx context.Context, formUID uuid.UUID, inputs []AssignmentInput) (*AssignmentWriteResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("No request data found in context")
	}
	targets, err := as.targetRepo.ListByForm(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load targets: %w", err)
	}
	formTargets := make(map[uuid.UUID]bool, len(targets))
	for _, t := range targets {
		formTargets[t.ID] = true
	}
	enumerators, err := as.enumeratorRepo.ListByForm(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load enumerators: %w", err)
	}
	enumeratorStatus := make(map[uuid.UUID]string, len(enumerators))
	for _, e := range enumerators {
		enumeratorStatus[e.ID] = e.Status
	}
	for _, in := range inputs {
		if !formTargets[in.TargetUID] {
			return nil, fmt.Errorf("Target %s does not belong to this form", in.TargetUID)
		}
		if in.EnumeratorUID == nil {
			continue
		}
		status, ok := enumeratorStatus[*in.EnumeratorUID]
		if !ok {
			return nil, fmt.Errorf("Enumerator %s does not belong to this form", *in.EnumeratorUID)
		}
		if status == types.EnumeratorStatusDropout {
			return nil, fmt.Errorf("Enumerator %s has Dropout status", *in.EnumeratorUID)
		}
	}

	var upserts []*types.SurveyorAssignment
	var removals []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(inputs))
	for _, in := range inputs {
		if seen[in.TargetUID] {
			return nil, fmt.Errorf("Target %s appears more than once", in.TargetUID)
		}
		seen[in.TargetUID] = true
		if in.EnumeratorUID == nil {
			removals = append(removals, in.TargetUID)
			continue
		}
		upserts = append(upserts, &types.SurveyorAssignment{
			TargetUID:     in.TargetUID,
			EnumeratorUID: *in.EnumeratorUID,
			UserID:        rd.UserID,
		})
	}

	result := &AssignmentWriteResult{}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counts, err := as.writeAssignments(ctx, tx, upserts, removals, rd.UserID)
		if err != nil {
			return err
		}
		result.Counts = *counts
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.attachEmailSchedule(ctx, formUID, result)
	return result, nil
}

func (as *assignmentService) UploadAssignments(ctx context.Context, req AssignmentUploadRequest) (*AssignmentWriteResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("No request data found in context")
	}

	// Stage 1: decode.
	data, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		return nil, fmt.Errorf("File data has invalid base64 encoding")
	}

	var records [][]string
	switch req.FileType {
	case "csv", "":
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("File data has invalid UTF-8 encoding")
		}
		records, err = assignment.ParseCSV(data)
		if err != nil {
			return nil, fmt.Errorf("Failed to parse csv file: %w", err)
		}
	case "xlsx":
		records, err = assignment.ParseXLSX(data)
		if err != nil {
			return nil, fmt.Errorf("Failed to parse xlsx file: %w", err)
		}
	default:
		return nil, fmt.Errorf("Unknown file type %q", req.FileType)
	}

	// Stage 2: structure.
	columns := assignment.ColumnMapping(req.ColumnMapping)
	if err := columns.Validate(assignment.FieldTargetID, assignment.FieldEnumeratorID); err != nil {
		return nil, err
	}
	batch, err := assignment.NewBatch(records, columns)
	if err != nil {
		return nil, err
	}

	// Stage 3: records.
	rc, err := as.buildRecordContext(ctx, req.FormUID)
	if err != nil {
		return nil, err
	}
	if invalid := assignment.ValidateRecords(batch, *rc); invalid != nil {
		return nil, invalid
	}

	// Stage 4: save.
	mode := req.Mode
	if mode == "" {
		mode = UploadModeMerge
	}
	if mode != UploadModeMerge && mode != UploadModeOverwrite {
		return nil, fmt.Errorf("Unknown upload mode %q", mode)
	}

	upserts := make([]*types.SurveyorAssignment, 0, len(batch.Rows))
	batchTargets := make(map[uuid.UUID]bool, len(batch.Rows))
	for _, row := range batch.Rows {
		target := rc.Targets[row.Fields[assignment.FieldTargetID]]
		enumerator := rc.Enumerators[row.Fields[assignment.FieldEnumeratorID]]
		if batchTargets[target.UID] {
			// Identical duplicate rows collapse to a single write.
			continue
		}
		batchTargets[target.UID] = true
		upserts = append(upserts, &types.SurveyorAssignment{
			TargetUID:     target.UID,
			EnumeratorUID: enumerator.UID,
			UserID:        rd.UserID,
		})
	}

	result := &AssignmentWriteResult{}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var removals []uuid.UUID
		if mode == UploadModeOverwrite {
			existing, err := as.assignmentRepo.ListByForm(ctx, tx, req.FormUID)
			if err != nil {
				return fmt.Errorf("Failed to load existing assignments: %w", err)
			}
			for _, row := range existing {
				if !batchTargets[row.TargetUID] {
					removals = append(removals, row.TargetUID)
				}
			}
		}
		counts, err := as.writeAssignments(ctx, tx, upserts, removals, rd.UserID)
		if err != nil {
			return err
		}
		result.Counts = *counts
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.attachEmailSchedule(ctx, req.FormUID, result)
	return result, nil
}

// writeAssignments classifies each row against the current state, applies
// removals with the audit mark, and upserts the rest. Runs inside the
// caller's transaction.
func (as *assignmentService) writeAssignments(ctx context.Context, tx *gorm.DB, upserts []*types.SurveyorAssignment, removals []uuid.UUID, actingUserID uuid.UUID) (*assignment.Counts, error) {
	targetUIDs := make([]uuid.UUID, 0, len(upserts))
	for _, row := range upserts {
		targetUIDs = append(targetUIDs, row.TargetUID)
	}
	existing, err := as.assignmentRepo.GetByTargets(ctx, tx, targetUIDs)
	if err != nil {
		return nil, fmt.Errorf("Failed to load current assignments: %w", err)
	}
	existingByTarget := make(map[uuid.UUID]uuid.UUID, len(existing))
	for _, row := range existing {
		existingByTarget[row.TargetUID] = row.EnumeratorUID
	}

	counts := &assignment.Counts{}
	for _, row := range upserts {
		var current *uuid.UUID
		if enumeratorUID, ok := existingByTarget[row.TargetUID]; ok {
			e := enumeratorUID
			current = &e
		}
		counts.Add(assignment.Classify(current, row.EnumeratorUID))
	}

	if err := as.assignmentRepo.RemoveByTargets(ctx, tx, removals, actingUserID); err != nil {
		return nil, fmt.Errorf("Failed to remove assignments: %w", err)
	}
	if _, err := as.assignmentRepo.UpsertBatch(ctx, tx, upserts); err != nil {
		return nil, fmt.Errorf("Failed to save assignments: %w", err)
	}
	return counts, nil
}

// buildRecordContext loads the state the record validator checks uploads
// against.
func (as *assignmentService) buildRecordContext(ctx context.Context, formUID uuid.UUID) (*assignment.RecordContext, error) {
	form, err := as.formRepo.GetByID(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load form: %w", err)
	}

	targets, err := as.targetRepo.ListByForm(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load targets: %w", err)
	}
	targetUIDs := make([]uuid.UUID, 0, len(targets))
	for _, t := range targets {
		targetUIDs = append(targetUIDs, t.ID)
	}
	statuses, err := as.targetStatusRepo.ListByTargets(ctx, nil, targetUIDs)
	if err != nil {
		return nil, fmt.Errorf("Failed to load target statuses: %w", err)
	}
	assignable := make(map[uuid.UUID]bool, len(statuses))
	for _, s := range statuses {
		assignable[s.TargetUID] = s.TargetAssignable
	}
	targetInfo := make(map[string]assignment.TargetInfo, len(targets))
	for _, t := range targets {
		isAssignable, hasStatus := assignable[t.ID]
		if !hasStatus {
			isAssignable = true
		}
		targetInfo[t.TargetID] = assignment.TargetInfo{UID: t.ID, Assignable: isAssignable}
	}

	enumerators, err := as.enumeratorRepo.ListByForm(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load enumerators: %w", err)
	}
	enumeratorInfo := make(map[string]assignment.EnumeratorInfo, len(enumerators))
	for _, e := range enumerators {
		enumeratorInfo[e.EnumeratorID] = assignment.EnumeratorInfo{UID: e.ID, Status: e.Status}
	}

	chains, err := as.userHierarchyService.SupervisorChains(ctx, form.SurveyID)
	if err != nil {
		return nil, err
	}
	visible := make(map[uuid.UUID]bool, len(chains))
	for _, chain := range chains {
		visible[chain.User.UserID] = true
	}
	// A supervisor always has access to their own targets.
	if rd := requestdata.GetRequestData(ctx); rd != nil {
		visible[rd.UserID] = true
	}

	targetSupervisor, err := as.mappingService.TargetSupervisors(ctx, formUID)
	if err != nil {
		return nil, err
	}
	enumeratorSupervisor, err := as.mappingService.EnumeratorSupervisors(ctx, formUID)
	if err != nil {
		return nil, err
	}

	return &assignment.RecordContext{
		Targets:              targetInfo,
		Enumerators:          enumeratorInfo,
		VisibleSupervisors:   visible,
		TargetSupervisor:     targetSupervisor,
		EnumeratorSupervisor: enumeratorSupervisor,
		DropoutStatus:        types.EnumeratorStatusDropout,
	}, nil
}

// attachEmailSchedule decorates a successful write with the next scheduled
// assignment email, when one exists. Failures only log: the write already
// committed.
func (as *assignmentService) attachEmailSchedule(ctx context.Context, formUID uuid.UUID, result *AssignmentWriteResult) {
	schedule, err := as.scheduleRepo.NextForForm(ctx, nil, formUID, time.Now())
	if err != nil {
		as.log.Warn("Failed to load assignment email schedule", "error", err, "form_uid", formUID)
		return
	}
	result.EmailSchedule = schedule
}
