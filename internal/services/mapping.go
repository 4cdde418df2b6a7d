package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/mapping"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/requestdata"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

// TargetMappingRow is one target with its resolved mapping key, how many
// supervisors hold the key, and the persisted supervisor if one exists.
// Pending means the key has zero or more than one candidate.
type TargetMappingRow struct {
	Target          *types.Target  `json:"target"`
	MappedTo        mapping.Values `json:"mapped_to"`
	SupervisorCount int            `json:"supervisor_count"`
	SupervisorUID   *uuid.UUID     `json:"supervisor_uid,omitempty"`
	Pending         bool           `json:"pending"`
}

// MappingConfigInput is one manual substitution row. Rows whose two sides
// are equal carry no information and are dropped on save.
type MappingConfigInput struct {
	MappingValues mapping.Values `json:"mapping_values"`
	MappedTo      mapping.Values `json:"mapped_to"`
}

type MappingService interface {
	GetTargetsMapping(ctx context.Context, formUID uuid.UUID) ([]TargetMappingRow, error)
	// GenerateMappings auto-maps every target whose key has exactly one
	// candidate supervisor and upserts the result. Idempotent on
	// unchanged data.
	GenerateMappings(ctx context.Context, formUID uuid.UUID) ([]mapping.Pair, error)
	// SaveManualMappings validates the whole batch and either returns
	// every violation found or persists all pairs.
	SaveManualMappings(ctx context.Context, formUID uuid.UUID, pairs []mapping.Pair) ([]mapping.Violation, error)
	GetConfig(ctx context.Context, formUID uuid.UUID, mappingType string) ([]*types.UserMappingConfig, error)
	PutConfig(ctx context.Context, formUID uuid.UUID, mappingType string, rows []MappingConfigInput) ([]*types.UserMappingConfig, error)
	DeleteConfig(ctx context.Context, formUID uuid.UUID, mappingType string) error
	TargetSupervisors(ctx context.Context, formUID uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	// EnumeratorSupervisors resolves each enumerator to the singleton
	// supervisor holding its surveyor-side mapping key, where one exists.
	EnumeratorSupervisors(ctx context.Context, formUID uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
}

type mappingService struct {
	db                   *gorm.DB
	log                  *logger.Logger
	formRepo             repos.FormRepo
	surveyRepo           repos.SurveyRepo
	targetRepo           repos.TargetRepo
	enumeratorRepo       repos.EnumeratorRepo
	hierarchyRepo        repos.UserHierarchyRepo
	mappingRepo          repos.UserTargetMappingRepo
	configRepo           repos.UserMappingConfigRepo
	roleService          RoleService
	locationService      LocationService
	userHierarchyService UserHierarchyService
}

func NewMappingService(
	db *gorm.DB,
	log *logger.Logger,
	formRepo repos.FormRepo,
	surveyRepo repos.SurveyRepo,
	targetRepo repos.TargetRepo,
	enumeratorRepo repos.EnumeratorRepo,
	hierarchyRepo repos.UserHierarchyRepo,
	mappingRepo repos.UserTargetMappingRepo,
	configRepo repos.UserMappingConfigRepo,
	roleService RoleService,
	locationService LocationService,
	userHierarchyService UserHierarchyService,
) MappingService {
	serviceLog := log.With("service", "MappingService")
	return &mappingService{
		db:                   db,
		log:                  serviceLog,
		formRepo:             formRepo,
		surveyRepo:           surveyRepo,
		targetRepo:           targetRepo,
		enumeratorRepo:       enumeratorRepo,
		hierarchyRepo:        hierarchyRepo,
		mappingRepo:          mappingRepo,
		configRepo:           configRepo,
		roleService:          roleService,
		locationService:      locationService,
		userHierarchyService: userHierarchyService,
	}
}

// formContext is everything a mapping resolution needs, loaded once per
// request.
type formContext struct {
	form         *types.Form
	survey       *types.Survey
	criteria     []mapping.Criterion
	ancestry     map[uuid.UUID][]mapping.AncestorEntry
	targets      []*types.Target
	targetValues map[uuid.UUID]mapping.Values
	supervisors  []mapping.Supervisor
}

func (ms *mappingService) loadFormContext(ctx context.Context, formUID uuid.UUID) (*formContext, error) {
	form, err := ms.formRepo.GetByID(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load form: %w", err)
	}
	survey, err := ms.surveyRepo.GetByID(ctx, nil, form.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load survey: %w", err)
	}
	criteria, err := mapping.ParseCriteria(form.MappingCriteria)
	if err != nil {
		return nil, fmt.Errorf("Form has invalid mapping criteria: %w", err)
	}
	if len(criteria) == 0 {
		return nil, fmt.Errorf("Form has no mapping criteria configured")
	}

	var ancestry map[uuid.UUID][]mapping.AncestorEntry
	if criteriaContain(criteria, mapping.CriterionLocation) {
		ancestry, err = ms.locationService.ResolveAncestry(ctx, form.SurveyID)
		if err != nil {
			return nil, fmt.Errorf("Failed to resolve location ancestry: %w", err)
		}
	}

	fc := &formContext{
		form:     form,
		survey:   survey,
		criteria: criteria,
		ancestry: ancestry,
	}

	// Target and supervisor values are independent; resolve them in
	// parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		targets, err := ms.targetRepo.ListByForm(gctx, nil, formUID)
		if err != nil {
			return fmt.Errorf("Failed to load targets: %w", err)
		}
		values := make(map[uuid.UUID]mapping.Values, len(targets))
		for _, t := range targets {
			v, err := mapping.ResolveValues(criteria, mapping.Entity{
				UID:         t.ID,
				Gender:      t.Gender,
				Language:    t.Language,
				LocationUID: t.LocationUID,
			}, survey.PrimeGeoLevelUID, ancestry)
			if err != nil {
				return fmt.Errorf("Target %s: %w", t.TargetID, err)
			}
			values[t.ID] = v
		}
		fc.targets = targets
		fc.targetValues = values
		return nil
	})
	g.Go(func() error {
		supervisors, err := ms.loadSupervisors(gctx, form.SurveyID, criteria, survey.PrimeGeoLevelUID, ancestry)
		if err != nil {
			return err
		}
		fc.supervisors = supervisors
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fc, nil
}

// loadSupervisors resolves criteria values for every bottom-level user of
// the survey's role chain.
func (ms *mappingService) loadSupervisors(ctx context.Context, surveyID uuid.UUID, criteria []mapping.Criterion, primeGeoLevelUID *uuid.UUID, ancestry map[uuid.UUID][]mapping.AncestorEntry) ([]mapping.Supervisor, error) {
	bottomRole, _, err := ms.roleService.BottomRole(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	entries, err := ms.hierarchyRepo.ListBySurvey(ctx, nil, surveyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load user hierarchy: %w", err)
	}
	var supervisors []mapping.Supervisor
	for _, entry := range entries {
		if entry.RoleUID != bottomRole.ID {
			continue
		}
		v, err := mapping.ResolveValues(criteria, mapping.Entity{
			UID:         entry.UserID,
			Gender:      entry.Gender,
			Language:    entry.Language,
			LocationUID: entry.LocationUID,
		}, primeGeoLevelUID, ancestry)
		if err != nil {
			return nil, fmt.Errorf("Supervisor %s: %w", entry.UserID, err)
		}
		supervisors = append(supervisors, mapping.Supervisor{UserID: entry.UserID, Values: v})
	}
	return supervisors, nil
}

func (ms *mappingService) targetOverrides(ctx context.Context, formUID uuid.UUID, mappingType string) ([]mapping.Override, error) {
	rows, err := ms.configRepo.ListByForm(ctx, nil, formUID, mappingType)
	if err != nil {
		return nil, fmt.Errorf("Failed to load mapping config: %w", err)
	}
	overrides := make([]mapping.Override, 0, len(rows))
	for _, row := range rows {
		from, err := mapping.ValuesFromJSON(row.MappingValues)
		if err != nil {
			return nil, fmt.Errorf("Config row %s has invalid mapping_values: %w", row.ID, err)
		}
		to, err := mapping.ValuesFromJSON(row.MappedTo)
		if err != nil {
			return nil, fmt.Errorf("Config row %s has invalid mapped_to: %w", row.ID, err)
		}
		overrides = append(overrides, mapping.Override{From: from, To: to})
	}
	return overrides, nil
}

func (ms *mappingService) GetTargetsMapping(ctx context.Context, formUID uuid.UUID) ([]TargetMappingRow, error) {
	fc, err := ms.loadFormContext(ctx, formUID)
	if err != nil {
		return nil, err
	}
	overrides, err := ms.targetOverrides(ctx, formUID, types.MappingTypeTarget)
	if err != nil {
		return nil, err
	}
	mappedTo := mapping.ResolveAllMappedTo(fc.targetValues, overrides, fc.supervisors)

	targetUIDs := make([]uuid.UUID, 0, len(fc.targets))
	for _, t := range fc.targets {
		targetUIDs = append(targetUIDs, t.ID)
	}
	existing, err := ms.mappingRepo.ListByTargets(ctx, nil, targetUIDs)
	if err != nil {
		return nil, fmt.Errorf("Failed to load existing mappings: %w", err)
	}
	existingByTarget := make(map[uuid.UUID]uuid.UUID, len(existing))
	for _, m := range existing {
		existingByTarget[m.TargetUID] = m.UserID
	}

	out := make([]TargetMappingRow, 0, len(fc.targets))
	for _, t := range fc.targets {
		values := mappedTo[t.ID]
		count := mapping.CandidateCount(values, fc.supervisors)
		row := TargetMappingRow{
			Target:          t,
			MappedTo:        values,
			SupervisorCount: count,
			Pending:         count != 1,
		}
		if uid, ok := existingByTarget[t.ID]; ok {
			u := uid
			row.SupervisorUID = &u
			row.Pending = false
		}
		out = append(out, row)
	}
	return out, nil
}

func (ms *mappingService) GenerateMappings(ctx context.Context, formUID uuid.UUID) ([]mapping.Pair, error) {
	fc, err := ms.loadFormContext(ctx, formUID)
	if err != nil {
		return nil, err
	}
	overrides, err := ms.targetOverrides(ctx, formUID, types.MappingTypeTarget)
	if err != nil {
		return nil, err
	}
	mappedTo := mapping.ResolveAllMappedTo(fc.targetValues, overrides, fc.supervisors)
	pairs := mapping.GenerateMappings(mappedTo, fc.supervisors)
	if err := ms.persistPairs(ctx, pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (ms *mappingService) SaveManualMappings(ctx context.Context, formUID uuid.UUID, pairs []mapping.Pair) ([]mapping.Violation, error) {
	fc, err := ms.loadFormContext(ctx, formUID)
	if err != nil {
		return nil, err
	}
	overrides, err := ms.targetOverrides(ctx, formUID, types.MappingTypeTarget)
	if err != nil {
		return nil, err
	}
	mappedTo := mapping.ResolveAllMappedTo(fc.targetValues, overrides, fc.supervisors)
	supervisorValues := make(map[uuid.UUID]mapping.Values, len(fc.supervisors))
	for _, s := range fc.supervisors {
		supervisorValues[s.UserID] = s.Values
	}
	violations := mapping.ValidateManualPairs(pairs, mappedTo, supervisorValues)
	if len(violations) > 0 {
		return violations, nil
	}
	if err := ms.persistPairs(ctx, pairs); err != nil {
		return nil, err
	}
	return nil, nil
}

func (ms *mappingService) persistPairs(ctx context.Context, pairs []mapping.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	rows := make([]*types.UserTargetMapping, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, &types.UserTargetMapping{
			ID:        uuid.New(),
			TargetUID: p.TargetUID,
			UserID:    p.UserID,
		})
	}
	return ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ms.mappingRepo.UpsertBatch(ctx, tx, rows); err != nil {
			return fmt.Errorf("Failed to save mappings: %w", err)
		}
		return nil
	})
}

func (ms *mappingService) GetConfig(ctx context.Context, formUID uuid.UUID, mappingType string) ([]*types.UserMappingConfig, error) {
	if err := validateMappingType(mappingType); err != nil {
		return nil, err
	}
	return ms.configRepo.ListByForm(ctx, nil, formUID, mappingType)
}

func (ms *mappingService) PutConfig(ctx context.Context, formUID uuid.UUID, mappingType string, rows []MappingConfigInput) ([]*types.UserMappingConfig, error) {
	if err := validateMappingType(mappingType); err != nil {
		return nil, err
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("No request data found in context")
	}
	kept := make([]*types.UserMappingConfig, 0, len(rows))
	for _, row := range rows {
		// A substitution that maps a key to itself is a no-op.
		if row.MappingValues.Equal(row.MappedTo) {
			continue
		}
		from, err := json.Marshal(row.MappingValues)
		if err != nil {
			return nil, fmt.Errorf("Failed to encode mapping_values: %w", err)
		}
		to, err := json.Marshal(row.MappedTo)
		if err != nil {
			return nil, fmt.Errorf("Failed to encode mapped_to: %w", err)
		}
		kept = append(kept, &types.UserMappingConfig{
			ID:            uuid.New(),
			FormUID:       formUID,
			MappingType:   mappingType,
			MappingValues: datatypes.JSON(from),
			MappedTo:      datatypes.JSON(to),
		})
	}
	var saved []*types.UserMappingConfig
	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, err := ms.configRepo.ReplaceForForm(ctx, tx, formUID, mappingType, kept)
		if err != nil {
			return fmt.Errorf("Failed to save mapping config: %w", err)
		}
		saved = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (ms *mappingService) DeleteConfig(ctx context.Context, formUID uuid.UUID, mappingType string) error {
	if err := validateMappingType(mappingType); err != nil {
		return err
	}
	return ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ms.configRepo.ReplaceForForm(ctx, tx, formUID, mappingType, nil)
		return err
	})
}

func (ms *mappingService) TargetSupervisors(ctx context.Context, formUID uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	targets, err := ms.targetRepo.ListByForm(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load targets: %w", err)
	}
	uids := make([]uuid.UUID, 0, len(targets))
	for _, t := range targets {
		uids = append(uids, t.ID)
	}
	rows, err := ms.mappingRepo.ListByTargets(ctx, nil, uids)
	if err != nil {
		return nil, fmt.Errorf("Failed to load target mappings: %w", err)
	}
	out := make(map[uuid.UUID]uuid.UUID, len(rows))
	for _, row := range rows {
		out[row.TargetUID] = row.UserID
	}
	return out, nil
}

func (ms *mappingService) EnumeratorSupervisors(ctx context.Context, formUID uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	fc, err := ms.loadFormContext(ctx, formUID)
	if err != nil {
		return nil, err
	}
	enumerators, err := ms.enumeratorRepo.ListByForm(ctx, nil, formUID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load enumerators: %w", err)
	}
	values := make(map[uuid.UUID]mapping.Values, len(enumerators))
	for _, e := range enumerators {
		v, err := mapping.ResolveValues(fc.criteria, mapping.Entity{
			UID:         e.ID,
			Gender:      e.Gender,
			Language:    e.Language,
			LocationUID: e.LocationUID,
		}, fc.survey.PrimeGeoLevelUID, fc.ancestry)
		if err != nil {
			return nil, fmt.Errorf("Enumerator %s: %w", e.EnumeratorID, err)
		}
		values[e.ID] = v
	}
	overrides, err := ms.targetOverrides(ctx, formUID, types.MappingTypeSurveyor)
	if err != nil {
		return nil, err
	}
	mappedTo := mapping.ResolveAllMappedTo(values, overrides, fc.supervisors)
	pairs := mapping.GenerateMappings(mappedTo, fc.supervisors)
	out := make(map[uuid.UUID]uuid.UUID, len(pairs))
	for _, p := range pairs {
		out[p.TargetUID] = p.UserID
	}
	return out, nil
}

func validateMappingType(mappingType string) error {
	switch mappingType {
	case types.MappingTypeTarget, types.MappingTypeSurveyor:
		return nil
	default:
		return fmt.Errorf("Unknown mapping type %q", mappingType)
	}
}

func criteriaContain(criteria []mapping.Criterion, c mapping.Criterion) bool {
	for _, existing := range criteria {
		if existing == c {
			return true
		}
	}
	return false
}
