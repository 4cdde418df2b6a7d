package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/requestdata"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

var testDBSeq int64

// testSchema mirrors the production tables with sqlite-compatible column
// defaults. Rows created in tests always carry explicit ids.
var testSchema = []string{
	`CREATE TABLE "user" (
		id TEXT PRIMARY KEY,
		email TEXT,
		password TEXT,
		first_name TEXT,
		last_name TEXT,
		is_super_admin BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE survey (
		id TEXT PRIMARY KEY,
		name TEXT,
		description TEXT,
		prime_geo_level_uid TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE survey_admin (
		id TEXT PRIMARY KEY,
		survey_id TEXT,
		user_id TEXT,
		UNIQUE (survey_id, user_id)
	)`,
	`CREATE TABLE geo_level (
		id TEXT PRIMARY KEY,
		survey_id TEXT,
		name TEXT,
		parent_geo_level_uid TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE location (
		id TEXT PRIMARY KEY,
		survey_id TEXT,
		geo_level_uid TEXT,
		parent_location_uid TEXT,
		location_id TEXT,
		location_name TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (survey_id, location_id)
	)`,
	`CREATE TABLE role (
		id TEXT PRIMARY KEY,
		survey_id TEXT,
		name TEXT,
		reporting_role_uid TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (survey_id, name)
	)`,
	`CREATE TABLE user_hierarchy (
		id TEXT PRIMARY KEY,
		survey_id TEXT,
		user_id TEXT,
		role_uid TEXT,
		parent_user_uid TEXT,
		gender TEXT,
		language TEXT,
		location_uid TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (survey_id, user_id)
	)`,
	`CREATE TABLE form (
		id TEXT PRIMARY KEY,
		survey_id TEXT,
		name TEXT,
		mapping_criteria TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE enumerator (
		id TEXT PRIMARY KEY,
		form_uid TEXT,
		enumerator_id TEXT,
		name TEXT,
		email TEXT,
		gender TEXT,
		language TEXT,
		location_uid TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (form_uid, enumerator_id)
	)`,
	`CREATE TABLE target (
		id TEXT PRIMARY KEY,
		form_uid TEXT,
		target_id TEXT,
		gender TEXT,
		language TEXT,
		location_uid TEXT,
		custom_fields TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (form_uid, target_id)
	)`,
	`CREATE TABLE target_status (
		id TEXT PRIMARY KEY,
		target_uid TEXT UNIQUE,
		target_assignable BOOLEAN NOT NULL DEFAULT 1,
		completed_flag BOOLEAN NOT NULL DEFAULT 0,
		num_attempts INTEGER NOT NULL DEFAULT 0,
		last_attempt_on DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE user_target_mapping (
		id TEXT PRIMARY KEY,
		target_uid TEXT UNIQUE,
		user_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE user_mapping_config (
		id TEXT PRIMARY KEY,
		form_uid TEXT,
		mapping_type TEXT,
		mapping_values TEXT,
		mapped_to TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE surveyor_assignment (
		target_uid TEXT PRIMARY KEY,
		enumerator_uid TEXT,
		user_id TEXT,
		to_delete BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE assignment_email_schedule (
		id TEXT PRIMARY KEY,
		form_uid TEXT,
		name TEXT,
		dates TEXT,
		time TEXT,
		schedule_date DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// A single connection keeps the shared in-memory database alive for
	// the whole test and serializes concurrent reads.
	sqlDB.SetMaxOpenConns(1)
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// testEnv wires the full service graph over an in-memory database, the
// same way cmd/main.go wires it over postgres.
type testEnv struct {
	db  *gorm.DB
	log *logger.Logger

	assignmentRepo repos.SurveyorAssignmentRepo
	mappingRepo    repos.UserTargetMappingRepo

	surveys     SurveyService
	forms       FormService
	geoLevels   GeoLevelService
	locations   LocationService
	roles       RoleService
	hierarchy   UserHierarchyService
	enumerators EnumeratorService
	targets     TargetService
	mappings    MappingService
	assignments AssignmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()

	surveyRepo := repos.NewSurveyRepo(db, log)
	formRepo := repos.NewFormRepo(db, log)
	geoLevelRepo := repos.NewGeoLevelRepo(db, log)
	locationRepo := repos.NewLocationRepo(db, log)
	roleRepo := repos.NewRoleRepo(db, log)
	userHierarchyRepo := repos.NewUserHierarchyRepo(db, log)
	enumeratorRepo := repos.NewEnumeratorRepo(db, log)
	targetRepo := repos.NewTargetRepo(db, log)
	targetStatusRepo := repos.NewTargetStatusRepo(db, log)
	mappingRepo := repos.NewUserTargetMappingRepo(db, log)
	configRepo := repos.NewUserMappingConfigRepo(db, log)
	assignmentRepo := repos.NewSurveyorAssignmentRepo(db, log)
	scheduleRepo := repos.NewAssignmentEmailScheduleRepo(db, log)

	surveyService := NewSurveyService(db, log, surveyRepo)
	formService := NewFormService(db, log, formRepo, surveyService)
	geoLevelService := NewGeoLevelService(db, log, geoLevelRepo, surveyService)
	locationService := NewLocationService(db, log, locationRepo, geoLevelService, surveyService, nil)
	roleService := NewRoleService(db, log, roleRepo, surveyService)
	userHierarchyService := NewUserHierarchyService(db, log, userHierarchyRepo, roleService, surveyService)
	enumeratorService := NewEnumeratorService(db, log, enumeratorRepo, formService, surveyService)
	targetService := NewTargetService(db, log, targetRepo, targetStatusRepo, formService, surveyService)
	mappingService := NewMappingService(db, log, formRepo, surveyRepo, targetRepo, enumeratorRepo, userHierarchyRepo, mappingRepo, configRepo, roleService, locationService, userHierarchyService)
	assignmentService := NewAssignmentService(db, log, assignmentRepo, targetRepo, targetStatusRepo, enumeratorRepo, scheduleRepo, formRepo, mappingService, userHierarchyService)

	return &testEnv{
		db:             db,
		log:            log,
		assignmentRepo: assignmentRepo,
		mappingRepo:    mappingRepo,
		surveys:        surveyService,
		forms:          formService,
		geoLevels:      geoLevelService,
		locations:      locationService,
		roles:          roleService,
		hierarchy:      userHierarchyService,
		enumerators:    enumeratorService,
		targets:        targetService,
		mappings:       mappingService,
		assignments:    assignmentService,
	}
}

func adminCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:       userID,
		IsSuperAdmin: true,
	})
}

func userCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: userID,
	})
}

func (e *testEnv) seedUser(t *testing.T, first, last string) *types.User {
	t.Helper()
	user := &types.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("%s.%s.%s@example.org", first, last, uuid.NewString()[:8]),
		Password:  "hashed",
		FirstName: first,
		LastName:  last,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (e *testEnv) seedSurvey(t *testing.T, name string) *types.Survey {
	t.Helper()
	survey := &types.Survey{ID: uuid.New(), Name: name}
	if err := e.db.Create(survey).Error; err != nil {
		t.Fatalf("seed survey: %v", err)
	}
	return survey
}

func (e *testEnv) seedForm(t *testing.T, surveyID uuid.UUID, criteria string) *types.Form {
	t.Helper()
	form := &types.Form{
		ID:       uuid.New(),
		SurveyID: surveyID,
		Name:     "baseline",
	}
	if criteria != "" {
		form.MappingCriteria = datatypes.JSON([]byte(criteria))
	}
	if err := e.db.Create(form).Error; err != nil {
		t.Fatalf("seed form: %v", err)
	}
	return form
}

func (e *testEnv) seedTarget(t *testing.T, formUID uuid.UUID, targetID, gender string) *types.Target {
	t.Helper()
	target := &types.Target{
		ID:       uuid.New(),
		FormUID:  formUID,
		TargetID: targetID,
		Gender:   gender,
	}
	if err := e.db.Create(target).Error; err != nil {
		t.Fatalf("seed target: %v", err)
	}
	return target
}

func (e *testEnv) seedEnumerator(t *testing.T, formUID uuid.UUID, enumeratorID, gender, status string) *types.Enumerator {
	t.Helper()
	enumerator := &types.Enumerator{
		ID:           uuid.New(),
		FormUID:      formUID,
		EnumeratorID: enumeratorID,
		Name:         enumeratorID,
		Gender:       gender,
		Status:       status,
	}
	if err := e.db.Create(enumerator).Error; err != nil {
		t.Fatalf("seed enumerator: %v", err)
	}
	return enumerator
}

func (e *testEnv) seedHierarchyEntry(t *testing.T, surveyID uuid.UUID, user *types.User, roleUID uuid.UUID, parentUserUID *uuid.UUID, gender string) *types.UserHierarchy {
	t.Helper()
	entry := &types.UserHierarchy{
		ID:            uuid.New(),
		SurveyID:      surveyID,
		UserID:        user.ID,
		RoleUID:       roleUID,
		ParentUserUID: parentUserUID,
		Gender:        gender,
	}
	if err := e.db.Create(entry).Error; err != nil {
		t.Fatalf("seed hierarchy entry: %v", err)
	}
	return entry
}

func strPtr(s string) *string { return &s }
