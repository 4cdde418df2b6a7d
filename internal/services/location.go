package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fieldscope/surveyops-backend/internal/assignment"
	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/mapping"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/types"
)

// LocationColumnPair names the two upload columns carrying one geo level's
// location id and name.
type LocationColumnPair struct {
	GeoLevelName       string `json:"geo_level_name"`
	LocationIDColumn   string `json:"location_id_column"`
	LocationNameColumn string `json:"location_name_column"`
}

// LocationWithAncestry is the long-format row: a location plus its full
// ancestor chain, top level first.
type LocationWithAncestry struct {
	Location *types.Location         `json:"location"`
	Ancestry []mapping.AncestorEntry `json:"ancestry"`
}

type LocationService interface {
	UploadLocations(ctx context.Context, surveyID uuid.UUID, records [][]string, columns []LocationColumnPair) ([]*types.Location, error)
	ListLocations(ctx context.Context, surveyID uuid.UUID) ([]*types.Location, error)
	ListLocationsLong(ctx context.Context, surveyID uuid.UUID) ([]LocationWithAncestry, error)
	ResolveAncestry(ctx context.Context, surveyID uuid.UUID) (map[uuid.UUID][]mapping.AncestorEntry, error)
}

type locationService struct {
	db              *gorm.DB
	log             *logger.Logger
	locationRepo    repos.LocationRepo
	geoLevelService GeoLevelService
	surveyService   SurveyService
	rdb             *redis.Client
	cacheTTL        time.Duration
}

func NewLocationService(
	db *gorm.DB,
	log *logger.Logger,
	locationRepo repos.LocationRepo,
	geoLevelService GeoLevelService,
	surveyService SurveyService,
	rdb *redis.Client,
) LocationService {
	serviceLog := log.With("service", "LocationService")
	return &locationService{
		db:              db,
		log:             serviceLog,
		locationRepo:    locationRepo,
		geoLevelService: geoLevelService,
		surveyService:   surveyService,
		rdb:             rdb,
		cacheTTL:        time.Hour,
	}
}

// UploadLocations replaces the survey's location table from a tabular
// upload. Each record carries one bottom-level location with the id/name of
// every ancestor level on the same row; intermediate locations are deduped
// by their natural id.
func (ls *locationService) UploadLocations(ctx context.Context, surveyID uuid.UUID, records [][]string, columns []LocationColumnPair) ([]*types.Location, error) {
	if err := ls.surveyService.RequireAdmin(ctx, surveyID); err != nil {
		return nil, err
	}
	levels, err := ls.geoLevelService.ListGeoLevels(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load geo levels: %w", err)
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("Geo levels must be configured before uploading locations")
	}

	pairByLevel := make(map[string]LocationColumnPair, len(columns))
	columnMapping := assignment.ColumnMapping{}
	for _, pair := range columns {
		pairByLevel[pair.GeoLevelName] = pair
		columnMapping[pair.GeoLevelName+"_location_id"] = pair.LocationIDColumn
		columnMapping[pair.GeoLevelName+"_location_name"] = pair.LocationNameColumn
	}
	for _, level := range levels {
		if _, ok := pairByLevel[level.Name]; !ok {
			return nil, fmt.Errorf("Missing column mapping for geo level %q", level.Name)
		}
	}

	batch, err := assignment.NewBatch(records, columnMapping)
	if err != nil {
		return nil, err
	}

	// Build locations level by level so parents exist before children.
	seen := make(map[string]*types.Location)
	var ordered []*types.Location
	for _, row := range batch.Rows {
		var parent *types.Location
		for _, level := range levels {
			locID := row.Fields[level.Name+"_location_id"]
			locName := row.Fields[level.Name+"_location_name"]
			if locID == "" || locName == "" {
				return nil, fmt.Errorf("Row %d is missing location id or name for geo level %q", row.Number, level.Name)
			}
			key := level.ID.String() + "|" + locID
			existing, ok := seen[key]
			if ok {
				if existing.LocationName != locName {
					return nil, fmt.Errorf("Row %d renames location %q at geo level %q", row.Number, locID, level.Name)
				}
				if !sameParent(existing, parent) {
					return nil, fmt.Errorf("Row %d moves location %q to a different parent", row.Number, locID)
				}
				parent = existing
				continue
			}
			loc := &types.Location{
				ID:           uuid.New(),
				SurveyID:     surveyID,
				GeoLevelUID:  level.ID,
				LocationID:   locID,
				LocationName: locName,
			}
			if parent != nil {
				parentID := parent.ID
				loc.ParentLocationUID = &parentID
			}
			seen[key] = loc
			ordered = append(ordered, loc)
			parent = loc
		}
	}

	// Resolving the closure doubles as structural validation.
	geoLevels := make([]types.GeoLevel, 0, len(levels))
	for _, level := range levels {
		geoLevels = append(geoLevels, *level)
	}
	locations := make([]types.Location, 0, len(ordered))
	for _, loc := range ordered {
		locations = append(locations, *loc)
	}
	if _, err := mapping.ResolveAncestry(geoLevels, locations); err != nil {
		return nil, fmt.Errorf("Location table is not consistent with the geo-level chain: %w", err)
	}

	err = ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ls.locationRepo.DeleteBySurvey(ctx, tx, surveyID); err != nil {
			return fmt.Errorf("Failed to clear existing locations: %w", err)
		}
		if _, err := ls.locationRepo.CreateBatch(ctx, tx, ordered); err != nil {
			return fmt.Errorf("Failed to save locations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ls.invalidateAncestry(ctx, surveyID)
	return ordered, nil
}

func (ls *locationService) ListLocations(ctx context.Context, surveyID uuid.UUID) ([]*types.Location, error) {
	return ls.locationRepo.ListBySurvey(ctx, nil, surveyID)
}

func (ls *locationService) ListLocationsLong(ctx context.Context, surveyID uuid.UUID) ([]LocationWithAncestry, error) {
	locations, err := ls.locationRepo.ListBySurvey(ctx, nil, surveyID)
	if err != nil {
		return nil, err
	}
	ancestry, err := ls.ResolveAncestry(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	out := make([]LocationWithAncestry, 0, len(locations))
	for _, loc := range locations {
		out = append(out, LocationWithAncestry{Location: loc, Ancestry: ancestry[loc.ID]})
	}
	return out, nil
}

// ResolveAncestry returns every location's full ancestor chain, read
// through the redis cache when one is configured.
func (ls *locationService) ResolveAncestry(ctx context.Context, surveyID uuid.UUID) (map[uuid.UUID][]mapping.AncestorEntry, error) {
	if ls.rdb != nil {
		raw, err := ls.rdb.Get(ctx, ancestryCacheKey(surveyID)).Bytes()
		if err == nil {
			var cached map[uuid.UUID][]mapping.AncestorEntry
			if jErr := json.Unmarshal(raw, &cached); jErr == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			ls.log.Warn("Ancestry cache read failed", "error", err)
		}
	}

	levels, err := ls.geoLevelService.ListGeoLevels(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load geo levels: %w", err)
	}
	locationRows, err := ls.locationRepo.ListBySurvey(ctx, nil, surveyID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load locations: %w", err)
	}
	geoLevels := make([]types.GeoLevel, 0, len(levels))
	for _, level := range levels {
		geoLevels = append(geoLevels, *level)
	}
	locations := make([]types.Location, 0, len(locationRows))
	for _, loc := range locationRows {
		locations = append(locations, *loc)
	}
	ancestry, err := mapping.ResolveAncestry(geoLevels, locations)
	if err != nil {
		return nil, err
	}

	if ls.rdb != nil {
		if raw, jErr := json.Marshal(ancestry); jErr == nil {
			if sErr := ls.rdb.Set(ctx, ancestryCacheKey(surveyID), raw, ls.cacheTTL).Err(); sErr != nil {
				ls.log.Warn("Ancestry cache write failed", "error", sErr)
			}
		}
	}
	return ancestry, nil
}

func (ls *locationService) invalidateAncestry(ctx context.Context, surveyID uuid.UUID) {
	if ls.rdb == nil {
		return
	}
	if err := ls.rdb.Del(ctx, ancestryCacheKey(surveyID)).Err(); err != nil {
		ls.log.Warn("Ancestry cache invalidation failed", "error", err)
	}
}

func ancestryCacheKey(surveyID uuid.UUID) string {
	return "surveyops:location-ancestry:" + surveyID.String()
}

func sameParent(existing *types.Location, parent *types.Location) bool {
	if existing.ParentLocationUID == nil {
		return parent == nil
	}
	return parent != nil && *existing.ParentLocationUID == parent.ID
}
