package mapping

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldscope/surveyops-backend/internal/types"
)

// AncestorEntry is one step of a location's resolved chain, ordered from
// the top geo level down to the location itself.
type AncestorEntry struct {
	GeoLevelName string    `json:"geo_level_name"`
	GeoLevelUID  uuid.UUID `json:"geo_level_uid"`
	LocationName string    `json:"location_name"`
	LocationID   string    `json:"location_id"`
	LocationUID  uuid.UUID `json:"location_uid"`
}

// ResolveAncestry computes every location's full ancestor chain in one
// pass per geo level, top level first, so each location's chain is its
// parent's already-computed chain plus itself. orderedLevels must be the
// survey's geo-level chain ordered root→leaf (HierarchyValidator output);
// no per-location re-walking happens.
func ResolveAncestry(orderedLevels []types.GeoLevel, locations []types.Location) (map[uuid.UUID][]AncestorEntry, error) {
	levelName := make(map[uuid.UUID]string, len(orderedLevels))
	levelDepth := make(map[uuid.UUID]int, len(orderedLevels))
	for i, lvl := range orderedLevels {
		levelName[lvl.ID] = lvl.Name
		levelDepth[lvl.ID] = i
	}

	byLevel := make([][]types.Location, len(orderedLevels))
	for _, loc := range locations {
		depth, ok := levelDepth[loc.GeoLevelUID]
		if !ok {
			return nil, fmt.Errorf("location %s (%s) references unknown geo level %s", loc.LocationID, loc.LocationName, loc.GeoLevelUID)
		}
		byLevel[depth] = append(byLevel[depth], loc)
	}

	chains := make(map[uuid.UUID][]AncestorEntry, len(locations))
	for depth, levelLocations := range byLevel {
		for _, loc := range levelLocations {
			self := AncestorEntry{
				GeoLevelName: levelName[loc.GeoLevelUID],
				GeoLevelUID:  loc.GeoLevelUID,
				LocationName: loc.LocationName,
				LocationID:   loc.LocationID,
				LocationUID:  loc.ID,
			}
			if depth == 0 {
				if loc.ParentLocationUID != nil {
					return nil, fmt.Errorf("top level location %s has a parent location", loc.LocationID)
				}
				chains[loc.ID] = []AncestorEntry{self}
				continue
			}
			if loc.ParentLocationUID == nil {
				return nil, fmt.Errorf("location %s at level %q has no parent location", loc.LocationID, levelName[loc.GeoLevelUID])
			}
			parentChain, ok := chains[*loc.ParentLocationUID]
			if !ok || len(parentChain) != depth {
				return nil, fmt.Errorf("location %s: parent %s missing or not at the parent geo level", loc.LocationID, loc.ParentLocationUID)
			}
			chain := make([]AncestorEntry, 0, len(parentChain)+1)
			chain = append(chain, parentChain...)
			chains[loc.ID] = append(chain, self)
		}
	}
	return chains, nil
}
