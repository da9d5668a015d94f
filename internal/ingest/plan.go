package ingest

import (
	"fmt"

	"nba-ingest-service/internal/timeutil"
)

// Plan describes a batch of units as callers request it.
type Plan struct {
	Kind   Kind
	Date   string
	End    string
	Season int
}

// Units expands the plan for provider: one games unit per day in
// Date..End, or a single teams or stats unit.
func (pl Plan) Units(provider string) ([]Unit, error) {
	switch pl.Kind {
	case KindGames:
		if pl.Date == "" {
			return nil, fmt.Errorf("games ingestion requires a date")
		}
		days, err := timeutil.DateRange(pl.Date, pl.End)
		if err != nil {
			return nil, err
		}
		units := make([]Unit, 0, len(days))
		for _, d := range days {
			units = append(units, GamesUnit(provider, d))
		}
		return units, nil
	case KindTeams:
		return []Unit{TeamsUnit(provider)}, nil
	case KindStats:
		u := SeasonStatsUnit(provider, pl.Season)
		if err := u.Validate(); err != nil {
			return nil, err
		}
		return []Unit{u}, nil
	default:
		return nil, fmt.Errorf("unknown unit kind %q", pl.Kind)
	}
}
