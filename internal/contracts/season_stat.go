package contracts

import (
	"fmt"
	"time"

	"nba-ingest-service/internal/domain/stats"
)

// SeasonStatRecord is a team season aggregate candidate.
type SeasonStatRecord struct {
	TeamID        *int64   `json:"team_id"`
	Season        *int     `json:"season"`
	GamesPlayed   *int     `json:"games_played"`
	WinPct        *float64 `json:"win_pct"`
	NetRating     *float64 `json:"net_rating"`
	Pace          *float64 `json:"pace"`
	OffRating     *float64 `json:"off_rating"`
	DefRating     *float64 `json:"def_rating"`
	Off3PARate    *float64 `json:"off_3pa_rate"`
	DefOpp3PARate *float64 `json:"def_opp_3pa_rate"`
}

// Ref identifies the record in reject lists even when it is malformed.
func (r SeasonStatRecord) Ref() string {
	if r.TeamID == nil || r.Season == nil {
		return "season_stat:?"
	}
	return fmt.Sprintf("season_stat:%d:%d", *r.TeamID, *r.Season)
}

// Check lists every violated field constraint.
func (r SeasonStatRecord) Check() Violations {
	var c checker
	c.requiredID("team_id", r.TeamID)
	c.intRange("season", r.Season, true, MinSeason, 2100)
	c.intRange("games_played", r.GamesPlayed, false, 0, 110)
	c.floatRange("win_pct", r.WinPct, true, 0, 1, false)
	c.floatRange("pace", r.Pace, true, 0, 200, true)
	c.floatRange("off_rating", r.OffRating, true, 0, 200, true)
	c.floatRange("def_rating", r.DefRating, true, 0, 200, true)
	c.floatRange("net_rating", r.NetRating, false, -100, 100, false)
	c.floatRange("off_3pa_rate", r.Off3PARate, true, 0, 1, false)
	c.floatRange("def_opp_3pa_rate", r.DefOpp3PARate, true, 0, 1, false)
	return c.out
}

// SeasonStat converts a checked record. A missing net rating is derived
// from the offensive and defensive ratings.
func (r SeasonStatRecord) SeasonStat(observedAt time.Time) stats.SeasonStat {
	s := stats.SeasonStat{
		TeamID:        deref(r.TeamID),
		Season:        deref(r.Season),
		GamesPlayed:   deref(r.GamesPlayed),
		WinPct:        deref(r.WinPct),
		Pace:          deref(r.Pace),
		OffRating:     deref(r.OffRating),
		DefRating:     deref(r.DefRating),
		Off3PARate:    deref(r.Off3PARate),
		DefOpp3PARate: deref(r.DefOpp3PARate),
		ObservedAt:    observedAt,
	}
	if r.NetRating != nil {
		s.NetRating = *r.NetRating
	} else {
		s.NetRating = s.OffRating - s.DefRating
	}
	return s
}
