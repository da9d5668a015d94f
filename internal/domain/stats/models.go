package stats

import (
	"fmt"
	"time"
)

// SeasonStat is a team's season aggregate, keyed by (TeamID, Season).
// Each refresh replaces the previous value for the key.
type SeasonStat struct {
	TeamID        int64     `json:"teamId"`
	Season        int       `json:"season"`
	GamesPlayed   int       `json:"gamesPlayed"`
	WinPct        float64   `json:"winPct"`
	NetRating     float64   `json:"netRating"`
	Pace          float64   `json:"pace"`
	OffRating     float64   `json:"offRating"`
	DefRating     float64   `json:"defRating"`
	Off3PARate    float64   `json:"off3paRate"`
	DefOpp3PARate float64   `json:"defOpp3paRate"`
	ObservedAt    time.Time `json:"observedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Key is the natural key of the aggregate.
func (s SeasonStat) Key() Key {
	return Key{TeamID: s.TeamID, Season: s.Season}
}

// EntityID is the identifier recorded in manifests.
func (s SeasonStat) EntityID() string {
	return fmt.Sprintf("season_stat:%d:%d", s.TeamID, s.Season)
}

// Key identifies a SeasonStat.
type Key struct {
	TeamID int64
	Season int
}
