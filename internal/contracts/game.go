package contracts

import (
	"fmt"
	"time"

	"nba-ingest-service/internal/domain/games"
)

// MinSeason is the first season of the league.
const MinSeason = 1946

// GameRecord is a game candidate as normalized from a provider payload.
// Status is already mapped onto games.GameStatus values.
type GameRecord struct {
	ID            *int64  `json:"id"`
	Date          *string `json:"date"`
	StartTime     *string `json:"datetime"`
	Season        *int    `json:"season"`
	Status        *string `json:"status"`
	Period        *int    `json:"period"`
	Postseason    *bool   `json:"postseason"`
	HomeTeamID    *int64  `json:"home_team_id"`
	VisitorTeamID *int64  `json:"visitor_team_id"`
	HomeScore     *int    `json:"home_score"`
	VisitorScore  *int    `json:"visitor_score"`
}

// Ref identifies the record in reject lists even when it is malformed.
func (r GameRecord) Ref() string {
	if r.ID == nil {
		return "game:?"
	}
	return fmt.Sprintf("game:%d", *r.ID)
}

// Check lists every violated field constraint. Score plausibility is a
// batch-level concern and is not checked here.
func (r GameRecord) Check() Violations {
	var c checker
	c.requiredID("id", r.ID)
	if r.Date == nil {
		c.fail("date", ConstraintRequired, "")
	} else if _, err := time.Parse("2006-01-02", *r.Date); err != nil {
		c.fail("date", ConstraintFormat, "expected YYYY-MM-DD, got %q", *r.Date)
	}
	if r.StartTime != nil {
		if _, err := time.Parse(time.RFC3339, *r.StartTime); err != nil {
			c.fail("datetime", ConstraintFormat, "expected RFC3339, got %q", *r.StartTime)
		}
	}
	c.intRange("season", r.Season, true, MinSeason, 2100)
	if r.Status == nil {
		c.fail("status", ConstraintRequired, "")
	} else if !games.GameStatus(*r.Status).Valid() {
		c.fail("status", ConstraintOneOf, "unknown status %q", *r.Status)
	}
	c.intRange("period", r.Period, false, 0, 20)
	c.requiredID("home_team_id", r.HomeTeamID)
	c.requiredID("visitor_team_id", r.VisitorTeamID)
	return c.out
}

// Final reports whether the record claims a finished game.
func (r GameRecord) Final() bool {
	return r.Status != nil && games.GameStatus(*r.Status) == games.StatusFinal
}

// Game converts a checked record. Scores are kept only for final games.
func (r GameRecord) Game(observedAt time.Time) games.Game {
	g := games.Game{
		ID:            deref(r.ID),
		Date:          deref(r.Date),
		Season:        deref(r.Season),
		Status:        games.GameStatus(deref(r.Status)),
		Period:        deref(r.Period),
		Postseason:    deref(r.Postseason),
		HomeTeamID:    deref(r.HomeTeamID),
		VisitorTeamID: deref(r.VisitorTeamID),
		ObservedAt:    observedAt,
	}
	if r.StartTime != nil {
		if ts, err := time.Parse(time.RFC3339, *r.StartTime); err == nil {
			ts = ts.UTC()
			g.StartTime = &ts
		}
	}
	if r.Final() {
		g.HomeScore = copyInt(r.HomeScore)
		g.VisitorScore = copyInt(r.VisitorScore)
	}
	return g
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
