package games

import (
	"fmt"
	"time"
)

// GameStatus mirrors the lifecycle states of a scheduled game.
type GameStatus string

const (
	StatusScheduled  GameStatus = "scheduled"
	StatusInProgress GameStatus = "in_progress"
	StatusFinal      GameStatus = "final"
	StatusPostponed  GameStatus = "postponed"
	StatusCanceled   GameStatus = "canceled"
)

// Valid reports whether s is a known status.
func (s GameStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusFinal, StatusPostponed, StatusCanceled:
		return true
	}
	return false
}

// Game is upserted by id as its status and scores evolve. Scores are set
// only once the game is final.
type Game struct {
	ID            int64      `json:"id"`
	Date          string     `json:"date"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	Season        int        `json:"season"`
	Status        GameStatus `json:"status"`
	Period        int        `json:"period,omitempty"`
	Postseason    bool       `json:"postseason"`
	HomeTeamID    int64      `json:"homeTeamId"`
	VisitorTeamID int64      `json:"visitorTeamId"`
	HomeScore     *int       `json:"homeScore"`
	VisitorScore  *int       `json:"visitorScore"`
	ObservedAt    time.Time  `json:"observedAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// EntityID is the identifier recorded in manifests.
func (g Game) EntityID() string {
	return fmt.Sprintf("game:%d", g.ID)
}

// RangeResponse is the payload returned by /games for a date or date range.
type RangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Games []Game `json:"games"`
}

// NewRangeResponse builds a RangeResponse payload.
func NewRangeResponse(start, end string, games []Game) RangeResponse {
	if games == nil {
		games = []Game{}
	}
	return RangeResponse{Start: start, End: end, Games: games}
}
