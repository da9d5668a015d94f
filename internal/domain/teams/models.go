package teams

import (
	"fmt"
	"time"
)

// Team is a league franchise keyed by the provider's stable league id.
// Historical franchises carry an empty conference.
type Team struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	FullName     string    `json:"fullName"`
	Abbreviation string    `json:"abbreviation"`
	City         string    `json:"city"`
	Conference   string    `json:"conference"`
	Division     string    `json:"division"`
	ObservedAt   time.Time `json:"observedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Conferences of current franchises.
const (
	ConferenceEast = "East"
	ConferenceWest = "West"
)

// Current reports whether the team plays in a current conference.
func (t Team) Current() bool {
	return t.Conference == ConferenceEast || t.Conference == ConferenceWest
}

// EntityID is the identifier recorded in manifests.
func (t Team) EntityID() string {
	return fmt.Sprintf("team:%d", t.ID)
}
