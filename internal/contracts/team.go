package contracts

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"nba-ingest-service/internal/domain/teams"
)

var abbreviationPattern = regexp.MustCompile(`^[A-Z]{2,4}$`)

// TeamRecord is a team candidate as normalized from a provider payload.
type TeamRecord struct {
	ID           *int64  `json:"id"`
	Name         *string `json:"name"`
	FullName     *string `json:"full_name"`
	Abbreviation *string `json:"abbreviation"`
	City         *string `json:"city"`
	Conference   *string `json:"conference"`
	Division     *string `json:"division"`
}

// Ref identifies the record in reject lists even when it is malformed.
func (r TeamRecord) Ref() string {
	if r.ID == nil {
		return "team:?"
	}
	return fmt.Sprintf("team:%d", *r.ID)
}

// Check lists every violated field constraint.
func (r TeamRecord) Check() Violations {
	var c checker
	c.requiredID("id", r.ID)
	c.stringLen("name", r.Name, true, 1, 64)
	c.stringLen("full_name", r.FullName, true, 1, 128)
	c.stringLen("abbreviation", r.Abbreviation, true, 2, 4)
	if r.Abbreviation != nil && len(*r.Abbreviation) >= 2 && len(*r.Abbreviation) <= 4 && !abbreviationPattern.MatchString(*r.Abbreviation) {
		c.fail("abbreviation", ConstraintPattern, "must be upper-case letters, got %q", *r.Abbreviation)
	}
	c.stringLen("city", r.City, false, 1, 64)
	if conf := strings.TrimSpace(deref(r.Conference)); conf != "" && conf != teams.ConferenceEast && conf != teams.ConferenceWest {
		c.fail("conference", ConstraintOneOf, "must be East or West, got %q", conf)
	}
	return c.out
}

// Team converts a checked record.
func (r TeamRecord) Team(observedAt time.Time) teams.Team {
	return teams.Team{
		ID:           deref(r.ID),
		Name:         strings.TrimSpace(deref(r.Name)),
		FullName:     strings.TrimSpace(deref(r.FullName)),
		Abbreviation: deref(r.Abbreviation),
		City:         strings.TrimSpace(deref(r.City)),
		Conference:   strings.TrimSpace(deref(r.Conference)),
		Division:     strings.TrimSpace(deref(r.Division)),
		ObservedAt:   observedAt,
	}
}
