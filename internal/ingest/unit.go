package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"nba-ingest-service/internal/contracts"
	"nba-ingest-service/internal/timeutil"
)

// Kind names the entity family a unit of work ingests.
type Kind string

const (
	KindGames Kind = "games"
	KindTeams Kind = "teams"
	KindStats Kind = "stats"
)

// ParseKind accepts the CLI and admin API spellings of a kind.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "games", "game":
		return KindGames, nil
	case "teams", "team":
		return KindTeams, nil
	case "stats", "season_stats", "season-stats":
		return KindStats, nil
	default:
		return "", fmt.Errorf("unknown unit kind %q", raw)
	}
}

// Unit identifies one unit of work: every entity of Kind in a scope.
type Unit struct {
	Kind     Kind
	Provider string
	Date     string
	Season   int
}

// GamesUnit covers every game on date.
func GamesUnit(provider, date string) Unit {
	return Unit{Kind: KindGames, Provider: provider, Date: date}
}

// TeamsUnit covers the league's team list.
func TeamsUnit(provider string) Unit {
	return Unit{Kind: KindTeams, Provider: provider}
}

// SeasonStatsUnit covers every team's aggregates for season.
func SeasonStatsUnit(provider string, season int) Unit {
	return Unit{Kind: KindStats, Provider: provider, Season: season}
}

// ID is the stable "<provider>/<kind>/<scope>" identifier hashed into the
// manifest.
func (u Unit) ID() string {
	return u.Provider + "/" + string(u.Kind) + "/" + u.scope()
}

func (u Unit) scope() string {
	switch u.Kind {
	case KindGames:
		return u.Date
	case KindStats:
		return strconv.Itoa(u.Season)
	default:
		return "league"
	}
}

// Validate rejects units whose scope is missing or malformed.
func (u Unit) Validate() error {
	if u.Provider == "" {
		return fmt.Errorf("unit %s: provider is required", u.ID())
	}
	switch u.Kind {
	case KindGames:
		if _, err := timeutil.ParseDate(u.Date); err != nil {
			return fmt.Errorf("unit %s: invalid date %q", u.ID(), u.Date)
		}
	case KindStats:
		if u.Season < contracts.MinSeason {
			return fmt.Errorf("unit %s: invalid season %d", u.ID(), u.Season)
		}
	case KindTeams:
	default:
		return fmt.Errorf("unknown unit kind %q", u.Kind)
	}
	return nil
}
