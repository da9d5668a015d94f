package balldontlie

import (
	"strings"

	"nba-ingest-service/internal/contracts"
	"nba-ingest-service/internal/domain/games"
)

func mapTeam(t teamResponse) contracts.TeamRecord {
	return contracts.TeamRecord{
		ID:           t.ID,
		Name:         t.Name,
		FullName:     t.FullName,
		Abbreviation: trimmed(t.Abbreviation),
		City:         t.City,
		Conference:   trimmed(t.Conference),
		Division:     trimmed(t.Division),
	}
}

// mapGame keeps scores only for final games; upstream reports 0-0 for
// games that have not started.
func mapGame(g gameResponse) contracts.GameRecord {
	rec := contracts.GameRecord{
		ID:         g.ID,
		Date:       datePart(g.Date),
		StartTime:  g.Datetime,
		Season:     g.Season,
		Period:     g.Period,
		Postseason: g.Postseason,
	}
	if g.Status != nil {
		status := string(mapStatus(*g.Status))
		rec.Status = &status
	}
	if g.HomeTeam != nil {
		rec.HomeTeamID = g.HomeTeam.ID
	}
	if g.VisitorTeam != nil {
		rec.VisitorTeamID = g.VisitorTeam.ID
	}
	if rec.Final() {
		rec.HomeScore = g.HomeTeamScore
		rec.VisitorScore = g.VisitorTeamScore
	}
	return rec
}

func mapSeasonStat(s teamSeasonAverageResponse) contracts.SeasonStatRecord {
	rec := contracts.SeasonStatRecord{
		Season:        s.Season,
		WinPct:        s.Stats[statWinPct],
		NetRating:     s.Stats[statNetRating],
		Pace:          s.Stats[statPace],
		OffRating:     s.Stats[statOffRating],
		DefRating:     s.Stats[statDefRating],
		Off3PARate:    s.Stats[statFG3ARate],
		DefOpp3PARate: s.Stats[statOppFG3ARate],
	}
	if s.Team != nil {
		rec.TeamID = s.Team.ID
	}
	if gp := s.Stats[statGamesPlayed]; gp != nil {
		n := int(*gp)
		rec.GamesPlayed = &n
	}
	return rec
}

func mapStatus(status string) games.GameStatus {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case strings.HasPrefix(s, "final"), s == "ended":
		return games.StatusFinal
	case s == "postponed":
		return games.StatusPostponed
	case s == "canceled", s == "cancelled":
		return games.StatusCanceled
	case s == "in progress", s == "halftime", strings.Contains(s, "qtr"),
		strings.HasPrefix(s, "end of"), strings.HasSuffix(s, " ot"), s == "ot":
		return games.StatusInProgress
	default:
		return games.StatusScheduled
	}
}

// datePart reduces timestamps to their calendar date.
func datePart(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	return &s
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}
