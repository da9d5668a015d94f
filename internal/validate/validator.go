// Package validate runs the schema and sanity passes over normalized batches.
package validate

import (
	"fmt"
	"log/slog"
	"time"

	"nba-ingest-service/internal/contracts"
	"nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/domain/stats"
	"nba-ingest-service/internal/domain/teams"
	"nba-ingest-service/internal/logging"
)

// DefaultTeamCount is the number of current franchises.
const DefaultTeamCount = 30

// Plausibility bounds for warnings.
const (
	MaxPlausibleScore  = 200
	MaxPlausibleMargin = 70
	MinPlausiblePace   = 85.0
	MaxPlausiblePace   = 115.0
	extremeWinPctGames = 10
)

// Validator checks batches at the trust boundary. Records are never modified.
type Validator struct {
	teamCount int
	logger    *slog.Logger
}

// New builds a validator; teamCount <= 0 uses DefaultTeamCount.
func New(teamCount int, logger *slog.Logger) *Validator {
	if teamCount <= 0 {
		teamCount = DefaultTeamCount
	}
	return &Validator{teamCount: teamCount, logger: logger}
}

type checkable interface {
	Ref() string
	Check() contracts.Violations
}

// schemaPass splits records into those passing their contract and rejections.
func schemaPass[R checkable](records []R) ([]R, []Rejection) {
	passed := make([]R, 0, len(records))
	var rejections []Rejection
	for _, rec := range records {
		if v := rec.Check(); len(v) > 0 {
			rejections = append(rejections, Rejection{Ref: rec.Ref(), Pass: PassSchema, Reason: v.Error()})
			continue
		}
		passed = append(passed, rec)
	}
	return passed, rejections
}

func (v *Validator) logRejections(kind string, rejections []Rejection) {
	for _, r := range rejections {
		logging.Warn(v.logger, "record rejected", "kind", kind, "ref", r.Ref, "pass", string(r.Pass), "reason", r.Reason)
	}
}

// Teams validates a team batch. Duplicate ids, a wrong number of current
// franchises, or duplicate abbreviations reject the whole batch.
func (v *Validator) Teams(records []contracts.TeamRecord, observedAt time.Time) (Result[teams.Team], error) {
	passed, rejections := schemaPass(records)
	res := Result[teams.Team]{Rejections: rejections}
	v.logRejections("team", rejections)

	seen := make(map[int64]struct{}, len(passed))
	abbrevs := make(map[string]int64, len(passed))
	current := 0
	for _, rec := range passed {
		id := *rec.ID
		if _, dup := seen[id]; dup {
			return res, &SanityError{Rule: RuleUniqueID, Detail: fmt.Sprintf("team id %d appears more than once", id)}
		}
		seen[id] = struct{}{}

		team := rec.Team(observedAt)
		if !team.Current() {
			continue
		}
		current++
		if other, dup := abbrevs[team.Abbreviation]; dup {
			return res, &SanityError{Rule: RuleUniqueAbbrev, Detail: fmt.Sprintf("abbreviation %s used by teams %d and %d", team.Abbreviation, other, id)}
		}
		abbrevs[team.Abbreviation] = id
	}
	if current != v.teamCount {
		return res, &SanityError{Rule: RuleTeamCardinality, Detail: fmt.Sprintf("expected %d current teams, got %d", v.teamCount, current)}
	}

	res.Accepted = make([]teams.Team, 0, len(passed))
	for _, rec := range passed {
		res.Accepted = append(res.Accepted, rec.Team(observedAt))
	}
	return res, nil
}

// Games validates a game batch. Duplicate ids reject the batch; a final game
// without two non-negative scores, any negative score, or a team playing
// itself drops only that game.
func (v *Validator) Games(records []contracts.GameRecord, observedAt time.Time) (Result[games.Game], error) {
	passed, rejections := schemaPass(records)
	res := Result[games.Game]{Rejections: rejections}
	v.logRejections("game", rejections)

	seen := make(map[int64]struct{}, len(passed))
	for _, rec := range passed {
		if _, dup := seen[*rec.ID]; dup {
			return res, &SanityError{Rule: RuleUniqueID, Detail: fmt.Sprintf("game id %d appears more than once", *rec.ID)}
		}
		seen[*rec.ID] = struct{}{}
	}

	var dropped []Rejection
	res.Accepted = make([]games.Game, 0, len(passed))
	for _, rec := range passed {
		if reason := gameSanity(rec); reason != "" {
			dropped = append(dropped, Rejection{Ref: rec.Ref(), Pass: PassSanity, Reason: reason})
			continue
		}
		game := rec.Game(observedAt)
		res.Warnings = append(res.Warnings, gameWarnings(game)...)
		res.Accepted = append(res.Accepted, game)
	}
	v.logRejections("game", dropped)
	res.Rejections = append(res.Rejections, dropped...)
	return res, nil
}

func gameSanity(rec contracts.GameRecord) string {
	if *rec.HomeTeamID == *rec.VisitorTeamID {
		return fmt.Sprintf("game %d: home and visitor are both team %d", *rec.ID, *rec.HomeTeamID)
	}
	if (rec.HomeScore != nil && *rec.HomeScore < 0) || (rec.VisitorScore != nil && *rec.VisitorScore < 0) {
		return fmt.Sprintf("game %d: negative score", *rec.ID)
	}
	if rec.Final() && (rec.HomeScore == nil || rec.VisitorScore == nil) {
		return fmt.Sprintf("game %d: final without both scores", *rec.ID)
	}
	return ""
}

func gameWarnings(g games.Game) []Warning {
	if g.HomeScore == nil || g.VisitorScore == nil {
		return nil
	}
	ref := g.EntityID()
	home, visitor := *g.HomeScore, *g.VisitorScore
	var out []Warning
	if home > MaxPlausibleScore || visitor > MaxPlausibleScore {
		out = append(out, Warning{Ref: ref, Rule: "score_above_max", Detail: fmt.Sprintf("%d-%d", home, visitor)})
	}
	margin := home - visitor
	if margin < 0 {
		margin = -margin
	}
	if margin > MaxPlausibleMargin {
		out = append(out, Warning{Ref: ref, Rule: "margin_above_max", Detail: fmt.Sprintf("margin %d", margin)})
	}
	return out
}

// SeasonStats validates a season aggregate batch. Duplicate (team, season)
// keys reject the batch.
func (v *Validator) SeasonStats(records []contracts.SeasonStatRecord, observedAt time.Time) (Result[stats.SeasonStat], error) {
	passed, rejections := schemaPass(records)
	res := Result[stats.SeasonStat]{Rejections: rejections}
	v.logRejections("season_stat", rejections)

	seen := make(map[stats.Key]struct{}, len(passed))
	for _, rec := range passed {
		key := stats.Key{TeamID: *rec.TeamID, Season: *rec.Season}
		if _, dup := seen[key]; dup {
			return res, &SanityError{Rule: RuleUniqueSeasonStat, Detail: fmt.Sprintf("team %d season %d appears more than once", key.TeamID, key.Season)}
		}
		seen[key] = struct{}{}
	}

	res.Accepted = make([]stats.SeasonStat, 0, len(passed))
	for _, rec := range passed {
		stat := rec.SeasonStat(observedAt)
		res.Warnings = append(res.Warnings, statWarnings(stat)...)
		res.Accepted = append(res.Accepted, stat)
	}
	return res, nil
}

func statWarnings(s stats.SeasonStat) []Warning {
	ref := s.EntityID()
	var out []Warning
	if s.Pace < MinPlausiblePace || s.Pace > MaxPlausiblePace {
		out = append(out, Warning{Ref: ref, Rule: "pace_out_of_range", Detail: fmt.Sprintf("pace %.1f", s.Pace)})
	}
	if (s.WinPct == 0 || s.WinPct == 1) && s.GamesPlayed > extremeWinPctGames {
		out = append(out, Warning{Ref: ref, Rule: "extreme_win_pct", Detail: fmt.Sprintf("win pct %.3f over %d games", s.WinPct, s.GamesPlayed)})
	}
	return out
}
