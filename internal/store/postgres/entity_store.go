package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"nba-ingest-service/internal/domain/games"
	"nba-ingest-service/internal/domain/stats"
	"nba-ingest-service/internal/domain/teams"
	"nba-ingest-service/internal/store"
	"nba-ingest-service/internal/timeutil"
)

// EntityStore implements store.Entities using PostgreSQL.
type EntityStore struct {
	pool *Pool
	now  func() time.Time
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(pool *Pool) *EntityStore {
	return &EntityStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ store.Entities = (*EntityStore)(nil)

func (s *EntityStore) UpsertTeam(ctx context.Context, t teams.Team) error {
	query := `
		INSERT INTO teams (
			id, name, full_name, abbreviation, city, conference, division, observed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			full_name = EXCLUDED.full_name,
			abbreviation = EXCLUDED.abbreviation,
			city = EXCLUDED.city,
			conference = EXCLUDED.conference,
			division = EXCLUDED.division,
			observed_at = EXCLUDED.observed_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		t.ID, t.Name, t.FullName, t.Abbreviation, t.City, t.Conference, t.Division,
		t.ObservedAt, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert team %d: %w", t.ID, err)
	}
	return nil
}

func (s *EntityStore) GetTeam(ctx context.Context, id int64) (teams.Team, error) {
	query := `
		SELECT id, name, full_name, abbreviation, city, conference, division, observed_at, updated_at
		FROM teams
		WHERE id = $1
	`
	t, err := scanTeam(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return teams.Team{}, store.ErrNotFound
		}
		return teams.Team{}, fmt.Errorf("get team %d: %w", id, err)
	}
	return t, nil
}

func (s *EntityStore) ListTeams(ctx context.Context) ([]teams.Team, error) {
	query := `
		SELECT id, name, full_name, abbreviation, city, conference, division, observed_at, updated_at
		FROM teams
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	out := make([]teams.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *EntityStore) UpsertGame(ctx context.Context, g games.Game) error {
	query := `
		INSERT INTO games (
			id, game_date, start_time, season, status, period, postseason,
			home_team_id, visitor_team_id, home_score, visitor_score, observed_at, updated_at
		) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			start_time = EXCLUDED.start_time,
			season = EXCLUDED.season,
			status = EXCLUDED.status,
			period = EXCLUDED.period,
			postseason = EXCLUDED.postseason,
			home_team_id = EXCLUDED.home_team_id,
			visitor_team_id = EXCLUDED.visitor_team_id,
			home_score = EXCLUDED.home_score,
			visitor_score = EXCLUDED.visitor_score,
			observed_at = EXCLUDED.observed_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		g.ID, g.Date, g.StartTime, g.Season, string(g.Status), g.Period, g.Postseason,
		g.HomeTeamID, g.VisitorTeamID, g.HomeScore, g.VisitorScore, g.ObservedAt, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert game %d: %w", g.ID, err)
	}
	return nil
}

func (s *EntityStore) GetGame(ctx context.Context, id int64) (games.Game, error) {
	query := gameColumns + ` WHERE id = $1`
	g, err := scanGame(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return games.Game{}, store.ErrNotFound
		}
		return games.Game{}, fmt.Errorf("get game %d: %w", id, err)
	}
	return g, nil
}

func (s *EntityStore) ListGames(ctx context.Context, start, end string) ([]games.Game, error) {
	query := gameColumns + ` WHERE game_date BETWEEN $1::date AND $2::date ORDER BY game_date, id`
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	out := make([]games.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *EntityStore) UpsertSeasonStat(ctx context.Context, st stats.SeasonStat) error {
	query := `
		INSERT INTO season_stats (
			team_id, season, games_played, win_pct, net_rating, pace, off_rating, def_rating,
			off_3pa_rate, def_opp_3pa_rate, observed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (team_id, season) DO UPDATE SET
			games_played = EXCLUDED.games_played,
			win_pct = EXCLUDED.win_pct,
			net_rating = EXCLUDED.net_rating,
			pace = EXCLUDED.pace,
			off_rating = EXCLUDED.off_rating,
			def_rating = EXCLUDED.def_rating,
			off_3pa_rate = EXCLUDED.off_3pa_rate,
			def_opp_3pa_rate = EXCLUDED.def_opp_3pa_rate,
			observed_at = EXCLUDED.observed_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		st.TeamID, st.Season, st.GamesPlayed, st.WinPct, st.NetRating, st.Pace, st.OffRating, st.DefRating,
		st.Off3PARate, st.DefOpp3PARate, st.ObservedAt, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert season stat %d/%d: %w", st.TeamID, st.Season, err)
	}
	return nil
}

func (s *EntityStore) GetSeasonStat(ctx context.Context, teamID int64, season int) (stats.SeasonStat, error) {
	query := statColumns + ` WHERE team_id = $1 AND season = $2`
	st, err := scanSeasonStat(s.pool.QueryRow(ctx, query, teamID, season))
	if err != nil {
		if isNotFoundError(err) {
			return stats.SeasonStat{}, store.ErrNotFound
		}
		return stats.SeasonStat{}, fmt.Errorf("get season stat %d/%d: %w", teamID, season, err)
	}
	return st, nil
}

func (s *EntityStore) ListSeasonStats(ctx context.Context, season int) ([]stats.SeasonStat, error) {
	query := statColumns + ` WHERE season = $1 ORDER BY team_id`
	rows, err := s.pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("list season stats: %w", err)
	}
	defer rows.Close()

	out := make([]stats.SeasonStat, 0)
	for rows.Next() {
		st, err := scanSeasonStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season stat: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

const gameColumns = `
	SELECT id, game_date, start_time, season, status, period, postseason,
		home_team_id, visitor_team_id, home_score, visitor_score, observed_at, updated_at
	FROM games`

const statColumns = `
	SELECT team_id, season, games_played, win_pct, net_rating, pace, off_rating, def_rating,
		off_3pa_rate, def_opp_3pa_rate, observed_at, updated_at
	FROM season_stats`

func scanTeam(row pgx.Row) (teams.Team, error) {
	var t teams.Team
	err := row.Scan(
		&t.ID, &t.Name, &t.FullName, &t.Abbreviation, &t.City, &t.Conference, &t.Division,
		&t.ObservedAt, &t.UpdatedAt,
	)
	return t, err
}

func scanGame(row pgx.Row) (games.Game, error) {
	var (
		g      games.Game
		date   time.Time
		status string
	)
	err := row.Scan(
		&g.ID, &date, &g.StartTime, &g.Season, &status, &g.Period, &g.Postseason,
		&g.HomeTeamID, &g.VisitorTeamID, &g.HomeScore, &g.VisitorScore, &g.ObservedAt, &g.UpdatedAt,
	)
	if err != nil {
		return games.Game{}, err
	}
	g.Date = timeutil.FormatDate(date)
	g.Status = games.GameStatus(status)
	return g, nil
}

func scanSeasonStat(row pgx.Row) (stats.SeasonStat, error) {
	var st stats.SeasonStat
	err := row.Scan(
		&st.TeamID, &st.Season, &st.GamesPlayed, &st.WinPct, &st.NetRating, &st.Pace, &st.OffRating, &st.DefRating,
		&st.Off3PARate, &st.DefOpp3PARate, &st.ObservedAt, &st.UpdatedAt,
	)
	return st, err
}
