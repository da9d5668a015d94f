package balldontlie

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"nba-ingest-service/internal/config"
	"nba-ingest-service/internal/contracts"
	"nba-ingest-service/internal/providers"
)

// Normalizer turns balldontlie pages into contract records.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

var _ providers.Normalizer = (*Normalizer)(nil)

// NewNormalizer resolves "today" in tz for date-less game requests.
func NewNormalizer(tz string) *Normalizer {
	return &Normalizer{loc: resolveLocation(tz), now: time.Now}
}

func (n *Normalizer) TeamsRequest() providers.Request {
	return providers.Request{Endpoint: providers.EndpointTeams}
}

// GamesRequest asks for one calendar day; an empty or malformed date means
// today in the configured timezone. Today and yesterday carry live status
// and scores, so they use the live cache class.
func (n *Normalizer) GamesRequest(date string) providers.Request {
	day := n.resolveDate(date)
	req := providers.Request{
		Endpoint: providers.EndpointGames,
		Params:   map[string][]string{"dates[]": {day}},
	}
	if n.inPlay(day) {
		req.TTLClass = config.TTLLive
	}
	return req
}

// inPlay reports whether games on day may still change: today, yesterday
// (games running past midnight) and anything later.
func (n *Normalizer) inPlay(day string) bool {
	d, err := time.ParseInLocation("2006-01-02", day, n.loc)
	if err != nil {
		return false
	}
	today, _ := time.ParseInLocation("2006-01-02", providers.LocalDate(n.now(), n.loc), n.loc)
	return !d.Before(today.AddDate(0, 0, -1))
}

func (n *Normalizer) SeasonStatsRequest(season int) providers.Request {
	return providers.Request{
		Endpoint: providers.EndpointTeamSeasonAverages,
		Params: map[string][]string{
			"season":      {strconv.Itoa(season)},
			"season_type": {"regular"},
			"type":        {"advanced"},
		},
	}
}

func (n *Normalizer) Teams(pages [][]byte) (contracts.Batch[contracts.TeamRecord], error) {
	return decodeBatch(pages, "team", mapTeam)
}

func (n *Normalizer) Games(pages [][]byte) (contracts.Batch[contracts.GameRecord], error) {
	return decodeBatch(pages, "game", mapGame)
}

func (n *Normalizer) SeasonStats(pages [][]byte) (contracts.Batch[contracts.SeasonStatRecord], error) {
	return decodeBatch(pages, "season_stat", mapSeasonStat)
}

func (n *Normalizer) resolveDate(date string) string {
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err == nil {
			return date
		}
	}
	return providers.LocalDate(n.now(), n.loc)
}

// decodeBatch decodes each record separately so one malformed record does
// not sink the page. A malformed envelope fails the whole batch.
func decodeBatch[R any, T any](pages [][]byte, kind string, mapFn func(R) T) (contracts.Batch[T], error) {
	var batch contracts.Batch[T]
	index := 0
	for i, body := range pages {
		var page pageResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return contracts.Batch[T]{}, fmt.Errorf("balldontlie: decode %s page %d: %w", kind, i, err)
		}
		for _, raw := range page.Data {
			batch.Fetched++
			var rec R
			if err := json.Unmarshal(raw, &rec); err != nil {
				batch.Failures = append(batch.Failures, contracts.DecodeFailure{
					Index:  index,
					Ref:    rawRef(kind, raw),
					Reason: err.Error(),
				})
			} else {
				batch.Records = append(batch.Records, mapFn(rec))
			}
			index++
		}
	}
	return batch, nil
}

func rawRef(kind string, raw json.RawMessage) string {
	var keyed struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &keyed); err == nil && len(keyed.ID) > 0 {
		return fmt.Sprintf("%s:%s", kind, string(keyed.ID))
	}
	return kind + ":?"
}
