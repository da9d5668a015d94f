// Package fixture serves deterministic balldontlie-shaped payloads for local
// runs and tests without network access.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"nba-ingest-service/internal/providers"
	"nba-ingest-service/internal/providers/balldontlie"
)

const (
	providerName  = "fixture"
	schemaVersion = "fixture-1"
	gamesPerDay   = 3
)

type team struct {
	ID           int64  `json:"id"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
	FullName     string `json:"full_name"`
	Name         string `json:"name"`
}

var league = []team{
	{1, "ATL", "Atlanta", "East", "Southeast", "Atlanta Hawks", "Hawks"},
	{2, "BOS", "Boston", "East", "Atlantic", "Boston Celtics", "Celtics"},
	{3, "BKN", "Brooklyn", "East", "Atlantic", "Brooklyn Nets", "Nets"},
	{4, "CHA", "Charlotte", "East", "Southeast", "Charlotte Hornets", "Hornets"},
	{5, "CHI", "Chicago", "East", "Central", "Chicago Bulls", "Bulls"},
	{6, "CLE", "Cleveland", "East", "Central", "Cleveland Cavaliers", "Cavaliers"},
	{7, "DAL", "Dallas", "West", "Southwest", "Dallas Mavericks", "Mavericks"},
	{8, "DEN", "Denver", "West", "Northwest", "Denver Nuggets", "Nuggets"},
	{9, "DET", "Detroit", "East", "Central", "Detroit Pistons", "Pistons"},
	{10, "GSW", "Golden State", "West", "Pacific", "Golden State Warriors", "Warriors"},
	{11, "HOU", "Houston", "West", "Southwest", "Houston Rockets", "Rockets"},
	{12, "IND", "Indiana", "East", "Central", "Indiana Pacers", "Pacers"},
	{13, "LAC", "LA", "West", "Pacific", "LA Clippers", "Clippers"},
	{14, "LAL", "Los Angeles", "West", "Pacific", "Los Angeles Lakers", "Lakers"},
	{15, "MEM", "Memphis", "West", "Southwest", "Memphis Grizzlies", "Grizzlies"},
	{16, "MIA", "Miami", "East", "Southeast", "Miami Heat", "Heat"},
	{17, "MIL", "Milwaukee", "East", "Central", "Milwaukee Bucks", "Bucks"},
	{18, "MIN", "Minnesota", "West", "Northwest", "Minnesota Timberwolves", "Timberwolves"},
	{19, "NOP", "New Orleans", "West", "Southwest", "New Orleans Pelicans", "Pelicans"},
	{20, "NYK", "New York", "East", "Atlantic", "New York Knicks", "Knicks"},
	{21, "OKC", "Oklahoma City", "West", "Northwest", "Oklahoma City Thunder", "Thunder"},
	{22, "ORL", "Orlando", "East", "Southeast", "Orlando Magic", "Magic"},
	{23, "PHI", "Philadelphia", "East", "Atlantic", "Philadelphia 76ers", "76ers"},
	{24, "PHX", "Phoenix", "West", "Pacific", "Phoenix Suns", "Suns"},
	{25, "POR", "Portland", "West", "Northwest", "Portland Trail Blazers", "Trail Blazers"},
	{26, "SAC", "Sacramento", "West", "Pacific", "Sacramento Kings", "Kings"},
	{27, "SAS", "San Antonio", "West", "Southwest", "San Antonio Spurs", "Spurs"},
	{28, "TOR", "Toronto", "East", "Atlantic", "Toronto Raptors", "Raptors"},
	{29, "UTA", "Utah", "West", "Northwest", "Utah Jazz", "Jazz"},
	{30, "WAS", "Washington", "East", "Southeast", "Washington Wizards", "Wizards"},
}

// Transport answers balldontlie endpoints from generated data. Games on
// dates before today are final; later ones are scheduled.
type Transport struct {
	now func() time.Time
}

var _ providers.Transport = (*Transport)(nil)

// New creates a fixture transport with a time source.
func New() *Transport {
	return &Transport{now: time.Now}
}

func (t *Transport) Name() string { return providerName }

func (t *Transport) Catalog() providers.Catalog { return balldontlie.Catalog() }

func (t *Transport) Do(ctx context.Context, ep providers.Endpoint, params map[string][]string) (providers.Response, error) {
	if err := ctx.Err(); err != nil {
		return providers.Response{}, err
	}

	var data any
	switch ep.Name {
	case providers.EndpointTeams:
		data = league
	case providers.EndpointGames:
		games, err := t.games(first(params, "dates[]"))
		if err != nil {
			return providers.Response{}, err
		}
		data = games
	case providers.EndpointTeamSeasonAverages:
		season, err := strconv.Atoi(first(params, "season"))
		if err != nil {
			return providers.Response{}, &providers.StatusError{Provider: providerName, StatusCode: 400, Body: "season is required"}
		}
		data = seasonAverages(season)
	default:
		data = []any{}
	}

	body, err := json.Marshal(map[string]any{"data": data, "meta": map[string]any{"per_page": 100}})
	if err != nil {
		return providers.Response{}, err
	}
	return providers.Response{Body: body, SchemaVersion: schemaVersion}, nil
}

// NextCursor always ends pagination; every answer fits in one page.
func (t *Transport) NextCursor(body []byte) (string, error) {
	return "", nil
}

func (t *Transport) games(date string) ([]map[string]any, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, &providers.StatusError{Provider: providerName, StatusCode: 400, Body: fmt.Sprintf("invalid date %q", date)}
	}
	today := t.now().UTC().Truncate(24 * time.Hour)
	final := day.Before(today)
	season := day.Year()
	if day.Month() < time.October {
		season--
	}

	n := day.YearDay()
	out := make([]map[string]any, 0, gamesPerDay)
	for i := 0; i < gamesPerDay; i++ {
		home := league[(n+2*i)%len(league)]
		visitor := league[(n+2*i+15)%len(league)]
		start := day.Add(time.Duration(23+i) * time.Hour)
		g := map[string]any{
			"id":                 int64(day.Year()*10000+int(day.Month())*100+day.Day())*10 + int64(i+1),
			"date":               date,
			"datetime":           start.Format(time.RFC3339),
			"season":             season,
			"period":             0,
			"postseason":         false,
			"home_team":          home,
			"visitor_team":       visitor,
			"home_team_score":    0,
			"visitor_team_score": 0,
			"status":             start.Format(time.RFC3339),
		}
		if final {
			g["status"] = "Final"
			g["period"] = 4
			g["home_team_score"] = 95 + (n*3+i*11)%30
			g["visitor_team_score"] = 90 + (n*5+i*7)%30
		}
		out = append(out, g)
	}
	return out, nil
}

func seasonAverages(season int) []map[string]any {
	out := make([]map[string]any, 0, len(league))
	for _, tm := range league {
		id := int(tm.ID)
		off := 108.0 + float64(id%10)
		def := 110.0 - float64(id%7)
		out = append(out, map[string]any{
			"team":        tm,
			"season":      season,
			"season_type": "regular",
			"stats": map[string]float64{
				"gp":            82,
				"w_pct":         0.2 + float64(id*7%13)/20,
				"pace":          96 + float64(id%8),
				"off_rating":    off,
				"def_rating":    def,
				"net_rating":    off - def,
				"fg3a_rate":     0.35 + float64(id%5)/100,
				"opp_fg3a_rate": 0.36 + float64(id%4)/100,
			},
		})
	}
	return out
}

func first(params map[string][]string, key string) string {
	if vs := params[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
