package balldontlie

import "encoding/json"

// pageResponse is the envelope shared by every list endpoint.
type pageResponse struct {
	Data []json.RawMessage `json:"data"`
	Meta metaResponse      `json:"meta"`
}

type metaResponse struct {
	NextCursor *int64 `json:"next_cursor"`
	PerPage    int    `json:"per_page"`
}

type gameResponse struct {
	ID               *int64        `json:"id"`
	Date             *string       `json:"date"`
	Datetime         *string       `json:"datetime"`
	Status           *string       `json:"status"`
	Time             string        `json:"time"`
	Period           *int          `json:"period"`
	Postseason       *bool         `json:"postseason"`
	HomeTeam         *teamResponse `json:"home_team"`
	VisitorTeam      *teamResponse `json:"visitor_team"`
	HomeTeamScore    *int          `json:"home_team_score"`
	VisitorTeamScore *int          `json:"visitor_team_score"`
	Season           *int          `json:"season"`
}

type teamResponse struct {
	ID           *int64  `json:"id"`
	Abbreviation *string `json:"abbreviation"`
	City         *string `json:"city"`
	Conference   *string `json:"conference"`
	Division     *string `json:"division"`
	FullName     *string `json:"full_name"`
	Name         *string `json:"name"`
}

type teamSeasonAverageResponse struct {
	Team       *teamResponse       `json:"team"`
	Season     *int                `json:"season"`
	SeasonType string              `json:"season_type"`
	Stats      map[string]*float64 `json:"stats"`
}

// Keys of the advanced team season averages payload.
const (
	statGamesPlayed = "gp"
	statWinPct      = "w_pct"
	statPace        = "pace"
	statOffRating   = "off_rating"
	statDefRating   = "def_rating"
	statNetRating   = "net_rating"
	statFG3ARate    = "fg3a_rate"
	statOppFG3ARate = "opp_fg3a_rate"
)
