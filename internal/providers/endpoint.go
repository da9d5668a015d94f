package providers

// Endpoint names shared by provider catalogs.
const (
	EndpointTeams              = "teams"
	EndpointGames              = "games"
	EndpointTeamSeasonAverages = "team_season_averages"
)

// Endpoint describes one upstream resource.
type Endpoint struct {
	Name      string
	Path      string
	MinTier   Tier
	TTLClass  string
	Paginated bool
}

// Catalog lists the endpoints a provider exposes, keyed by name.
type Catalog map[string]Endpoint

// NewCatalog indexes endpoints by name.
func NewCatalog(endpoints ...Endpoint) Catalog {
	c := make(Catalog, len(endpoints))
	for _, ep := range endpoints {
		c[ep.Name] = ep
	}
	return c
}

// Lookup returns the endpoint registered under name.
func (c Catalog) Lookup(name string) (Endpoint, bool) {
	ep, ok := c[name]
	return ep, ok
}
