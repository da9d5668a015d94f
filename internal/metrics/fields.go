package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod   = "method"
	AttrPath     = "path"
	AttrStatus   = "status"
	AttrProvider = "provider"
	AttrEndpoint = "endpoint"
	AttrResult   = "result"
	AttrKey      = "limiter_key"
	AttrUnitKind = "unit_kind"
	AttrState    = "state"
)
