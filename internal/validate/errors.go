package validate

import (
	"errors"
	"fmt"
)

// ErrSanity matches every *SanityError.
var ErrSanity = errors.New("sanity violation")

// Sanity rules that reject a whole batch.
const (
	RuleUniqueID         = "unique_id"
	RuleTeamCardinality  = "team_cardinality"
	RuleUniqueAbbrev     = "unique_abbreviation"
	RuleUniqueSeasonStat = "unique_team_season"
)

// SanityError is a systemic violation; no record of the batch may be persisted.
type SanityError struct {
	Rule   string
	Detail string
}

func (e *SanityError) Error() string {
	return fmt.Sprintf("sanity violation %s: %s", e.Rule, e.Detail)
}

func (e *SanityError) Is(target error) bool {
	return target == ErrSanity
}

// AsSanityError unwraps a SanityError if present.
func AsSanityError(err error) (*SanityError, bool) {
	var se *SanityError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
