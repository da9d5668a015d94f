package providers

import (
	"fmt"
	"strings"
)

// Tier is a provider subscription level. Higher tiers unlock more endpoints.
type Tier int

const (
	TierFree Tier = iota
	TierAllStar
	TierGOAT
)

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierAllStar:
		return "all-star"
	case TierGOAT:
		return "goat"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Allows reports whether t may call an endpoint that requires required.
func (t Tier) Allows(required Tier) bool {
	return t >= required
}

// ParseTier accepts tier names case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return TierFree, nil
	case "all-star", "allstar", "all_star":
		return TierAllStar, nil
	case "goat":
		return TierGOAT, nil
	}
	return TierFree, fmt.Errorf("providers: unknown tier %q", s)
}

// LimiterKey is the rate limiter bucket for a provider at a tier.
func LimiterKey(provider string, tier Tier) string {
	return provider + ":" + tier.String()
}
