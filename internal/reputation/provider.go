package reputation

import "context"

// Provider returns a reputation score for an IP on a 0-100 scale, where
// 100 means fully reputable and 0 means known bad. Lookups are an
// optional enrichment: callers must treat errors and missing providers
// as "no data", never as a scoring failure.
type Provider interface {
	Score(ctx context.Context, ip string) (float64, error)
}

// Static is a fixed score table. IPs not present are treated as clean.
// Used by the simulator and in tests.
type Static map[string]float64

// Score returns the configured score, or 100 for unknown IPs.
func (s Static) Score(_ context.Context, ip string) (float64, error) {
	if v, ok := s[ip]; ok {
		return clampScore(v), nil
	}
	return 100, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
