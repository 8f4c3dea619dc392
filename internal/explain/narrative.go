package explain

import (
	"fmt"
	"strings"

	"socsentinel/pkg/models"
)

// narrativeLimit caps how many top contributors the narrative covers.
const narrativeLimit = 3

// phrases keyed by feature name. Features without an entry fall back to
// a generic description built from the name itself.
var featurePhrases = map[string]string{
	"login_failure_count":    "failed login volume",
	"login_success_count":    "successful login volume",
	"unique_ips":             "number of distinct source IPs",
	"request_rate":           "request rate",
	"avg_response_time":      "average response time",
	"error_rate":             "server error rate",
	"bytes_sent":             "outbound data volume",
	"hour_of_day":            "time of day",
	"is_business_hours":      "activity outside business hours",
	"day_of_week":            "day of week",
	"is_weekend":             "weekend activity",
	"geo_countries_accessed": "number of countries accessed from",
	"geo_velocity":           "geographic travel velocity",
	"ip_reputation_score":    "source IP reputation",
}

// narrative renders one or two sentences from the highest-impact
// contributors. It only names features that actually drove the decision.
func narrative(breakdown models.ContributionBreakdown) string {
	top := breakdown.Contributions
	if len(top) > narrativeLimit {
		top = top[:narrativeLimit]
	}

	var parts []string
	for _, c := range top {
		if c.Weight == 0 {
			continue
		}
		parts = append(parts, describeContribution(c))
	}
	if len(parts) == 0 {
		return "No single feature stood out for this activity window."
	}

	lead := fmt.Sprintf("Suspicious activity driven primarily by %s", joinClauses(parts))
	return lead + "."
}

// describeContribution phrases one contributor. Direction follows the
// sign of the contribution itself: a positive weight pushed the raw
// output toward anomalous. The literal feature name stays in the clause
// so alerts can be correlated and searched by feature.
func describeContribution(c models.Contribution) string {
	phrase, ok := featurePhrases[c.Feature]
	if !ok {
		phrase = strings.ReplaceAll(c.Feature, "_", " ")
	}

	direction := "elevated"
	if c.Weight < 0 {
		direction = "unusually low"
	}

	return fmt.Sprintf("%s %s (%s, %.2f)", direction, c.Feature, phrase, c.Value)
}

func joinClauses(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}
