package features

import (
	"context"
	"math"
	"sort"
	"time"

	"socsentinel/internal/reputation"
	"socsentinel/pkg/models"
)

// Feature slot indexes, matching models.FeatureNames order.
const (
	idxLoginFailureCount = iota
	idxLoginSuccessCount
	idxUniqueIPs
	idxRequestRate
	idxAvgResponseTime
	idxErrorRate
	idxBytesSent
	idxHourOfDay
	idxIsBusinessHours
	idxDayOfWeek
	idxIsWeekend
	idxGeoCountries
	idxGeoVelocity
	idxIPReputation
)

// Aggregator converts one actor's windowed events into a FeatureVector.
// Aggregation is pure: it never fails, and absent data resolves to zero
// (or the neutral reputation default) rather than to an error.
type Aggregator struct {
	window time.Duration
	rep    reputation.Provider
	now    func() time.Time
}

// NewAggregator creates an aggregator for the given trailing window. rep
// may be nil; the reputation feature then stays at its neutral default.
func NewAggregator(window time.Duration, rep reputation.Provider) *Aggregator {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Aggregator{
		window: window,
		rep:    rep,
		now:    time.Now,
	}
}

// Window returns the configured trailing window length.
func (a *Aggregator) Window() time.Duration {
	return a.window
}

// Aggregate computes the feature vector for one actor. asOf anchors the
// trailing window; a zero asOf uses the latest event timestamp, falling
// back to the current time when events is empty. Events outside
// (asOf-window, asOf] are ignored.
func (a *Aggregator) Aggregate(ctx context.Context, actor string, events []models.Event, asOf time.Time) *models.FeatureVector {
	sorted := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Timestamp.IsZero() {
			sorted = append(sorted, ev)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if asOf.IsZero() {
		if len(sorted) > 0 {
			asOf = sorted[len(sorted)-1].Timestamp
		} else {
			asOf = a.now().UTC()
		}
	}
	windowStart := asOf.Add(-a.window)

	inWindow := sorted[:0:0]
	for _, ev := range sorted {
		if ev.Timestamp.After(windowStart) && !ev.Timestamp.After(asOf) {
			inWindow = append(inWindow, ev)
		}
	}

	values := make([]float64, len(models.FeatureNames))

	// Calendar features always derive from the window anchor, even for
	// empty windows.
	hour := asOf.Hour()
	values[idxHourOfDay] = float64(hour)
	if hour >= 9 && hour < 17 {
		values[idxIsBusinessHours] = 1
	}
	// day_of_week uses Go's Weekday numbering (Sunday=0). Trained
	// snapshots assume this encoding.
	weekday := asOf.Weekday()
	values[idxDayOfWeek] = float64(weekday)
	if weekday == time.Saturday || weekday == time.Sunday {
		values[idxIsWeekend] = 1
	}

	if len(inWindow) == 0 {
		return &models.FeatureVector{
			Actor:       actor,
			WindowStart: windowStart,
			WindowEnd:   asOf,
			Values:      values,
		}
	}

	var (
		failures, successes float64
		requests            float64
		errored             float64
		latencySum          float64
		latencyCount        float64
		bytesSent           float64
	)
	uniqueIPs := make(map[string]struct{})
	countries := make(map[string]struct{})

	for _, ev := range inWindow {
		switch ev.Type {
		case models.EventLoginFailure:
			failures++
		case models.EventLoginSuccess:
			successes++
		case models.EventRequest:
			requests++
			if ev.StatusCode >= 400 && ev.StatusCode < 600 {
				errored++
			}
			if ev.LatencyMS > 0 {
				latencySum += ev.LatencyMS
				latencyCount++
			}
		}
		bytesSent += ev.BytesSent
		if ev.SourceIP != "" {
			uniqueIPs[ev.SourceIP] = struct{}{}
		}
		if ev.Country != "" {
			countries[ev.Country] = struct{}{}
		}
	}

	values[idxLoginFailureCount] = failures
	values[idxLoginSuccessCount] = successes
	values[idxUniqueIPs] = float64(len(uniqueIPs))
	values[idxRequestRate] = requests / a.window.Minutes()
	if latencyCount > 0 {
		values[idxAvgResponseTime] = latencySum / latencyCount
	}
	if requests > 0 {
		values[idxErrorRate] = errored / requests
	}
	values[idxBytesSent] = bytesSent
	values[idxGeoCountries] = float64(len(countries))
	values[idxGeoVelocity] = maxGeoVelocity(inWindow)
	values[idxIPReputation] = a.reputationScore(ctx, uniqueIPs)

	return &models.FeatureVector{
		Actor:       actor,
		WindowStart: windowStart,
		WindowEnd:   asOf,
		Values:      values,
	}
}

// maxGeoVelocity returns the peak implied travel speed in km/h across
// successive distinct coordinates. Elapsed time is floored at one second
// so coincident timestamps cannot divide by zero.
func maxGeoVelocity(events []models.Event) float64 {
	var (
		havePrev         bool
		prevLat, prevLon float64
		prevTS           time.Time
		maxVelocity      float64
	)

	for _, ev := range events {
		if !ev.HasGeo {
			continue
		}
		if !havePrev {
			havePrev = true
			prevLat, prevLon, prevTS = ev.Latitude, ev.Longitude, ev.Timestamp
			continue
		}
		if math.Abs(ev.Latitude-prevLat) < 1e-9 && math.Abs(ev.Longitude-prevLon) < 1e-9 {
			prevTS = ev.Timestamp
			continue
		}

		distKM := haversineKM(prevLat, prevLon, ev.Latitude, ev.Longitude)
		elapsed := ev.Timestamp.Sub(prevTS)
		if elapsed < time.Second {
			elapsed = time.Second
		}
		velocity := distKM / elapsed.Hours()
		if velocity > maxVelocity {
			maxVelocity = velocity
		}

		prevLat, prevLon, prevTS = ev.Latitude, ev.Longitude, ev.Timestamp
	}

	return maxVelocity
}

// reputationScore returns the worst (minimum) reputation across the
// window's unique source IPs, 100 when no provider is configured or no
// lookup succeeds. Provider errors count as "no data".
func (a *Aggregator) reputationScore(ctx context.Context, ips map[string]struct{}) float64 {
	if a.rep == nil || len(ips) == 0 {
		return 100
	}

	min := 100.0
	found := false
	for ip := range ips {
		score, err := a.rep.Score(ctx, ip)
		if err != nil {
			continue
		}
		found = true
		if score < min {
			min = score
		}
	}
	if !found {
		return 100
	}
	return min
}
