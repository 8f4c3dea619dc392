package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"socsentinel/internal/features"
	"socsentinel/pkg/models"
)

// Simulator emits synthetic security telemetry with a seeded RNG, so
// identical seeds produce identical event streams. Used for training
// data and for feeding a pipeline end to end.
type Simulator struct {
	rng *rand.Rand
}

var users = []string{
	"john.smith", "sarah.jones", "mike.wilson", "emma.davis",
	"alex.brown", "lisa.taylor", "david.lee", "jennifer.white",
	"chris.garcia", "maria.martinez", "admin", "root", "service_account",
	"james.wilson", "patricia.taylor", "robert.anderson", "michael.thomas",
}

var internalIPs = []string{
	"10.0.1.10", "10.0.1.15", "10.0.1.20", "10.0.2.5",
	"10.0.2.10", "10.0.3.50", "192.168.1.100", "192.168.1.105",
	"10.10.0.5", "10.10.0.10", "172.16.0.50",
}

var maliciousIPs = []string{
	"185.220.101.1", "185.220.101.2", "45.33.32.156", "23.129.64.130",
	"104.244.76.13", "171.25.193.77", "86.105.227.228", "192.99.144.128",
	"91.236.75.18", "62.210.105.116",
}

var endpoints = []string{
	"/api/v1/login", "/api/v1/users", "/api/v1/orders",
	"/api/v1/products", "/api/v1/search", "/api/v1/profile",
	"/api/v1/admin", "/api/v1/reports", "/api/v1/export",
	"/api/v1/auth", "/login", "/admin",
}

var normalAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Edge/120.0",
}

var suspiciousAgents = []string{
	"python-requests/2.31.0", "curl/7.81.0", "wget/1.21",
	"nikto/2.1.6", "sqlmap/1.6", "nmap/7.93",
}

// geoPoint places a country at a representative coordinate.
type geoPoint struct {
	country  string
	lat, lon float64
}

var benignGeo = geoPoint{country: "US", lat: 39.0, lon: -77.0}

var hostileGeo = []geoPoint{
	{country: "RU", lat: 55.75, lon: 37.62},
	{country: "CN", lat: 39.90, lon: 116.40},
	{country: "KP", lat: 39.03, lon: 125.75},
	{country: "IR", lat: 35.69, lon: 51.39},
	{country: "SY", lat: 33.51, lon: 36.29},
}

// New builds a simulator with a seeded RNG.
func New(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

func (s *Simulator) pick(values []string) string {
	return values[s.rng.Intn(len(values))]
}

// Baseline emits n benign events spread over the 24 hours before start:
// mostly successful logins and ordinary requests from internal IPs
// during business hours.
func (s *Simulator) Baseline(n int, start time.Time) []models.Event {
	events := make([]models.Event, 0, n)
	dayStart := start.Add(-24 * time.Hour)

	for i := 0; i < n; i++ {
		// Bias toward business hours.
		hour := 9 + s.rng.Intn(8)
		if s.rng.Float64() < 0.2 {
			hour = s.rng.Intn(24)
		}
		ts := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(),
			hour, s.rng.Intn(60), s.rng.Intn(60), 0, time.UTC)

		e := models.Event{
			Actor:     s.pick(users),
			Timestamp: ts,
			SourceIP:  s.pick(internalIPs),
			Country:   benignGeo.country,
			Latitude:  benignGeo.lat + s.rng.Float64(),
			Longitude: benignGeo.lon + s.rng.Float64(),
			HasGeo:    true,
			UserAgent: s.pick(normalAgents),
			Endpoint:  s.pick(endpoints),
		}

		switch r := s.rng.Float64(); {
		case r < 0.15:
			e.Type = models.EventLoginSuccess
		case r < 0.17:
			e.Type = models.EventLoginFailure
		default:
			e.Type = models.EventRequest
			e.StatusCode = 200
			if s.rng.Float64() < 0.03 {
				e.StatusCode = 400
			}
			e.BytesSent = 1000 + s.rng.Float64()*9000
			e.LatencyMS = s.rng.ExpFloat64() * 50
		}

		events = append(events, e)
	}
	return events
}

// BruteForce emits a credential attack burst for one actor: a run of
// failed logins from several malicious IPs in hostile countries,
// compressed into a few minutes at an off-hours timestamp.
func (s *Simulator) BruteForce(actor string, start time.Time) []models.Event {
	// Anchor at 02:00 the same day.
	base := time.Date(start.Year(), start.Month(), start.Day(), 2, 0, 0, 0, time.UTC)

	n := 15 + s.rng.Intn(20)
	events := make([]models.Event, 0, n)
	for i := 0; i < n; i++ {
		geo := hostileGeo[s.rng.Intn(len(hostileGeo))]
		events = append(events, models.Event{
			Actor:     actor,
			Timestamp: base.Add(time.Duration(i*7) * time.Second),
			Type:      models.EventLoginFailure,
			SourceIP:  s.pick(maliciousIPs),
			Country:   geo.country,
			Latitude:  geo.lat,
			Longitude: geo.lon,
			HasGeo:    true,
			UserAgent: s.pick(suspiciousAgents),
			Endpoint:  "/login",
		})
	}
	return events
}

// Exfiltration emits a data-theft burst: authenticated off-hours
// requests moving large outbound volumes to a single hostile endpoint.
func (s *Simulator) Exfiltration(actor string, start time.Time) []models.Event {
	base := time.Date(start.Year(), start.Month(), start.Day(), 3, 0, 0, 0, time.UTC)
	geo := hostileGeo[s.rng.Intn(len(hostileGeo))]
	ip := s.pick(maliciousIPs)

	n := 20 + s.rng.Intn(15)
	events := make([]models.Event, 0, n+1)
	events = append(events, models.Event{
		Actor:     actor,
		Timestamp: base,
		Type:      models.EventLoginSuccess,
		SourceIP:  ip,
		Country:   geo.country,
		Latitude:  geo.lat,
		Longitude: geo.lon,
		HasGeo:    true,
		UserAgent: s.pick(suspiciousAgents),
	})
	for i := 0; i < n; i++ {
		events = append(events, models.Event{
			Actor:      actor,
			Timestamp:  base.Add(time.Duration(30+i*10) * time.Second),
			Type:       models.EventRequest,
			SourceIP:   ip,
			Country:    geo.country,
			Latitude:   geo.lat,
			Longitude:  geo.lon,
			HasGeo:     true,
			StatusCode: 200,
			BytesSent:  50000 + s.rng.Float64()*450000,
			LatencyMS:  s.rng.ExpFloat64() * 300,
			UserAgent:  s.pick(suspiciousAgents),
			Endpoint:   "/api/v1/export",
		})
	}
	return events
}

// Dataset aggregates simulated actor windows into labeled training
// rows: benign rows labeled 0, attack rows labeled 1.
func (s *Simulator) Dataset(agg *features.Aggregator, benign, attacks int, start time.Time) ([][]float64, []int) {
	ctx := context.Background()
	data := make([][]float64, 0, benign+2*attacks)
	labels := make([]int, 0, benign+2*attacks)

	baseline := s.Baseline(benign*10, start)
	byActor := make(map[string][]models.Event)
	for _, e := range baseline {
		byActor[e.Actor] = append(byActor[e.Actor], e)
	}

	// One benign row per actor window, sliding across the day.
	produced := 0
	for actor, events := range byActor {
		if produced >= benign {
			break
		}
		step := len(events) / 4
		if step == 0 {
			step = 1
		}
		for i := 0; i < len(events) && produced < benign; i += step {
			vec := agg.Aggregate(ctx, actor, events, events[i].Timestamp)
			data = append(data, vec.Values)
			labels = append(labels, 0)
			produced++
		}
	}

	for i := 0; i < attacks; i++ {
		actor := fmt.Sprintf("attacker-%02d", i)

		bf := s.BruteForce(actor, start.AddDate(0, 0, -i%7))
		vec := agg.Aggregate(ctx, actor, bf, time.Time{})
		data = append(data, vec.Values)
		labels = append(labels, 1)

		ex := s.Exfiltration(actor, start.AddDate(0, 0, -i%5))
		vec = agg.Aggregate(ctx, actor, ex, time.Time{})
		data = append(data, vec.Values)
		labels = append(labels, 1)
	}

	return data, labels
}

// Stream writes one JSON event per tick to emit until the context is
// cancelled. Roughly 15% of events are attack traffic.
func (s *Simulator) Stream(ctx context.Context, interval time.Duration, emit func(models.Event) error) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		now := time.Now().UTC()
		var e models.Event
		if s.rng.Float64() < 0.15 {
			geo := hostileGeo[s.rng.Intn(len(hostileGeo))]
			e = models.Event{
				Actor:     s.pick([]string{"admin", "root", "unknown"}),
				Timestamp: now,
				Type:      models.EventLoginFailure,
				SourceIP:  s.pick(maliciousIPs),
				Country:   geo.country,
				Latitude:  geo.lat,
				Longitude: geo.lon,
				HasGeo:    true,
				UserAgent: s.pick(suspiciousAgents),
			}
		} else {
			e = models.Event{
				Actor:      s.pick(users),
				Timestamp:  now,
				Type:       models.EventRequest,
				SourceIP:   s.pick(internalIPs),
				Country:    benignGeo.country,
				Latitude:   benignGeo.lat,
				Longitude:  benignGeo.lon,
				HasGeo:     true,
				StatusCode: 200,
				BytesSent:  1000 + s.rng.Float64()*9000,
				LatencyMS:  math.Abs(s.rng.NormFloat64()) * 50,
				UserAgent:  s.pick(normalAgents),
				Endpoint:   s.pick(endpoints),
			}
		}

		if err := emit(e); err != nil {
			return err
		}
	}
}
