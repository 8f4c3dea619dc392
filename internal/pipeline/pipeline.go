package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"socsentinel/internal/engine"
	inputredis "socsentinel/internal/input/redis"
	"socsentinel/internal/logger"
	"socsentinel/internal/metrics"
	"socsentinel/internal/model"
	"socsentinel/internal/modelstore"
	"socsentinel/internal/transform"
	"socsentinel/pkg/models"
)

// Config controls the streaming pipeline.
type Config struct {
	Workers         int
	BatchSize       int
	FlushInterval   time.Duration
	Window          time.Duration
	MaxWindowEvents int
	Cooldown        time.Duration
}

// Pipeline consumes raw events from Redis, scores each actor's sliding
// window through the detection engine and batches resulting alerts to
// the configured writer.
type Pipeline struct {
	consumer *inputredis.Consumer
	engine   *engine.Engine
	handle   *modelstore.Handle
	writer   AlertWriter
	tracker  *windowTracker
	metrics  *metrics.Metrics

	workers       int
	batchSize     int
	flushInterval time.Duration
}

// New assembles the pipeline.
func New(consumer *inputredis.Consumer, eng *engine.Engine, handle *modelstore.Handle, writer AlertWriter, m *metrics.Metrics, cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}

	return &Pipeline{
		consumer:      consumer,
		engine:        eng,
		handle:        handle,
		writer:        writer,
		tracker:       newWindowTracker(cfg.Window, cfg.MaxWindowEvents, cfg.Cooldown),
		metrics:       m,
		workers:       cfg.Workers,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
	}
}

// Run starts the pipeline loop and blocks until the context is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	logger.Infof("Detection pipeline started (%d workers)", p.workers)

	msgCh := make(chan []byte, p.workers*4)
	alertCh := make(chan *models.Alert, p.workers*4)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	var workerWg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			p.workerLoop(ctx, msgCh, alertCh)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		workerWg.Wait()
		close(alertCh)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.writeLoop(ctx, alertCh)
	}()

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Close releases pipeline resources.
func (p *Pipeline) Close() error {
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			logger.Errorf("Failed to close alert writer: %v", err)
		}
	}
	if p.consumer != nil {
		return p.consumer.Close()
	}
	return nil
}

func (p *Pipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		payload, err := p.consumer.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop redis message: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if payload == nil {
			continue
		}
		p.metrics.EventsTotal.Inc()
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) workerLoop(ctx context.Context, in <-chan []byte, out chan<- *models.Alert) {
	for payload := range in {
		event, err := transform.Parse(payload)
		if err != nil {
			p.metrics.ParseErrors.Inc()
			logger.Warnf("Failed to parse event: %v", err)
			continue
		}

		events := p.tracker.Add(event)
		if !p.tracker.ShouldScore(event.Actor, event.Timestamp) {
			continue
		}

		snap := p.handle.Current()
		start := time.Now()
		alert, err := p.engine.ScoreAndExplain(ctx, event.Actor, events, snap)
		p.metrics.ScoringSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			if errors.Is(err, model.ErrModelUnavailable) {
				logger.Warnf("No model loaded, dropping window for %s", event.Actor)
			} else {
				logger.Errorf("Failed to score %s: %v", event.Actor, err)
			}
			continue
		}
		p.metrics.ScoresTotal.Inc()

		if alert == nil {
			p.metrics.SuppressedTotal.Inc()
			continue
		}
		if alert.Degraded {
			p.metrics.DegradedTotal.Inc()
		}
		p.metrics.AlertsTotal.WithLabelValues(string(alert.Severity)).Inc()
		p.tracker.MarkAlert(event.Actor, event.Timestamp)

		select {
		case out <- alert:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) writeLoop(ctx context.Context, in <-chan *models.Alert) {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	var batch []*models.Alert

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for {
			if err := p.writer.WriteAlerts(batch); err != nil {
				p.metrics.WriteErrors.Inc()
				logger.Errorf("Failed to write alerts: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(1 * time.Second):
				}
				continue
			}
			logger.Debugf("Wrote %d alerts", len(batch))
			batch = nil
			break
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ticker.C:
			flush()
		case alert, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, alert)
			if len(batch) >= p.batchSize {
				flush()
			}
		}
	}
}
