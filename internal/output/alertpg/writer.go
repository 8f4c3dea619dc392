package alertpg

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"

	"socsentinel/internal/logger"
	"socsentinel/pkg/models"
)

// Config configures the Postgres alert sink.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Table    string
}

// Writer persists alerts into a Postgres table.
type Writer struct {
	db     *sql.DB
	insert string
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewWriter connects to Postgres and verifies the connection.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.Table == "" {
		cfg.Table = "alerts"
	}
	if !identPattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid postgres table name: %s", cfg.Table)
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Infof("Postgres alert writer connected: %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return &Writer{
		db: db,
		insert: fmt.Sprintf(`INSERT INTO %s
			(alert_id, actor, window_start, window_end, score, severity, status,
			 score_source, degraded, narrative, narrative_available, breakdown, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`, cfg.Table),
	}, nil
}

// WriteAlerts inserts a batch inside one transaction.
func (w *Writer) WriteAlerts(alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(w.insert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, alert := range alerts {
		var breakdown []byte
		if alert.Breakdown != nil {
			breakdown, err = json.Marshal(alert.Breakdown)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to marshal breakdown: %w", err)
			}
		}

		_, err = stmt.Exec(
			alert.AlertID, alert.Actor, alert.WindowStart, alert.WindowEnd,
			alert.Score, string(alert.Severity), string(alert.Status),
			alert.ScoreSource, alert.Degraded, alert.Narrative,
			alert.NarrativeAvailable, breakdown, alert.CreatedAt,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert alert %s: %w", alert.AlertID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alerts: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (w *Writer) Close() error {
	return w.db.Close()
}
