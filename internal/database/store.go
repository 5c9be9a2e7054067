package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wpsleuth/wpsleuth/internal/config"
	"github.com/wpsleuth/wpsleuth/internal/logger"
	"github.com/wpsleuth/wpsleuth/pkg/types"
)

// ErrNotFound is returned when a scan id has no stored result.
var ErrNotFound = errors.New("scan not found")

// Store persists completed scan results. The scanner never blocks on it;
// callers treat persistence as fire-and-forget.
type Store interface {
	SaveScanResult(ctx context.Context, result *types.ScanResult) error
	GetScanResult(ctx context.Context, id string) (*types.ScanResult, error)
	ListScanResults(ctx context.Context, target string, limit int) ([]*types.ScanResult, error)
	Ping(ctx context.Context) error
	Close() error
}

type sqlStore struct {
	db  *sqlx.DB
	cfg config.DatabaseConfig
	log *logger.Logger
}

// NewStore connects, configures the pool and runs migrations.
func NewStore(cfg config.DatabaseConfig, log *logger.Logger) (Store, error) {
	log = log.WithComponent("database")

	start := time.Now()
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &sqlStore{db: db, cfg: cfg, log: log}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.LogDuration(context.Background(), "database.Init", start,
		"driver", cfg.Driver,
	)
	return store, nil
}

func (s *sqlStore) migrate() error {
	if s.cfg.Driver == "sqlite3" {
		if _, err := s.db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		scanned_at TIMESTAMP NOT NULL,
		scan_duration_ms INTEGER NOT NULL,
		is_wordpress BOOLEAN NOT NULL,
		detection_confidence INTEGER NOT NULL,
		risk_score INTEGER NOT NULL,
		total_vulnerabilities INTEGER NOT NULL,
		https_enabled BOOLEAN NOT NULL,
		result TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS findings (
		id TEXT PRIMARY KEY,
		scan_id TEXT NOT NULL REFERENCES scans(id),
		component_slug TEXT NOT NULL,
		component_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		cve_id TEXT,
		cvss_score REAL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_url ON scans(url);
	CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
	CREATE INDEX IF NOT EXISTS idx_findings_scan_id ON findings(scan_id);
	CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (s *sqlStore) SaveScanResult(ctx context.Context, result *types.ScanResult) error {
	start := time.Now()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scan result: %w", err)
	}

	query := `
		INSERT INTO scans (
			id, url, scanned_at, scan_duration_ms, is_wordpress,
			detection_confidence, risk_score, total_vulnerabilities,
			https_enabled, result
		) VALUES (
			:id, :url, :scanned_at, :scan_duration_ms, :is_wordpress,
			:detection_confidence, :risk_score, :total_vulnerabilities,
			:https_enabled, :result
		)
	`
	args := map[string]interface{}{
		"id":                    result.ID,
		"url":                   result.URL,
		"scanned_at":            result.ScannedAt,
		"scan_duration_ms":      result.ScanDurationMs,
		"is_wordpress":          result.IsWordPress,
		"detection_confidence":  result.DetectionConfidence,
		"risk_score":            result.RiskScore,
		"total_vulnerabilities": result.TotalVulnerabilities,
		"https_enabled":         result.HTTPSEnabled,
		"result":                string(payload),
	}
	if _, err := s.db.NamedExecContext(ctx, query, args); err != nil {
		s.log.LogError(ctx, err, "database.SaveScanResult", "scan_id", result.ID)
		return fmt.Errorf("failed to save scan: %w", err)
	}

	if err := s.saveFindings(ctx, result); err != nil {
		s.log.LogError(ctx, err, "database.SaveScanResult.findings", "scan_id", result.ID)
		return err
	}

	s.log.LogDuration(ctx, "database.SaveScanResult", start,
		"scan_id", result.ID,
		"findings", result.TotalVulnerabilities,
	)
	return nil
}

func (s *sqlStore) saveFindings(ctx context.Context, result *types.ScanResult) error {
	query := `
		INSERT INTO findings (
			id, scan_id, component_slug, component_type, severity,
			title, cve_id, cvss_score, created_at
		) VALUES (
			:id, :scan_id, :component_slug, :component_type, :severity,
			:title, :cve_id, :cvss_score, :created_at
		)
	`
	reports := append([]types.ComponentReport{result.Core}, result.Plugins...)
	reports = append(reports, result.Themes...)

	n := 0
	for _, report := range reports {
		for _, f := range report.Findings {
			n++
			args := map[string]interface{}{
				"id":             fmt.Sprintf("%s-%d", result.ID, n),
				"scan_id":        result.ID,
				"component_slug": f.ComponentSlug,
				"component_type": string(f.ComponentType),
				"severity":       string(f.Severity),
				"title":          f.Title,
				"cve_id":         f.CVEID,
				"cvss_score":     f.CVSSScore,
				"created_at":     result.ScannedAt,
			}
			if _, err := s.db.NamedExecContext(ctx, query, args); err != nil {
				return fmt.Errorf("failed to save finding: %w", err)
			}
		}
	}
	return nil
}

func (s *sqlStore) GetScanResult(ctx context.Context, id string) (*types.ScanResult, error) {
	query := fmt.Sprintf("SELECT result FROM scans WHERE id = %s", s.placeholder(1))

	var payload string
	if err := s.db.GetContext(ctx, &payload, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load scan: %w", err)
	}

	var result types.ScanResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return &result, nil
}

func (s *sqlStore) ListScanResults(ctx context.Context, target string, limit int) ([]*types.ScanResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		query string
		args  []interface{}
	)
	if target != "" {
		query = fmt.Sprintf("SELECT result FROM scans WHERE url = %s ORDER BY scanned_at DESC LIMIT %s",
			s.placeholder(1), s.placeholder(2))
		args = []interface{}{target, limit}
	} else {
		query = fmt.Sprintf("SELECT result FROM scans ORDER BY scanned_at DESC LIMIT %s", s.placeholder(1))
		args = []interface{}{limit}
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}

	results := make([]*types.ScanResult, 0, len(payloads))
	for _, payload := range payloads {
		var result types.ScanResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan result: %w", err)
		}
		results = append(results, &result)
	}
	return results, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// placeholder returns the positional placeholder for the configured driver.
func (s *sqlStore) placeholder(n int) string {
	if s.cfg.Driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
