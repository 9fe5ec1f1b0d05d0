package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"aquamind/internal/metrics"
	"aquamind/internal/models"
)

// DB is the analysis history store. History is observability, not a
// durability guarantee: a down database logs and never blocks an analysis.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema
// dsn format: "username:password@tcp(host:port)/dbname?parseTime=true"
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	// MySQL doesn't support multiple statements in one Exec, so we need to split them
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			analysis_id VARCHAR(36) NOT NULL,
			timestamp DATETIME(6) NOT NULL,
			jal_score INT NOT NULL,
			verdict VARCHAR(20) NOT NULL,
			tds DOUBLE NOT NULL,
			ph DOUBLE NOT NULL,
			turbidity DOUBLE NOT NULL,
			temperature DOUBLE NOT NULL,
			dissolved_oxygen DOUBLE NOT NULL,
			stability DOUBLE NOT NULL,
			profile VARCHAR(100) NOT NULL,
			city VARCHAR(100) NOT NULL DEFAULT '',
			season VARCHAR(20) NOT NULL,
			UNIQUE INDEX idx_analyses_analysis_id (analysis_id),
			INDEX idx_analyses_timestamp (timestamp),
			INDEX idx_analyses_verdict (verdict)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS analysis_alerts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			analysis_id VARCHAR(36) NOT NULL,
			alert TEXT NOT NULL,
			INDEX idx_analysis_alerts_analysis_id (analysis_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// StoreAnalysis persists one analysis result and its alerts.
func (db *DB) StoreAnalysis(result *models.AnalysisResult) error {
	query := `INSERT INTO analyses
		(analysis_id, timestamp, jal_score, verdict, tds, ph, turbidity, temperature, dissolved_oxygen, stability, profile, city, season)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryStart := time.Now()
	_, err := db.conn.Exec(query,
		result.ID,
		result.Timestamp,
		result.JalScore,
		string(result.Verdict),
		result.ReadingValue(models.ParamTDS),
		result.ReadingValue(models.ParamPH),
		result.ReadingValue(models.ParamTurbidity),
		result.ReadingValue(models.ParamTemperature),
		result.ReadingValue(models.ParamDissolvedOxygen),
		result.Stability,
		result.ProfileName,
		result.City,
		string(result.Season),
	)
	metrics.RecordDBQuery("INSERT", "analyses", time.Since(queryStart), err)
	if err != nil {
		return fmt.Errorf("failed to store analysis %s: %w", result.ID, err)
	}

	if err := db.storeAlerts(result.ID, result.Alerts); err != nil {
		return err
	}

	log.Printf("stored analysis %s (%s, score %d)", result.ID, result.Verdict, result.JalScore)
	return nil
}

func (db *DB) storeAlerts(analysisID string, alerts []string) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if committed

	stmt, err := tx.Prepare(`INSERT INTO analysis_alerts (analysis_id, alert) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, alert := range alerts {
		if _, err = stmt.Exec(analysisID, alert); err != nil {
			return fmt.Errorf("failed to insert alert for %s: %w", analysisID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRecentAnalyses returns the most recent analyses, newest first.
func (db *DB) GetRecentAnalyses(limit int) ([]models.AnalysisResult, error) {
	query := `SELECT analysis_id, timestamp, jal_score, verdict, tds, ph, turbidity, temperature, dissolved_oxygen, stability, profile, city, season
		FROM analyses ORDER BY timestamp DESC LIMIT ?`

	queryStart := time.Now()
	rows, err := db.conn.Query(query, limit)
	metrics.RecordDBQuery("SELECT", "analyses", time.Since(queryStart), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// GetAnalysesByVerdict returns recent analyses with a given verdict.
func (db *DB) GetAnalysesByVerdict(verdict models.Verdict, since time.Time) ([]models.AnalysisResult, error) {
	query := `SELECT analysis_id, timestamp, jal_score, verdict, tds, ph, turbidity, temperature, dissolved_oxygen, stability, profile, city, season
		FROM analyses WHERE verdict = ? AND timestamp >= ? ORDER BY timestamp DESC`

	queryStart := time.Now()
	rows, err := db.conn.Query(query, string(verdict), since)
	metrics.RecordDBQuery("SELECT", "analyses", time.Since(queryStart), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses by verdict: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

func scanAnalyses(rows *sql.Rows) ([]models.AnalysisResult, error) {
	var results []models.AnalysisResult

	for rows.Next() {
		var r models.AnalysisResult
		var verdict, season string
		var tds, ph, turbidity, temperature, do float64

		err := rows.Scan(&r.ID, &r.Timestamp, &r.JalScore, &verdict,
			&tds, &ph, &turbidity, &temperature, &do,
			&r.Stability, &r.ProfileName, &r.City, &season)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}

		r.Verdict = models.Verdict(verdict)
		r.Season = models.Season(season)
		r.Readings = []models.ParameterReading{
			{Parameter: models.ParamTDS, Value: tds, Unit: models.ParamTDS.Unit()},
			{Parameter: models.ParamPH, Value: ph, Unit: models.ParamPH.Unit()},
			{Parameter: models.ParamTurbidity, Value: turbidity, Unit: models.ParamTurbidity.Unit()},
			{Parameter: models.ParamTemperature, Value: temperature, Unit: models.ParamTemperature.Unit()},
			{Parameter: models.ParamDissolvedOxygen, Value: do, Unit: models.ParamDissolvedOxygen.Unit()},
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// GetAlerts returns the alert strings recorded for one analysis.
func (db *DB) GetAlerts(analysisID string) ([]string, error) {
	query := `SELECT alert FROM analysis_alerts WHERE analysis_id = ? ORDER BY id`

	queryStart := time.Now()
	rows, err := db.conn.Query(query, analysisID)
	metrics.RecordDBQuery("SELECT", "analysis_alerts", time.Since(queryStart), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []string
	for rows.Next() {
		var alert string
		if err := rows.Scan(&alert); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}
