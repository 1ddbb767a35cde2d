package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"stepagg/internal/domain"
)

// MySQLStorage keeps replay runs in the replay_runs and test_reports tables.
// The schema is created by the migrate command.
type MySQLStorage struct {
	db *sql.DB
}

// NewMySQLStorage wraps an open database handle
func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

// OpenMySQL connects to dsn and checks the connection
func OpenMySQL(ctx context.Context, dsn string) (*MySQLStorage, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewMySQLStorage(db), nil
}

// Close closes the database handle
func (s *MySQLStorage) Close() error {
	return s.db.Close()
}

// reportRow is a test report flattened into test_reports columns
type reportRow struct {
	LogPath    string
	Title      string
	Suite      string
	ExternalID string
	Outcome    string
	Test       []byte
	Autotest   []byte
	Result     []byte
}

func toRow(report domain.TestReport) (reportRow, error) {
	row := reportRow{
		LogPath: report.Log,
		Title:   report.Test.Title,
		Suite:   report.Test.Suite,
	}
	if report.Result != nil {
		row.ExternalID = report.Result.ExternalID
		row.Outcome = string(report.Result.Outcome)
	}

	var err error
	if row.Test, err = json.Marshal(report.Test); err != nil {
		return row, fmt.Errorf("marshal test: %w", err)
	}
	if row.Autotest, err = json.Marshal(report.Autotest); err != nil {
		return row, fmt.Errorf("marshal autotest: %w", err)
	}
	if row.Result, err = json.Marshal(report.Result); err != nil {
		return row, fmt.Errorf("marshal result: %w", err)
	}
	return row, nil
}

func fromRow(row reportRow) (domain.TestReport, error) {
	report := domain.TestReport{Log: row.LogPath}
	if err := json.Unmarshal(row.Test, &report.Test); err != nil {
		return report, fmt.Errorf("parse test: %w", err)
	}
	// "null" leaves the pointers nil
	if err := json.Unmarshal(row.Autotest, &report.Autotest); err != nil {
		return report, fmt.Errorf("parse autotest: %w", err)
	}
	if err := json.Unmarshal(row.Result, &report.Result); err != nil {
		return report, fmt.Errorf("parse result: %w", err)
	}
	return report, nil
}

// Save stores the output as a new run in a single transaction
func (s *MySQLStorage) Save(ctx context.Context, output *domain.ReplayOutput) error {
	meta, err := json.Marshal(output.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	warnings, err := json.Marshal(output.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO replay_runs (meta, warnings) VALUES (?, ?)", meta, warnings)
	if err != nil {
		return fmt.Errorf("insert replay run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read replay run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO test_reports (run_id, log_path, title, suite, external_id, outcome, test, autotest, result) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare report insert: %w", err)
	}
	defer stmt.Close()

	for _, report := range output.Reports {
		row, err := toRow(report)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, row.LogPath, row.Title, row.Suite, row.ExternalID,
			row.Outcome, row.Test, row.Autotest, row.Result); err != nil {
			return fmt.Errorf("insert report %q: %w", row.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replay run: %w", err)
	}
	return nil
}

// Load returns the most recent run
func (s *MySQLStorage) Load(ctx context.Context) (*domain.ReplayOutput, error) {
	var (
		runID    int64
		meta     []byte
		warnings []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, meta, warnings FROM replay_runs ORDER BY id DESC LIMIT 1").Scan(&runID, &meta, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoResults
	}
	if err != nil {
		return nil, fmt.Errorf("query replay run: %w", err)
	}

	output := &domain.ReplayOutput{Reports: []domain.TestReport{}}
	if err := json.Unmarshal(meta, &output.Meta); err != nil {
		return nil, fmt.Errorf("parse meta: %w", err)
	}
	if err := json.Unmarshal(warnings, &output.Warnings); err != nil {
		return nil, fmt.Errorf("parse warnings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT log_path, title, suite, external_id, outcome, test, autotest, result FROM test_reports WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row reportRow
		if err := rows.Scan(&row.LogPath, &row.Title, &row.Suite, &row.ExternalID, &row.Outcome,
			&row.Test, &row.Autotest, &row.Result); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		report, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		output.Reports = append(output.Reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	return output, nil
}

// Registered returns every external id in the autotests table
func (s *MySQLStorage) Registered(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT external_id FROM autotests")
	if err != nil {
		return nil, fmt.Errorf("query autotests: %w", err)
	}
	defer rows.Close()

	registered := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan autotest: %w", err)
		}
		registered[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read autotests: %w", err)
	}
	return registered, nil
}

// Register inserts ids that are not in the autotests table yet
func (s *MySQLStorage) Register(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT IGNORE INTO autotests (external_id) VALUES (?)")
	if err != nil {
		return fmt.Errorf("prepare autotest insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("register autotest %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit autotests: %w", err)
	}
	return nil
}
