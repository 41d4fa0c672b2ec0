// Package mysql persists forecast rows to a MySQL or MariaDB table.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/repositories"
)

// DefaultTable is the forecast table name used when none is configured
const DefaultTable = "forecast_rows"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open opens a pooled connection. dsn may be a mariadb:// or mysql:// URL or a native driver DSN.
func Open(dsn string) (*sql.DB, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
		return "", fmt.Errorf("incomplete dsn (user/host/db)")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true
	return cfg.FormatDSN(), nil
}

// ForecastStore writes forecast rows keyed by run id
type ForecastStore struct {
	db     *sql.DB
	table  string
	logger *log.Logger
}

var _ repositories.ForecastRepository = (*ForecastStore)(nil)

// NewForecastStore wraps db. An empty table selects DefaultTable and a nil
// logger selects log.Default().
func NewForecastStore(db *sql.DB, table string, logger *log.Logger) (*ForecastStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ForecastStore{db: db, table: table, logger: logger}, nil
}

// EnsureSchema creates the forecast table if it does not exist
func (s *ForecastStore) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id       CHAR(36)     NOT NULL,
			item_code    VARCHAR(64)  NOT NULL,
			product_name VARCHAR(255) NOT NULL DEFAULT '',
			ds           DATE         NOT NULL,
			yhat         DOUBLE       NOT NULL,
			yhat_lower   DOUBLE       NOT NULL,
			yhat_upper   DOUBLE       NOT NULL,
			PRIMARY KEY (run_id, item_code, ds),
			KEY idx_item (item_code)
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// SaveRun replaces the rows of runID in a single transaction
func (s *ForecastStore) SaveRun(ctx context.Context, runID string, rows []entities.ForecastRow) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE run_id = ?`, s.table), runID); err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (run_id, item_code, product_name, ds, yhat, yhat_lower, yhat_upper)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx, runID, string(row.ItemCode), row.ProductName,
			row.Date.UTC().Format("2006-01-02"), row.Yhat, row.YhatLower, row.YhatUpper); err != nil {
			return fmt.Errorf("insert %s %s: %w", row.ItemCode, row.Date.Format("2006-01-02"), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Printf("[INFO] stored %d forecast rows for run %s in %s", len(rows), runID, s.table)
	return nil
}

// LoadRun returns the rows stored for runID ordered by item and date
func (s *ForecastStore) LoadRun(ctx context.Context, runID string) ([]entities.ForecastRow, error) {
	return s.query(ctx, fmt.Sprintf(`
		SELECT item_code, product_name, ds, yhat, yhat_lower, yhat_upper
		FROM %s WHERE run_id = ? ORDER BY item_code, ds`, s.table), runID)
}

// SaveForecast implements repositories.ForecastRepository
func (s *ForecastStore) SaveForecast(runID string, rows []entities.ForecastRow) error {
	return s.SaveRun(context.Background(), runID, rows)
}

// GetForecast returns every stored row for one item
func (s *ForecastStore) GetForecast(itemCode entities.ItemCode) ([]entities.ForecastRow, error) {
	return s.query(context.Background(), fmt.Sprintf(`
		SELECT item_code, product_name, ds, yhat, yhat_lower, yhat_upper
		FROM %s WHERE item_code = ? ORDER BY run_id, ds`, s.table), string(itemCode))
}

// GetAllForecasts returns every stored row
func (s *ForecastStore) GetAllForecasts() ([]entities.ForecastRow, error) {
	return s.query(context.Background(), fmt.Sprintf(`
		SELECT item_code, product_name, ds, yhat, yhat_lower, yhat_upper
		FROM %s ORDER BY run_id, item_code, ds`, s.table))
}

// DeleteRun deletes the rows of one run
func (s *ForecastStore) DeleteRun(runID string) error {
	if _, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE run_id = ?`, s.table), runID); err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	return nil
}

// Clear deletes all stored rows
func (s *ForecastStore) Clear() error {
	if _, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	return nil
}

func (s *ForecastStore) query(ctx context.Context, q string, args ...any) ([]entities.ForecastRow, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.ForecastRow
	for rows.Next() {
		var (
			code string
			row  entities.ForecastRow
		)
		if err := rows.Scan(&code, &row.ProductName, &row.Date, &row.Yhat, &row.YhatLower, &row.YhatUpper); err != nil {
			return nil, err
		}
		row.ItemCode = entities.ItemCode(code)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
