package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"signalgate/internal/logging"
	"signalgate/internal/signal"
)

const timeLayout = "2006-01-02 15:04:05.999999999"

var log = logging.For("store")

// sqliteStore is the SQLite-backed Store implementation, grounded on the
// teacher's store package: raw database/sql, CREATE TABLE IF NOT EXISTS,
// best-effort ALTER TABLE migrations, manual row scanning.
type sqliteStore struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite database at path and ensures the
// schema exists.
func Open(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc sqlite: single-writer, avoid SQLITE_BUSY storms
	s := &sqliteStore{db: db}
	if err := s.initTables(); err != nil {
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	if err := s.seedDefaultStrategy(); err != nil {
		return nil, fmt.Errorf("store: seed strategy: %w", err)
	}
	return s, nil
}

func (s *sqliteStore) initTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			signal_id TEXT PRIMARY KEY,
			ticker TEXT NOT NULL,
			side TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL DEFAULT '',
			price TEXT,
			received_at TEXT NOT NULL,
			original_payload TEXT NOT NULL DEFAULT '{}',
			signal_type TEXT NOT NULL,
			status TEXT NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		)`,
		`CREATE TABLE IF NOT EXISTS signal_events (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id TEXT NOT NULL REFERENCES signals(signal_id),
			timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
			status TEXT NOT NULL,
			worker_id TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			position_id INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			status TEXT NOT NULL,
			entry_signal_id TEXT NOT NULL REFERENCES signals(signal_id) ON DELETE RESTRICT,
			exit_signal_id TEXT REFERENCES signals(signal_id) ON DELETE RESTRICT,
			opened_at TEXT NOT NULL,
			closed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS strategies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL DEFAULT '',
			top_n INTEGER NOT NULL DEFAULT 50,
			refresh_interval_sec INTEGER NOT NULL DEFAULT 60,
			reprocess_enabled INTEGER NOT NULL DEFAULT 1,
			reprocess_window_seconds INTEGER NOT NULL DEFAULT 0,
			max_signals_per_ticker INTEGER NOT NULL DEFAULT 20,
			respect_sell_chronology_enabled INTEGER NOT NULL DEFAULT 1,
			sell_chronology_window_seconds INTEGER NOT NULL DEFAULT 300,
			is_active INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS admin_actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
			action TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ticker_status ON signals(ticker, status)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_status_created_at ON signals(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_ticker_status ON positions(ticker, status)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_events_signal_id ON signal_events(signal_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_strategies_one_active ON strategies(is_active) WHERE is_active = 1`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	// Best-effort migrations for older databases created before a column
	// existed; SQLite has no "ADD COLUMN IF NOT EXISTS" so errors here are
	// expected once the column is present and are swallowed.
	_, _ = s.db.Exec(`ALTER TABLE signals ADD COLUMN retry_count INTEGER NOT NULL DEFAULT 0`)
	_, _ = s.db.Exec(`ALTER TABLE strategies ADD COLUMN max_signals_per_ticker INTEGER NOT NULL DEFAULT 20`)
	return nil
}

func (s *sqliteStore) seedDefaultStrategy() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM strategies`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := s.db.Exec(`
		INSERT INTO strategies (id, name, url, top_n, refresh_interval_sec, reprocess_enabled,
			reprocess_window_seconds, max_signals_per_ticker, respect_sell_chronology_enabled, sell_chronology_window_seconds, is_active)
		VALUES ('default', 'default', '', 50, 60, 1, 0, 20, 1, 300, 1)
	`)
	return err
}

func (s *sqliteStore) Close() error { return s.db.Close() }

// ---------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------

func (s *sqliteStore) InsertSignal(ctx context.Context, sig *signal.Signal, initialStatus signal.Status, signalType signal.Type) (string, error) {
	if sig.SignalID == "" {
		sig.SignalID = signal.NewID()
	}
	payload := sig.OriginalPayload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	var priceStr *string
	if sig.Price.Valid {
		v := sig.Price.Decimal.String()
		priceStr = &v
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", wrapTransient(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO signals (signal_id, ticker, side, action, price, received_at, original_payload, signal_type, status, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`, sig.SignalID, sig.Ticker, string(sig.Side), string(sig.Action), priceStr,
		sig.ReceivedAt.UTC().Format(timeLayout), string(payload), string(signalType), string(initialStatus))
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("insert signal %s: %w", sig.SignalID, ErrConflict)
		}
		return "", wrapTransient(err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO signal_events (signal_id, status, worker_id, details) VALUES (?, ?, '', 'INITIAL')
	`, sig.SignalID, string(initialStatus)); err != nil {
		return "", wrapTransient(err)
	}

	if err := tx.Commit(); err != nil {
		return "", wrapTransient(err)
	}
	sig.SignalType = signalType
	sig.Status = initialStatus
	return sig.SignalID, nil
}

func (s *sqliteStore) AppendEvent(ctx context.Context, signalID string, status signal.Status, workerID string, details string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signal_events (signal_id, status, worker_id, details) VALUES (?, ?, ?, ?)
	`, signalID, string(status), workerID, details)
	if err != nil {
		return wrapTransient(err)
	}
	return nil
}

func (s *sqliteStore) SetSignalStatus(ctx context.Context, signalID string, newStatus signal.Status, workerID string, details string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapTransient(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE signals SET status = ? WHERE signal_id = ?`, string(newStatus), signalID)
	if err != nil {
		return wrapTransient(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("signal %s: %w", signalID, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO signal_events (signal_id, status, worker_id, details) VALUES (?, ?, ?, ?)
	`, signalID, string(newStatus), workerID, details); err != nil {
		return wrapTransient(err)
	}
	if err := tx.Commit(); err != nil {
		return wrapTransient(err)
	}
	return nil
}

func (s *sqliteStore) GetSignal(ctx context.Context, signalID string) (*SignalRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT signal_id, ticker, side, action, price, received_at, original_payload, signal_type, status, retry_count, created_at
		FROM signals WHERE signal_id = ?
	`, signalID)
	r, err := scanSignalRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("signal %s: %w", signalID, ErrNotFound)
	}
	if err != nil {
		return nil, wrapTransient(err)
	}
	return r, nil
}

func (s *sqliteStore) ListSignals(ctx context.Context, f SignalFilter) ([]SignalRow, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT signal_id, ticker, side, action, price, received_at, original_payload, signal_type, status, retry_count, created_at FROM signals WHERE 1=1`)
	var args []any
	if f.Ticker != "" {
		q.WriteString(` AND ticker = ?`)
		args = append(args, f.Ticker)
	}
	if f.Status != "" {
		q.WriteString(` AND status = ?`)
		args = append(args, string(f.Status))
	}
	if f.SignalType != "" {
		q.WriteString(` AND signal_type = ?`)
		args = append(args, string(f.SignalType))
	}
	if !f.Since.IsZero() {
		q.WriteString(` AND created_at >= ?`)
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if !f.Until.IsZero() {
		q.WriteString(` AND created_at <= ?`)
		args = append(args, f.Until.UTC().Format(timeLayout))
	}
	q.WriteString(` ORDER BY created_at DESC`)
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	var out []SignalRow
	for rows.Next() {
		r, err := scanSignalRow(rows)
		if err != nil {
			return nil, wrapTransient(err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignalRow(row rowScanner) (*SignalRow, error) {
	var r SignalRow
	var side, action, status, signalType, receivedAt, createdAt string
	var price sql.NullString
	var payload string
	if err := row.Scan(&r.SignalID, &r.Ticker, &side, &action, &price, &receivedAt, &payload, &signalType, &status, &r.RetryCount, &createdAt); err != nil {
		return nil, err
	}
	r.Side = signal.Side(side)
	r.Action = signal.Action(action)
	r.Status = signal.Status(status)
	r.SignalType = signal.Type(signalType)
	r.OriginalPayload = json.RawMessage(payload)
	if price.Valid {
		p := price.String
		r.Price = &p
	}
	r.ReceivedAt = parseTime(receivedAt)
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ---------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------

type sqlTxn struct {
	tx *sql.Tx
}

func (t *sqlTxn) Commit() error   { return t.tx.Commit() }
func (t *sqlTxn) Rollback() error { return t.tx.Rollback() }

func (s *sqliteStore) GetTransaction(ctx context.Context) (Txn, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapTransient(err)
	}
	return &sqlTxn{tx: tx}, nil
}

func asSQLTx(txn Txn) (*sql.Tx, error) {
	t, ok := txn.(*sqlTxn)
	if !ok || t == nil {
		return nil, fmt.Errorf("store: %w: txn not produced by this store", ErrFatal)
	}
	return t.tx, nil
}

// ---------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------

func (s *sqliteStore) OpenPositionTx(ctx context.Context, txn Txn, ticker, entrySignalID string) error {
	tx, err := asSQLTx(txn)
	if err != nil {
		return err
	}
	var count int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM positions WHERE ticker = ? AND status IN ('OPEN', 'CLOSING')
	`, ticker).Scan(&count); err != nil {
		return wrapTransient(err)
	}
	if count > 0 {
		return fmt.Errorf("ticker %s: %w", ticker, ErrConflict)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO positions (ticker, status, entry_signal_id, opened_at)
		VALUES (?, 'OPEN', ?, ?)
	`, ticker, entrySignalID, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return wrapTransient(err)
	}
	return nil
}

func (s *sqliteStore) MarkPositionClosing(ctx context.Context, ticker, exitSignalID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrapTransient(err)
	}
	defer tx.Rollback()

	var positionID int64
	err = tx.QueryRowContext(ctx, `
		SELECT position_id FROM positions WHERE ticker = ? AND status = 'OPEN' ORDER BY opened_at DESC LIMIT 1
	`, ticker).Scan(&positionID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, wrapTransient(err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE positions SET status = 'CLOSING', exit_signal_id = ? WHERE position_id = ?
	`, exitSignalID, positionID); err != nil {
		return false, wrapTransient(err)
	}
	if err := tx.Commit(); err != nil {
		return false, wrapTransient(err)
	}
	return true, nil
}

func (s *sqliteStore) ClosePosition(ctx context.Context, ticker string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE positions SET status = 'CLOSED', closed_at = ?
		WHERE position_id = (
			SELECT position_id FROM positions WHERE ticker = ? AND status = 'CLOSING' ORDER BY opened_at DESC LIMIT 1
		)
	`, time.Now().UTC().Format(timeLayout), ticker)
	if err != nil {
		return wrapTransient(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("ticker %s: %w", ticker, ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) IsPositionOpenOrClosing(ctx context.Context, ticker string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM positions WHERE ticker = ? AND status IN ('OPEN', 'CLOSING')
	`, ticker).Scan(&count); err != nil {
		return false, wrapTransient(err)
	}
	return count > 0, nil
}

func (s *sqliteStore) OpenPositionTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT ticker FROM positions WHERE status = 'OPEN'`)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, wrapTransient(err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------
// Reprocessing support
// ---------------------------------------------------------------------

func (s *sqliteStore) GetRejectedBuyCandidates(ctx context.Context, ticker string, windowSeconds int, limit int) ([]SignalRow, error) {
	q := `
		SELECT signal_id, ticker, side, action, price, received_at, original_payload, signal_type, status, retry_count, created_at
		FROM signals
		WHERE ticker = ? AND status = 'REJECTED' AND signal_type = 'BUY'
	`
	args := []any{ticker}
	if windowSeconds > 0 {
		cutoff := time.Now().Add(-time.Duration(windowSeconds) * time.Second).UTC().Format(timeLayout)
		q += ` AND created_at >= ?`
		args = append(args, cutoff)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()
	var out []SignalRow
	for rows.Next() {
		r, err := scanSignalRow(rows)
		if err != nil {
			return nil, wrapTransient(err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) HasSubsequentSell(ctx context.Context, ticker string, buyCreatedAt time.Time, windowSeconds int) (bool, error) {
	q := `
		SELECT COUNT(*) FROM signals
		WHERE ticker = ? AND signal_type IN ('SELL', 'MANUAL_SELL', 'SELL_ALL', 'POSITION_CLOSE')
		AND created_at > ?
	`
	args := []any{ticker, buyCreatedAt.UTC().Format(timeLayout)}
	if windowSeconds > 0 {
		cutoff := buyCreatedAt.Add(time.Duration(windowSeconds) * time.Second).UTC().Format(timeLayout)
		q += ` AND created_at <= ?`
		args = append(args, cutoff)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return false, wrapTransient(err)
	}
	return count > 0, nil
}

func (s *sqliteStore) ReapproveSignalWithValidation(ctx context.Context, txn Txn, signalID string, expectedStatus signal.Status) (bool, string, error) {
	tx, err := asSQLTx(txn)
	if err != nil {
		return false, "", err
	}
	var current string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM signals WHERE signal_id = ?`, signalID).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			return false, "not_found", fmt.Errorf("signal %s: %w", signalID, ErrNotFound)
		}
		return false, "", wrapTransient(err)
	}
	if signal.Status(current) != expectedStatus {
		return false, "status_changed", nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE signals SET status = ? WHERE signal_id = ?`, string(signal.StatusApproved), signalID); err != nil {
		return false, "", wrapTransient(err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO signal_events (signal_id, status, worker_id, details) VALUES (?, ?, 'reprocessor', 'reapproved')
	`, signalID, string(signal.StatusApproved)); err != nil {
		return false, "", wrapTransient(err)
	}
	return true, "", nil
}

// ---------------------------------------------------------------------
// Strategy
// ---------------------------------------------------------------------

func (s *sqliteStore) ActiveStrategy(ctx context.Context) (*Strategy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, url, top_n, refresh_interval_sec, reprocess_enabled, reprocess_window_seconds,
			max_signals_per_ticker, respect_sell_chronology_enabled, sell_chronology_window_seconds, is_active
		FROM strategies WHERE is_active = 1 LIMIT 1
	`)
	st, err := scanStrategy(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active strategy: %w", ErrNotFound)
	}
	if err != nil {
		return nil, wrapTransient(err)
	}
	return st, nil
}

func (s *sqliteStore) SwitchActiveStrategy(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapTransient(err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM strategies WHERE id = ?`, id).Scan(&exists); err != nil {
		return wrapTransient(err)
	}
	if exists == 0 {
		return fmt.Errorf("strategy %s: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE strategies SET is_active = 0`); err != nil {
		return wrapTransient(err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE strategies SET is_active = 1 WHERE id = ?`, id); err != nil {
		return wrapTransient(err)
	}
	if err := tx.Commit(); err != nil {
		return wrapTransient(err)
	}
	return nil
}

func (s *sqliteStore) ListStrategies(ctx context.Context) ([]Strategy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, url, top_n, refresh_interval_sec, reprocess_enabled, reprocess_window_seconds,
			max_signals_per_ticker, respect_sell_chronology_enabled, sell_chronology_window_seconds, is_active
		FROM strategies ORDER BY name
	`)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()
	var out []Strategy
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, wrapTransient(err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *sqliteStore) UpsertStrategy(ctx context.Context, st *Strategy) error {
	if st.ID == "" {
		st.ID = signal.NewID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO strategies (id, name, url, top_n, refresh_interval_sec, reprocess_enabled, reprocess_window_seconds,
			max_signals_per_ticker, respect_sell_chronology_enabled, sell_chronology_window_seconds, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, url = excluded.url, top_n = excluded.top_n,
			refresh_interval_sec = excluded.refresh_interval_sec, reprocess_enabled = excluded.reprocess_enabled,
			reprocess_window_seconds = excluded.reprocess_window_seconds,
			max_signals_per_ticker = excluded.max_signals_per_ticker,
			respect_sell_chronology_enabled = excluded.respect_sell_chronology_enabled,
			sell_chronology_window_seconds = excluded.sell_chronology_window_seconds
	`, st.ID, st.Name, st.URL, st.TopN, st.RefreshIntervalSec, st.ReprocessEnabled, st.ReprocessWindowSeconds,
		maxSignalsOrDefault(st.MaxSignalsPerTicker), st.RespectSellChronologyEnabled, st.SellChronologyWindowSeconds)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("strategy %s: %w", st.Name, ErrConflict)
		}
		return wrapTransient(err)
	}
	return nil
}

func (s *sqliteStore) DeleteStrategy(ctx context.Context, id string) error {
	var isActive bool
	if err := s.db.QueryRowContext(ctx, `SELECT is_active FROM strategies WHERE id = ?`, id).Scan(&isActive); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("strategy %s: %w", id, ErrNotFound)
		}
		return wrapTransient(err)
	}
	if isActive {
		return fmt.Errorf("strategy %s is active: %w", id, ErrConflict)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM strategies WHERE id = ?`, id)
	if err != nil {
		return wrapTransient(err)
	}
	return nil
}

func scanStrategy(row rowScanner) (*Strategy, error) {
	var st Strategy
	if err := row.Scan(&st.ID, &st.Name, &st.URL, &st.TopN, &st.RefreshIntervalSec, &st.ReprocessEnabled,
		&st.ReprocessWindowSeconds, &st.MaxSignalsPerTicker, &st.RespectSellChronologyEnabled,
		&st.SellChronologyWindowSeconds, &st.IsActive); err != nil {
		return nil, err
	}
	return &st, nil
}

func maxSignalsOrDefault(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}

// ---------------------------------------------------------------------
// Destructive clear
// ---------------------------------------------------------------------

func (s *sqliteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapTransient(err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM signal_events`,
		`DELETE FROM positions`,
		`DELETE FROM signals`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return wrapTransient(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapTransient(err)
	}
	return nil
}

// ---------------------------------------------------------------------
// Error classification helpers
// ---------------------------------------------------------------------

func wrapTransient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%v: %w", err, ErrTransient)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
