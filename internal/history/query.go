package history

import (
	"database/sql"
	"time"
)

const selectColumns = `
	SELECT id, op_id, timestamp, operation, path, target, outcome,
	       count, bytes, duration_ms, error_message
	FROM operations
`

// Recent returns the N most recent operations
func (h *DB) Recent(limit int) ([]Entry, error) {
	return h.queryEntries(selectColumns+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
}

// ByOperation returns operations with the given name, e.g. "clear_expired"
func (h *DB) ByOperation(operation string, limit int) ([]Entry, error) {
	return h.queryEntries(selectColumns+`
	WHERE operation = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, operation, limit)
}

// ByOutcome returns operations with the given outcome
func (h *DB) ByOutcome(outcome string, limit int) ([]Entry, error) {
	return h.queryEntries(selectColumns+`
	WHERE outcome = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, outcome, limit)
}

// ByPath returns operations whose path matches a LIKE pattern
func (h *DB) ByPath(pathPattern string, limit int) ([]Entry, error) {
	return h.queryEntries(selectColumns+`
	WHERE path LIKE ? OR target LIKE ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, pathPattern, pathPattern, limit)
}

// ByDateRange returns operations within a time range
func (h *DB) ByDateRange(start, end time.Time) ([]Entry, error) {
	return h.queryEntries(selectColumns+`
	WHERE timestamp BETWEEN ? AND ?
	ORDER BY timestamp DESC, id DESC
	`, start, end)
}

// Stats holds aggregated statistics
type Stats struct {
	TotalOperations int
	TotalErrors     int
	EntriesRemoved  int64
	BytesCopied     int64
	ByOperation     map[string]int
	StartDate       time.Time
	EndDate         time.Time
}

// GetStats returns statistics for the last days
func (h *DB) GetStats(days int) (*Stats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &Stats{
		StartDate:   since,
		EndDate:     now,
		ByOperation: make(map[string]int),
	}

	err := h.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN outcome = 'ERROR' THEN 1 END),
			COALESCE(SUM(count), 0),
			COALESCE(SUM(bytes), 0)
		FROM operations
		WHERE timestamp >= ?
	`, since).Scan(&stats.TotalOperations, &stats.TotalErrors, &stats.EntriesRemoved, &stats.BytesCopied)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Query(`
		SELECT operation, COUNT(*)
		FROM operations
		WHERE timestamp >= ?
		GROUP BY operation
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var op string
		var count int
		if err := rows.Scan(&op, &count); err != nil {
			return nil, err
		}
		stats.ByOperation[op] = count
	}

	return stats, rows.Err()
}

// queryEntries executes a query and scans the results
func (h *DB) queryEntries(query string, args ...interface{}) ([]Entry, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var target, errMsg sql.NullString

		err := rows.Scan(
			&e.ID, &e.OpID, &e.Timestamp, &e.Operation, &e.Path, &target,
			&e.Outcome, &e.Count, &e.Bytes, &e.DurationMs, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		e.Target = target.String
		e.ErrorMessage = errMsg.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
