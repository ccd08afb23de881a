// Snapshot export with atomic persistence. A session snapshot is the JSON
// payload handed to outbound report delivery; sessions.jsonl mirrors the
// whole table for inspection and backup.
package sqlite

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// sessionsJSONLName is the table mirror file inside the data directory.
const sessionsJSONLName = "sessions.jsonl"

// Snapshot returns the full record as indented JSON, the payload consumed
// by report delivery.
func (s *Store) Snapshot(sessionID string) ([]byte, error) {
	record, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// ExportSnapshot writes the session snapshot to path using the temp-file,
// fsync, rename pattern.
func (s *Store) ExportSnapshot(sessionID, path string) error {
	data, err := s.Snapshot(sessionID)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// ExportJSONL writes every session record as one JSON line to
// sessions.jsonl in the data directory, ordered by creation time.
func (s *Store) ExportJSONL() error {
	var records []json.RawMessage
	err := s.withRecovery(func(db *sql.DB) error {
		rows, err := db.Query(
			"SELECT " + sessionColumns + " FROM sessions ORDER BY created_at ASC",
		)
		if err != nil {
			return fmt.Errorf("query sessions for JSONL: %w", err)
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			record, err := hydrateSession(rows.Scan)
			if err != nil {
				return fmt.Errorf("hydrate session for JSONL: %w", err)
			}
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("marshal session for JSONL: %w", err)
			}
			records = append(records, data)
		}
		return rows.Err()
	})
	if err != nil {
		return err
	}

	s.mu.RLock()
	dataDir := s.config.DataDir
	s.mu.RUnlock()
	if dataDir == "" {
		dataDir = "."
	}
	return writeJSONL(filepath.Join(dataDir, sessionsJSONLName), records)
}

// writeJSONL atomically writes records to a JSONL file.
func writeJSONL(path string, records []json.RawMessage) error {
	var buf []byte
	for _, rec := range records {
		buf = append(buf, rec...)
		buf = append(buf, '\n')
	}
	return writeFileAtomic(path, buf)
}

// writeFileAtomic writes data to path via a temp file in the same
// directory, fsync, then rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".walkabout-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
