// Package cache is the local persistent key-value store shared between
// the submission store, the reconciliation engine and external UI code.
//
// Key patterns:
//
//	submissions:{userId}        JSON array of submission snapshots
//	status-updates:{trackingId} JSON array of admin-issued status updates
//	documents:{trackingId}      opaque, owned by external document code
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/KoushikN01/legal-ai-forms-sub001/pkg/database"
	"go.uber.org/zap"
)

// KV is the persistent key-value contract the engine depends on. The
// sqlite-backed Cache is the production implementation; tests substitute
// an in-memory map.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	SetMany(entries map[string]string) error
	Keys(prefix string) ([]string, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Cache is the sqlite-backed key-value cache.
type Cache struct {
	db     *database.DB
	logger *zap.Logger
}

// New initializes the cache, creating its table if needed.
func New(db *database.DB, logger *zap.Logger) (*Cache, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Cache{db: db, logger: logger}, nil
}

// Get returns the value for key and whether it exists.
func (c *Cache) Get(key string) (string, bool, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes one key.
func (c *Cache) Set(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// SetMany writes all entries in one transaction. The reconciler persists
// a whole tick's changes through this to avoid interleaved partial writes.
func (c *Cache) SetMany(entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	return c.db.WithTransaction(func(tx *sql.Tx) error {
		for key, value := range entries {
			if _, err := tx.Exec(`
				INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
				key, value); err != nil {
				return fmt.Errorf("set %q: %w", key, err)
			}
		}
		return nil
	})
}

// Keys lists keys with the given prefix, sorted.
func (c *Cache) Keys(prefix string) ([]string, error) {
	rows, err := c.db.Query(`SELECT key FROM kv_entries WHERE key LIKE ? ORDER BY key`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list keys %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SubmissionsKey is the cache key for a user's submission snapshots.
func SubmissionsKey(userID string) string {
	return "submissions:" + userID
}

// StatusUpdatesKey is the cache key for a submission's admin updates.
func StatusUpdatesKey(trackingID string) string {
	return "status-updates:" + trackingID
}

// LoadSubmissions reads and normalizes a user's cached submissions.
// Malformed records are skipped one by one; a bad record never aborts
// the rest of the scan.
func LoadSubmissions(kv KV, logger *zap.Logger, userID string) ([]*models.Submission, error) {
	raw, ok, err := kv.Get(SubmissionsKey(userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		logger.Warn("Cached submission list is not a JSON array, skipping",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, nil
	}

	subs := make([]*models.Submission, 0, len(records))
	for i, record := range records {
		sub, err := NormalizeSubmission(record)
		if err != nil {
			logger.Warn("Skipping malformed cached submission",
				zap.String("user_id", userID),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// EncodeSubmissions serializes submissions to the canonical cached form.
func EncodeSubmissions(subs []*models.Submission) (string, error) {
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	data, err := json.Marshal(subs)
	if err != nil {
		return "", fmt.Errorf("encode submissions: %w", err)
	}
	return string(data), nil
}

// AppendStatusUpdate records an admin-issued status change for later
// pickup by the reconciler's offline fallback path.
func AppendStatusUpdate(kv KV, logger *zap.Logger, update models.StatusUpdate) error {
	key := StatusUpdatesKey(update.TrackingID)

	var updates []models.StatusUpdate
	raw, ok, err := kv.Get(key)
	if err != nil {
		return err
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &updates); err != nil {
			logger.Warn("Discarding unreadable status-update list",
				zap.String("tracking_id", update.TrackingID),
				zap.Error(err))
			updates = nil
		}
	}

	updates = append(updates, update)
	data, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("encode status updates: %w", err)
	}
	return kv.Set(key, string(data))
}

// LatestStatusUpdate returns the newest admin update for trackingID with
// a timestamp strictly after the given time, if any. Unreadable entries
// are skipped.
func LatestStatusUpdate(kv KV, logger *zap.Logger, trackingID string, after time.Time) (*models.StatusUpdate, error) {
	raw, ok, err := kv.Get(StatusUpdatesKey(trackingID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var updates []models.StatusUpdate
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		logger.Warn("Skipping unreadable status-update list",
			zap.String("tracking_id", trackingID),
			zap.Error(err))
		return nil, nil
	}

	var latest *models.StatusUpdate
	for i := range updates {
		u := updates[i]
		if !u.Status.IsValid() || !u.Timestamp.After(after) {
			continue
		}
		if latest == nil || u.Timestamp.After(latest.Timestamp) {
			latest = &updates[i]
		}
	}
	return latest, nil
}
