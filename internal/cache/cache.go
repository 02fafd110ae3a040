// Package cache keeps catalog metadata in a local sqlite database.
//
// Backend decorates any types.Backend: track, artist and album lookups are
// answered from the database while fresh and fetched from the wrapped
// backend otherwise. Everything else passes straight through.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/toozej/greenstripes/internal/types"
)

// ErrNoBackend is returned by Open without a backend to wrap.
var ErrNoBackend = errors.New("cache needs a backend to wrap")

// DefaultTTL is how long cached metadata is served before it is refetched.
const DefaultTTL = 24 * time.Hour

const (
	kindTrack  = "track"
	kindArtist = "artist"
	kindAlbum  = "album"
)

// entry is one cached record.
type entry struct {
	Kind     string    `gorm:"primaryKey"`
	ID       string    `gorm:"primaryKey"`
	Payload  []byte    `gorm:"not null"`
	StoredAt time.Time `gorm:"index"`
}

func (entry) TableName() string {
	return "metadata"
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64
	Misses int64
}

// Backend is a caching decorator around another backend.
type Backend struct {
	types.Backend

	db     *gorm.DB
	ttl    time.Duration
	logger *logrus.Logger
	now    func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Backend.
type Option func(*Backend)

// WithTTL sets how long entries stay fresh.
func WithTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// Open opens or creates the cache database at path and wraps inner.
func Open(path string, inner types.Backend, opts ...Option) (*Backend, error) {
	if inner == nil {
		return nil, ErrNoBackend
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	b := &Backend{
		Backend: inner,
		db:      db,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logrus.StandardLogger()
	}

	b.logger.WithFields(logrus.Fields{
		"component": "cache",
		"path":      path,
		"ttl":       b.ttl,
	}).Debug("Opened metadata cache")

	return b, nil
}

// Close closes the database and the wrapped backend.
func (b *Backend) Close() error {
	innerErr := b.Backend.Close()
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get cache database handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	return innerErr
}

// Stats returns the lookup counters.
func (b *Backend) Stats() Stats {
	return Stats{Hits: b.hits.Load(), Misses: b.misses.Load()}
}

// Purge deletes expired entries and returns how many were removed.
func (b *Backend) Purge(ctx context.Context) (int64, error) {
	res := b.db.WithContext(ctx).Where("stored_at < ?", b.cutoff()).Delete(&entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Tracks serves cached tracks and fetches the rest in one call.
func (b *Backend) Tracks(ctx context.Context, ids []string) ([]types.TrackRecord, error) {
	found := lookup[types.TrackRecord](ctx, b, kindTrack, ids)

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		fetched, err := b.Backend.Tracks(ctx, missing)
		if err != nil {
			return nil, err
		}
		store(ctx, b, kindTrack, fetched, func(t types.TrackRecord) string { return t.ID })
		for _, rec := range fetched {
			found[rec.ID] = rec
		}
	}

	out := make([]types.TrackRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Artist serves a cached artist or fetches it.
func (b *Backend) Artist(ctx context.Context, id string) (types.ArtistRecord, error) {
	return cached(ctx, b, kindArtist, id, b.Backend.Artist)
}

// Album serves a cached album or fetches it.
func (b *Backend) Album(ctx context.Context, id string) (types.AlbumRecord, error) {
	return cached(ctx, b, kindAlbum, id, b.Backend.Album)
}

func (b *Backend) cutoff() time.Time {
	return b.clock().Add(-b.ttl)
}

// clock returns the current time in UTC so stored timestamps compare as
// text.
func (b *Backend) clock() time.Time {
	return b.now().UTC()
}

func cached[T any](ctx context.Context, b *Backend, kind, id string, fetch func(context.Context, string) (T, error)) (T, error) {
	if rec, ok := lookup[T](ctx, b, kind, []string{id})[id]; ok {
		return rec, nil
	}
	rec, err := fetch(ctx, id)
	if err != nil {
		return rec, err
	}
	store(ctx, b, kind, []T{rec}, func(T) string { return id })
	return rec, nil
}

// lookup returns the fresh entries among ids. Cache failures are logged
// and treated as misses.
func lookup[T any](ctx context.Context, b *Backend, kind string, ids []string) map[string]T {
	found := make(map[string]T, len(ids))
	if len(ids) == 0 {
		return found
	}

	var rows []entry
	err := b.db.WithContext(ctx).
		Where("kind = ? AND id IN ? AND stored_at >= ?", kind, ids, b.cutoff()).
		Find(&rows).Error
	if err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"component": "cache",
			"operation": "lookup",
			"kind":      kind,
		}).Warn("Cache lookup failed")
		b.misses.Add(int64(len(ids)))
		return found
	}

	for _, row := range rows {
		var rec T
		if err := json.Unmarshal(row.Payload, &rec); err != nil {
			b.logger.WithError(err).WithFields(logrus.Fields{
				"component": "cache",
				"kind":      kind,
				"id":        row.ID,
			}).Warn("Dropping unreadable cache entry")
			continue
		}
		found[row.ID] = rec
	}

	b.hits.Add(int64(len(found)))
	b.misses.Add(int64(len(ids) - len(found)))

	b.logger.WithFields(logrus.Fields{
		"component": "cache",
		"operation": "lookup",
		"kind":      kind,
		"requested": len(ids),
		"hits":      len(found),
	}).Trace("Cache lookup")

	return found
}

func store[T any](ctx context.Context, b *Backend, kind string, recs []T, id func(T) string) {
	if len(recs) == 0 {
		return
	}
	now := b.clock()
	rows := make([]entry, 0, len(recs))
	for _, rec := range recs {
		payload, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		rows = append(rows, entry{Kind: kind, ID: id(rec), Payload: payload, StoredAt: now})
	}

	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"component": "cache",
			"operation": "store",
			"kind":      kind,
			"count":     len(rows),
		}).Warn("Failed to store cache entries")
	}
}
