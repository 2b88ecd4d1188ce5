package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domainerrors "radar/internal/core/errors"
	"radar/internal/shared/observability"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Totals are the headline numbers of an analysed build, stored alongside the
// compressed metafile so listings do not need to re-analyse.
type Totals struct {
	EntryOutput  string
	InputCount   int
	OutputCount  int
	InitialBytes int64
	LazyBytes    int64
}

// Snapshot describes a stored build. Raw is only populated by Load.
type Snapshot struct {
	ID        string
	Name      string
	Timestamp time.Time
	RawSize   int
	Totals    Totals
	Raw       []byte
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	now  func() time.Time
}

// Open opens or creates the snapshot database at path.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("snapshot path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("snapshot path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite snapshots %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite snapshots %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{path: cleanPath, db: db, enc: enc, dec: dec, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.dec.Close()
	_ = s.enc.Close()
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save compresses raw and stores it with the given totals, returning the new
// snapshot's metadata.
func (s *Store) Save(ctx context.Context, name string, raw []byte, totals Totals) (Snapshot, error) {
	defer observeStore("save", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(raw) == 0 {
		return Snapshot{}, domainerrors.New(domainerrors.CodeValidationError, "snapshot payload is empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "snapshot"
	}

	snap := Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: s.now().UTC(),
		RawSize:   len(raw),
		Totals:    totals,
	}
	payload := s.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))

	err := s.withRetry("save snapshot", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots (
  id, name, ts_utc, entry_output, input_count, output_count, initial_bytes, lazy_bytes, raw_size, payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID,
			snap.Name,
			snap.Timestamp.Format(time.RFC3339Nano),
			totals.EntryOutput,
			totals.InputCount,
			totals.OutputCount,
			totals.InitialBytes,
			totals.LazyBytes,
			snap.RawSize,
			payload,
		)
		return err
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// List returns every snapshot, newest first, without payloads.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	defer observeStore("list", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("list snapshots", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT id, name, ts_utc, entry_output, input_count, output_count, initial_bytes, lazy_bytes, raw_size
FROM snapshots
ORDER BY ts_utc DESC, id ASC`)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return out, nil
}

// Load returns the snapshot with the given id, including the decompressed
// metafile bytes. A unique id prefix is accepted.
func (s *Store) Load(ctx context.Context, id string) (Snapshot, error) {
	defer observeStore("load", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	var (
		snap    Snapshot
		payload []byte
		tsRaw   string
	)
	err = s.withRetry("load snapshot", func() error {
		return s.db.QueryRowContext(ctx, `
SELECT id, name, ts_utc, entry_output, input_count, output_count, initial_bytes, lazy_bytes, raw_size, payload
FROM snapshots
WHERE id = ?`, fullID).Scan(&snap.ID, &snap.Name, &tsRaw, &snap.Totals.EntryOutput, &snap.Totals.InputCount,
			&snap.Totals.OutputCount, &snap.Totals.InitialBytes, &snap.Totals.LazyBytes, &snap.RawSize, &payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, notFound(id)
	}
	if err != nil {
		return Snapshot{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
	}
	snap.Timestamp = ts.UTC()

	raw, err := s.dec.DecodeAll(payload, make([]byte, 0, snap.RawSize))
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompress snapshot %s: %w", snap.ID, err)
	}
	snap.Raw = raw
	return snap, nil
}

// Delete removes the snapshot with the given id or unique id prefix.
func (s *Store) Delete(ctx context.Context, id string) error {
	defer observeStore("delete", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}

	var affected int64
	err = s.withRetry("delete snapshot", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, fullID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// resolveID expands an id or id prefix to the one stored id it names. An
// exact match wins over longer ids sharing the prefix. The prefix is
// compared literally; callers hold s.mu.
func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domainerrors.New(domainerrors.CodeValidationError, "snapshot id must not be empty")
	}

	var ids []string
	err := s.withRetry("resolve snapshot id", func() error {
		rows, err := s.db.QueryContext(ctx, `
SELECT id FROM snapshots
WHERE substr(id, 1, length(?)) = ?
ORDER BY id ASC
LIMIT 2`, id, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		ids = ids[:0]
		for rows.Next() {
			var found string
			if err := rows.Scan(&found); err != nil {
				return fmt.Errorf("scan snapshot id: %w", err)
			}
			ids = append(ids, found)
		}
		return rows.Err()
	})
	if err != nil {
		return "", err
	}

	switch {
	case len(ids) == 0:
		return "", notFound(id)
	case ids[0] == id || len(ids) == 1:
		return ids[0], nil
	default:
		return "", domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "snapshot id prefix is ambiguous"), domainerrors.CtxPath, id)
	}
}

func notFound(id string) error {
	return domainerrors.AddContext(
		domainerrors.New(domainerrors.CodeNotFound, "snapshot not found"), domainerrors.CtxPath, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap  Snapshot
		tsRaw string
	)
	if err := row.Scan(&snap.ID, &snap.Name, &tsRaw, &snap.Totals.EntryOutput, &snap.Totals.InputCount,
		&snap.Totals.OutputCount, &snap.Totals.InitialBytes, &snap.Totals.LazyBytes, &snap.RawSize); err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot row: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
	}
	snap.Timestamp = ts.UTC()
	return snap, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// IsCorruptError reports whether err indicates an unreadable database file.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func observeStore(op string, start time.Time) {
	observability.SnapshotStoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
