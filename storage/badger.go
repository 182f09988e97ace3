// Package storage opens the embedded badger store used by the quota ledger
// when QUOTA_BACKEND=badger.
package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger

	// GCInterval of zero disables value log GC.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// zapBadgerLogger routes badger's printf-style logging into zap.
type zapBadgerLogger struct {
	s *zap.SugaredLogger
}

func (l zapBadgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l zapBadgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l zapBadgerLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l zapBadgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// DB is a badger handle with an optional background GC loop.
type DB struct {
	*badger.DB
	gc *GCRunner
}

func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for an on-disk store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(zapBadgerLogger{s: cfg.Logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	db := &DB{DB: bdb}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		gc, err := NewGCRunner(bdb, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			_ = bdb.Close()
			return nil, err
		}
		db.gc = gc
		gc.Start()
	}
	return db, nil
}

func OpenInMemory() (*DB, error) { return Open(InMemoryConfig()) }

// Close stops the GC loop before closing the store.
func (d *DB) Close() error {
	if d.gc != nil {
		d.gc.Stop()
	}
	return d.DB.Close()
}

// GCRunner periodically reclaims value log space.
type GCRunner struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
	log      *zap.Logger
	stop     chan struct{}
	done     chan struct{}
}

func NewGCRunner(db *badger.DB, interval time.Duration, ratio float64, log *zap.Logger) (*GCRunner, error) {
	switch {
	case db == nil:
		return nil, errors.New("gc runner: nil db")
	case interval <= 0:
		return nil, errors.New("gc runner: interval must be positive")
	case ratio <= 0 || ratio >= 1:
		return nil, errors.New("gc runner: discard ratio must be in (0,1)")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GCRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (r *GCRunner) Start() { go r.loop() }

func (r *GCRunner) Stop() {
	close(r.stop)
	<-r.done
}

func (r *GCRunner) loop() {
	defer close(r.done)
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			r.collect()
		}
	}
}

func (r *GCRunner) collect() {
	// ErrNoRewrite just means nothing was worth rewriting.
	if err := r.db.RunValueLogGC(r.ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		r.log.Warn("badger value log gc failed", zap.Error(err))
	}
}
