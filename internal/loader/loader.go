// Package loader loads datasets by logical name and caches them.
//
// The cache is keyed by logical name, not by resolved path, and returns the
// same *domain.Table on every hit. Tables are shared: callers that need to
// modify one must ask for a copy with Options.Copy. Concurrent loads of the
// same name are collapsed into one disk read.
package loader

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
	"finsight/internal/files"
	"finsight/internal/resolver"
	"finsight/pkg/contracts/domain"
)

// Config wires a loader to its data root
type Config struct {
	Root      string
	Aliases   domain.AliasTable
	Encodings []string
	// CacheCapacity bounds the number of cached tables; 0 means unbounded.
	CacheCapacity int
}

// Options tune a single Load call
type Options struct {
	// Sheet selects a workbook sheet. Each sheet is cached separately.
	Sheet string
	// Copy returns a deep copy instead of the shared cached table.
	Copy bool
}

// Stats reports cache activity
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Loads     int64 `json:"loads"`
	Errors    int64 `json:"errors"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

type cacheEntry struct {
	key   string
	table *domain.Table
}

// Loader resolves, parses and caches datasets
type Loader struct {
	discovery *files.Discovery
	resolver  *resolver.Resolver
	parser    *dataprocessing.Parser
	aliases   domain.AliasTable
	capacity  int
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[string]*list.Element
	lru     *list.List
	flight  singleflight.Group

	hits      int64
	misses    int64
	loads     int64
	errors    int64
	evictions int64
}

// New creates a loader over cfg.Root
func New(cfg Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Aliases == nil {
		cfg.Aliases = domain.AliasTable{}
	}
	discovery := files.NewDiscovery(cfg.Root)
	return &Loader{
		discovery: discovery,
		resolver:  resolver.New(discovery, cfg.Aliases, logger),
		parser:    dataprocessing.NewParser(cfg.Encodings, logger),
		aliases:   cfg.Aliases,
		capacity:  cfg.CacheCapacity,
		logger:    logger.With(slog.String("component", "loader")),
		entries:   make(map[string]*list.Element),
		lru:       list.New(),
	}
}

// Resolver exposes the loader's name resolver
func (l *Loader) Resolver() *resolver.Resolver {
	return l.resolver
}

// Load returns the table for a logical name, from cache when possible
func (l *Loader) Load(ctx context.Context, name string, opts Options) (*domain.Table, error) {
	key := cacheKey(name, opts.Sheet)

	if table, ok := l.get(key); ok {
		atomic.AddInt64(&l.hits, 1)
		return l.share(table, opts), nil
	}
	atomic.AddInt64(&l.misses, 1)

	v, err, _ := l.flight.Do(key, func() (interface{}, error) {
		// A concurrent flight may have stored the table after our miss.
		if table, ok := l.peek(key); ok {
			return table, nil
		}

		table, err := l.readTable(ctx, name, opts.Sheet)
		if err != nil {
			atomic.AddInt64(&l.errors, 1)
			return nil, err
		}
		l.put(key, table)
		return table, nil
	})
	if err != nil {
		return nil, err
	}

	return l.share(v.(*domain.Table), opts), nil
}

func (l *Loader) readTable(ctx context.Context, name, sheet string) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("load of %q cancelled", name), err)
	}

	res := l.resolver.Lookup(name)
	info, ok := l.discovery.Stat(res.Actual)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("dataset %q", name)).
			WithContext("resolved", res.Actual).
			WithContext("source", string(res.Source))
	}

	table, err := l.parser.ParseFile(info.Path, dataprocessing.Options{Sheet: sheet})
	if err != nil {
		l.logger.WarnContext(ctx, "dataset load failed",
			slog.String("logical_name", name),
			slog.String("path", info.Path),
			slog.String("error", err.Error()))
		return nil, err
	}
	table.Name = name
	atomic.AddInt64(&l.loads, 1)

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("logical_name", name),
		slog.String("file", res.Actual),
		slog.String("resolved_by", string(res.Source)),
		slog.Int("rows", table.Rows()),
		slog.Int("columns", table.Width()))

	return table, nil
}

func (l *Loader) share(table *domain.Table, opts Options) *domain.Table {
	if opts.Copy {
		return table.Clone()
	}
	return table
}

// get returns a cached table and refreshes its recency
func (l *Loader) get(key string) (*domain.Table, bool) {
	if l.capacity == 0 {
		return l.peek(key)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	elem, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	l.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).table, true
}

// peek returns a cached table without touching recency
func (l *Loader) peek(key string) (*domain.Table, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	elem, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	return elem.Value.(*cacheEntry).table, true
}

func (l *Loader) put(key string, table *domain.Table) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.entries[key]; ok {
		elem.Value.(*cacheEntry).table = table
		l.lru.MoveToFront(elem)
		return
	}
	l.entries[key] = l.lru.PushFront(&cacheEntry{key: key, table: table})

	for l.capacity > 0 && l.lru.Len() > l.capacity {
		oldest := l.lru.Back()
		entry := oldest.Value.(*cacheEntry)
		l.lru.Remove(oldest)
		delete(l.entries, entry.key)
		atomic.AddInt64(&l.evictions, 1)
		l.logger.Debug("dataset evicted", slog.String("key", entry.key))
	}
}

// Invalidate drops every cached table for a logical name and reports whether any existed
func (l *Loader) Invalidate(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := false
	for key, elem := range l.entries {
		if key == name || strings.HasPrefix(key, name+sheetSeparator) {
			l.lru.Remove(elem)
			delete(l.entries, key)
			removed = true
		}
	}
	return removed
}

// Stats returns a snapshot of cache counters
func (l *Loader) Stats() Stats {
	l.mu.RLock()
	entries := len(l.entries)
	l.mu.RUnlock()

	return Stats{
		Hits:      atomic.LoadInt64(&l.hits),
		Misses:    atomic.LoadInt64(&l.misses),
		Loads:     atomic.LoadInt64(&l.loads),
		Errors:    atomic.LoadInt64(&l.errors),
		Evictions: atomic.LoadInt64(&l.evictions),
		Entries:   entries,
	}
}

const sheetSeparator = "\x00"

func cacheKey(name, sheet string) string {
	if sheet == "" {
		return name
	}
	return name + sheetSeparator + sheet
}
