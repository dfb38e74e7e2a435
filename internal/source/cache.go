package source

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/postmortem/internal/logging"
)

// CachedReader caches split source files and drops a file's entry when the
// filesystem reports it was written, created, renamed or removed.
//
// The parent directory of every cached file is watched rather than the file
// itself, so editors that save by renaming a temporary file still
// invalidate the entry.
type CachedReader struct {
	mu sync.RWMutex

	next    Reader
	watcher *fsnotify.Watcher
	logger  *logging.Logger

	entries map[string][]string
	dirs    map[string]bool

	// generation counts invalidations; a read that raced one is not cached.
	generation uint64

	hits          int64
	misses        int64
	invalidations int64

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries       int
	WatchedDirs   int
	Hits          int64
	Misses        int64
	Invalidations int64
}

// CacheOption configures a CachedReader.
type CacheOption func(*CachedReader)

// WithNext sets the reader consulted on a cache miss. Defaults to
// FileReader.
func WithNext(r Reader) CacheOption {
	return func(c *CachedReader) {
		if r != nil {
			c.next = r
		}
	}
}

// WithCacheLogger sets the logger used for watcher errors.
func WithCacheLogger(l *logging.Logger) CacheOption {
	return func(c *CachedReader) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCachedReader creates a caching reader and starts its watcher
// goroutine. Close stops it.
func NewCachedReader(opts ...CacheOption) (*CachedReader, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	c := &CachedReader{
		next:    FileReader{},
		watcher: fsw,
		logger:  logging.Nop(),
		entries: make(map[string][]string),
		dirs:    make(map[string]bool),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("source-cache")

	c.closedWg.Add(1)
	go c.processLoop()

	return c, nil
}

// Lines returns the cached lines of path, reading and caching on a miss.
// The file's directory is watched before the file is read, so a change
// made during the read still invalidates the entry. Files whose directory
// cannot be watched are read but not cached.
func (c *CachedReader) Lines(path string) ([]string, error) {
	key := normalize(path)

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrReaderClosed
	}
	lines, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		atomic.AddInt64(&c.hits, 1)
		return lines, nil
	}
	atomic.AddInt64(&c.misses, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrReaderClosed
	}
	watchErr := c.watchDir(filepath.Dir(key))
	generation := c.generation
	c.mu.Unlock()

	lines, err := c.next.Lines(path)
	if err != nil {
		return nil, err
	}
	if watchErr != nil {
		c.logger.WithError(watchErr).WithField("file", key).Debug("not caching unwatchable file")
		return lines, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed && c.generation == generation {
		c.entries[key] = lines
	}
	return lines, nil
}

// Invalidate drops the cached entry for path.
func (c *CachedReader) Invalidate(path string) {
	key := normalize(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		atomic.AddInt64(&c.invalidations, 1)
	}
}

// Stats returns cache statistics.
func (c *CachedReader) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Entries:       len(c.entries),
		WatchedDirs:   len(c.dirs),
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Invalidations: atomic.LoadInt64(&c.invalidations),
	}
}

// Close stops the watcher and clears the cache.
func (c *CachedReader) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.closeCh)
	c.entries = make(map[string][]string)
	c.mu.Unlock()

	c.closedWg.Wait()
	return c.watcher.Close()
}

// watchDir adds dir to the watcher once. Caller holds c.mu.
func (c *CachedReader) watchDir(dir string) error {
	if c.dirs[dir] {
		return nil
	}
	if err := c.watcher.Add(dir); err != nil {
		return err
	}
	c.dirs[dir] = true
	return nil
}

// processLoop handles incoming fsnotify events.
func (c *CachedReader) processLoop() {
	defer c.closedWg.Done()

	for {
		select {
		case <-c.closeCh:
			return

		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
				ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				c.Invalidate(ev.Name)
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.WithError(err).Warn("watcher error")
		}
	}
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
