package hzfetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxFiles is how many downloads of one URL are kept.
const DefaultMaxFiles = 5

// Cache manages downloaded maps on disk. Files for one URL share a prefix
// derived from the URL, so several sources can share a directory.
type Cache struct {
	dir      string
	maxFiles int
	logger   *slog.Logger
	remove   func(string) error
}

// NewCache creates a Cache that stores files in dir and keeps at most
// maxFiles per URL. A nil logger discards output.
func NewCache(dir string, maxFiles int, logger *slog.Logger) *Cache {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		dir:      dir,
		maxFiles: maxFiles,
		logger:   logger,
		remove:   os.Remove,
	}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

func prefix(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "hz_" + hex.EncodeToString(sum[:6]) + "_"
}

// Write saves data to a timestamped file, prunes old files beyond maxFiles
// and returns the path written. A failed prune is logged; the new file is
// still usable.
func (c *Cache) Write(url string, data []byte, ts time.Time) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("%s%d.dat", prefix(url), ts.UnixNano()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing cache file: %w", err)
	}

	if err := c.prune(url); err != nil {
		c.logger.Warn("pruning H(z) cache failed",
			"dir", c.dir,
			"error", err,
		)
	}
	return path, nil
}

// Latest returns the path and timestamp of the newest file for url.
func (c *Cache) Latest(url string) (string, time.Time, error) {
	files, err := c.listFiles(url)
	if err != nil {
		return "", time.Time{}, err
	}
	if len(files) == 0 {
		return "", time.Time{}, fmt.Errorf("no cached H(z) map for %s", url)
	}

	// Files are sorted oldest first; take the last one.
	latest := files[len(files)-1]
	return filepath.Join(c.dir, latest.name), latest.ts, nil
}

type cacheFile struct {
	name string
	ts   time.Time
}

func (c *Cache) listFiles(url string) ([]cacheFile, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	p := prefix(url)
	var files []cacheFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, p) || !strings.HasSuffix(name, ".dat") {
			continue
		}
		tsStr := strings.TrimSuffix(strings.TrimPrefix(name, p), ".dat")
		nanos, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, cacheFile{name: name, ts: time.Unix(0, nanos)})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})
	return files, nil
}

func (c *Cache) prune(url string) error {
	files, err := c.listFiles(url)
	if err != nil {
		return err
	}
	if len(files) <= c.maxFiles {
		return nil
	}

	var errs []error
	for _, f := range files[:len(files)-c.maxFiles] {
		if err := c.remove(filepath.Join(c.dir, f.name)); err != nil {
			errs = append(errs, fmt.Errorf("pruning cache file %s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}

// Resolve turns path into a local file. Local paths are returned unchanged.
// A URL is downloaded into dir; if the download fails the newest cached
// copy is used instead.
func Resolve(ctx context.Context, path, dir string, logger *slog.Logger) (string, error) {
	if !IsRemote(path) {
		return path, nil
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "sncosmo-hz")
	}

	cache := NewCache(dir, DefaultMaxFiles, logger)
	data, err := NewFetcher(path, logger).Fetch(ctx)
	if err == nil {
		return cache.Write(path, data, time.Now())
	}

	cached, ts, cerr := cache.Latest(path)
	if cerr != nil {
		return "", fmt.Errorf("%w (and no cached copy: %v)", err, cerr)
	}
	logger.Warn("H(z) map fetch failed, using cached copy",
		"url", path,
		"error", err,
		"cached", cached,
		"cache_age_seconds", int(time.Since(ts).Seconds()),
	)
	return cached, nil
}
