// Package resources exposes a directory tree as read-only MCP resources.
package resources

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/toolgate/toolgate/internal/logger"
	"github.com/toolgate/toolgate/pkg/protocol"
)

const (
	uriPrefix = "file:///"

	// Reads refuse files beyond this size instead of buffering them.
	maxResourceBytes = 10 * 1024 * 1024
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrDenied   = errors.New("resource path outside served root")

	errTruncated = errors.New("listing truncated")
)

type Config struct {
	Root       string
	Include    []string
	Ignore     []string
	MaxEntries int
}

// Store lists and reads files under a single root. Listings are cached
// until Invalidate is called, typically by the change watcher.
type Store struct {
	root       string
	include    []string
	ignore     []string
	maxEntries int
	log        *slog.Logger

	mu     sync.Mutex
	cached []protocol.Resource
	dirty  bool
}

func NewStore(cfg Config) (*Store, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve resources root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat resources root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resources root %s is not a directory", root)
	}

	include := cfg.Include
	if len(include) == 0 {
		include = []string{"**/*"}
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 500
	}

	return &Store{
		root:       root,
		include:    include,
		ignore:     cfg.Ignore,
		maxEntries: maxEntries,
		log:        logger.ForComponent("resources"),
		dirty:      true,
	}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Invalidate marks the cached listing stale; the next List walks again.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *Store) List(ctx context.Context) ([]protocol.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty && s.cached != nil {
		return s.cached, nil
	}

	list, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}

	s.cached = list
	s.dirty = false
	return list, nil
}

func (s *Store) walk(ctx context.Context) ([]protocol.Resource, error) {
	entries := make([]protocol.Resource, 0, 64)

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !s.included(rel) {
			return nil
		}
		if len(entries) >= s.maxEntries {
			return errTruncated
		}

		entries = append(entries, protocol.Resource{
			URI:      uriPrefix + rel,
			Name:     rel,
			MimeType: mimeFor(rel),
		})
		return nil
	})
	if err != nil && !errors.Is(err, errTruncated) {
		return nil, err
	}
	if errors.Is(err, errTruncated) {
		s.log.Warn("resource listing truncated", "limit", s.maxEntries)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].URI < entries[j].URI })
	return entries, nil
}

func (s *Store) ignored(rel string) bool {
	for _, pattern := range s.ignore {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

func (s *Store) included(rel string) bool {
	for _, pattern := range s.include {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}

// Read resolves a file:/// URI against the root and returns text contents
// when the bytes decode as text, otherwise a base64 blob.
func (s *Store) Read(ctx context.Context, uri string) (protocol.ResourceContents, error) {
	var none protocol.ResourceContents

	rel, ok := strings.CutPrefix(uri, uriPrefix)
	if !ok || rel == "" {
		return none, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}

	// Escape attempts are refused, not silently clamped to the root.
	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return none, fmt.Errorf("%w: %s", ErrDenied, uri)
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	within, err := filepath.Rel(s.root, full)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return none, fmt.Errorf("%w: %s", ErrDenied, uri)
	}

	if err := ctx.Err(); err != nil {
		return none, err
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return none, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if info.Size() > maxResourceBytes {
		return none, fmt.Errorf("resource too large: %s (%d bytes)", uri, info.Size())
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return none, fmt.Errorf("read resource %s: %w", uri, err)
	}

	contents := protocol.ResourceContents{URI: uri, MimeType: mimeFor(clean)}
	if text, ok := decodeText(data); ok {
		contents.Text = text
		if contents.MimeType == "" {
			contents.MimeType = "text/plain"
		}
	} else {
		contents.Blob = base64.StdEncoding.EncodeToString(data)
		if contents.MimeType == "" {
			contents.MimeType = "application/octet-stream"
		}
	}
	return contents, nil
}

func (s *Store) Templates() []protocol.ResourceTemplate {
	return []protocol.ResourceTemplate{
		{
			URITemplate: "file:///{path}",
			Name:        "Project file",
			Description: "File under the served root, addressed by relative path",
		},
	}
}

func mimeFor(rel string) string {
	ext := path.Ext(rel)
	if ext == "" {
		return ""
	}
	mimeType := mime.TypeByExtension(ext)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType
}
