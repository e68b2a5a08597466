package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
	"github.com/joshsymonds/appquality/pkg/pathutil"
)

const defaultGlob = "**/*.json"

// FileSource answers queries from exported query results on disk. Every file
// matching the glob under the directory is merged into one snapshot, read
// once on first use.
type FileSource struct {
	logger   logger.Logger
	snapshot *snapshot
	dir      string
	glob     string
	mu       sync.Mutex
}

// NewFileSource creates a source over the JSON files in dir matching glob.
func NewFileSource(dir, glob string, log logger.Logger) *FileSource {
	if glob == "" {
		glob = defaultGlob
	}
	return &FileSource{logger: log, dir: dir, glob: glob}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Query implements Source.
func (s *FileSource) Query(ctx context.Context, q Query) (*models.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, newFetchError(s.Name(), KindContext, err)
	}

	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	p, err := snap.answer(q)
	if err != nil {
		return nil, newFetchError(s.Name(), KindQuery, err)
	}
	return p, nil
}

func (s *FileSource) load() (*snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil {
		return s.snapshot, nil
	}

	dir, err := pathutil.ValidateDir(s.dir)
	if err != nil {
		return nil, newFetchError(s.Name(), KindConfig, err)
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, s.glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, newFetchError(s.Name(), KindConfig, fmt.Errorf("matching %q: %w", s.glob, err))
	}
	if len(matches) == 0 {
		return nil, newFetchError(s.Name(), KindConfig, fmt.Errorf("no snapshot files match %q in %s", s.glob, dir))
	}
	sort.Strings(matches)

	snap := &snapshot{}
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, newFetchError(s.Name(), KindTransport, err)
		}
		payload, gqlErrs, err := decodeResponse(data)
		if err != nil {
			return nil, newFetchError(s.Name(), KindDecode, fmt.Errorf("%s: %w", name, err))
		}
		if len(gqlErrs) > 0 {
			return nil, newFetchError(s.Name(), KindQuery, fmt.Errorf("%s: %w", name, queryErrors(gqlErrs)))
		}
		snap.add(payload)
	}

	s.logger.Debug("Loaded catalog snapshot", "source", s.Name(), "dir", dir, "files", snap.files)
	s.snapshot = snap
	return snap, nil
}
