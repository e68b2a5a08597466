// Package storage writes rendered reports to run directories.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joshsymonds/appquality/internal/report"
	"github.com/joshsymonds/appquality/pkg/logger"
	"github.com/joshsymonds/appquality/pkg/pathutil"
)

const runDirLayout = "20060102T150405Z"

// Storage handles saving report artifacts.
type Storage struct {
	logger  logger.Logger
	baseDir string
}

// Manifest describes one saved run.
type Manifest struct {
	GeneratedAt time.Time `json:"generatedAt"`
	RunID       string    `json:"runId"`
	Files       []string  `json:"files"`
	Groups      int       `json:"groups"`
	Rows        int       `json:"rows"`
}

// NewStorage creates a new storage instance.
func NewStorage(baseDir string) *Storage {
	return NewStorageWithLogger(baseDir, logger.GetGlobalLogger())
}

// NewStorageWithLogger creates a new storage instance with a custom logger.
func NewStorageWithLogger(baseDir string, log logger.Logger) *Storage {
	return &Storage{
		baseDir: baseDir,
		logger:  log,
	}
}

// RunDir returns the directory name for a run: its UTC timestamp and run id.
func RunDir(rep *report.Report) string {
	return rep.GeneratedAt.UTC().Format(runDirLayout) + "-" + rep.RunID
}

// SaveReport renders the report in every format into a fresh run directory
// and returns its path. A report without a run id gets one. Nothing is
// written when any format fails to render.
func (s *Storage) SaveReport(rep *report.Report, formats []report.Format) (string, error) {
	if len(formats) == 0 {
		return "", fmt.Errorf("no report formats selected")
	}
	if rep.RunID == "" {
		rep.RunID = uuid.NewString()
	}

	baseDir, err := pathutil.ValidateOutputDir(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("invalid output directory: %w", err)
	}

	rendered := make(map[string][]byte, len(formats))
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		name := "report." + f.Extension()
		if _, dup := rendered[name]; dup {
			return "", fmt.Errorf("formats share the file name %s", name)
		}
		var buf bytes.Buffer
		if err := f.Render(&buf, rep); err != nil {
			return "", fmt.Errorf("rendering %s report: %w", f.Name(), err)
		}
		rendered[name] = buf.Bytes()
		names = append(names, name)
	}

	runDir, err := pathutil.JoinAndValidate(baseDir, RunDir(rep))
	if err != nil {
		return "", fmt.Errorf("invalid run directory: %w", err)
	}
	if err := os.MkdirAll(runDir, 0750); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	for _, name := range names {
		path, err := pathutil.JoinAndValidate(runDir, name)
		if err != nil {
			return "", fmt.Errorf("invalid report path: %w", err)
		}
		if err := os.WriteFile(path, rendered[name], 0600); err != nil {
			return "", fmt.Errorf("writing %s: %w", name, err)
		}
		s.logger.Debug("Saved report file", "path", path)
	}

	manifest := Manifest{
		GeneratedAt: rep.GeneratedAt,
		RunID:       rep.RunID,
		Files:       names,
		Groups:      len(rep.Groups),
		Rows:        len(rep.Rows),
	}
	manifestPath, err := pathutil.JoinAndValidate(runDir, "run.json")
	if err != nil {
		return "", fmt.Errorf("invalid manifest path: %w", err)
	}
	if err := s.saveJSON(manifestPath, manifest); err != nil {
		return "", fmt.Errorf("saving manifest: %w", err)
	}

	s.logger.Info("Saved report", "dir", runDir, "run_id", rep.RunID, "files", len(names))
	return runDir, nil
}

func (s *Storage) saveJSON(path string, data any) (err error) {
	// Path should already be validated by caller
	file, err := os.Create(path) // #nosec G304 - path is validated by caller
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
