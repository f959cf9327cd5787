package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	dom "Vault/internal/domain"
	"Vault/internal/repo"
)

const (
	filePrefix = "backup_"
	fileExt    = ".json"
	// sortable and free of colons
	timestampLayout = "2006-01-02_15-04-05"
)

// Source yields the full record set to snapshot.
type Source interface {
	Find(ctx context.Context, f repo.Filter) ([]dom.Record, error)
}

// Writer snapshots the collection into backup_<timestamp>.json files.
type Writer struct {
	dir    string
	logger *log.Logger
	now    func() time.Time
}

func NewWriter(dir string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(os.Stderr, "[backup] ", log.LstdFlags)
	}
	return &Writer{dir: dir, logger: logger, now: time.Now}
}

// Dir is the directory backups are written to.
func (w *Writer) Dir() string { return w.dir }

// Create writes every record in src as an indented JSON array and returns the
// file path. Snapshots taken within the same second share a name; the later
// one wins.
func (w *Writer) Create(ctx context.Context, src Source) (string, error) {
	records, err := src.Find(ctx, repo.Filter{})
	if err != nil {
		return "", fmt.Errorf("backup: read records: %w", err)
	}
	if records == nil {
		records = []dom.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("backup: encode: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	name := FileName(w.now())
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("backup: write %s: %w", name, err)
	}
	w.logger.Printf("backup created: %s", name)
	return path, nil
}

// List returns the backup file names in dir, oldest first. A missing
// directory means no backups.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), fileExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Latest returns the newest backup file name, or "" when there is none.
func (w *Writer) Latest() (string, error) {
	names, err := w.List()
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[len(names)-1], nil
}

// FileName is the backup file name for a snapshot taken at t (UTC).
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(timestampLayout) + fileExt
}
