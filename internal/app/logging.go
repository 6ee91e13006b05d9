package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"quest-ui/internal/logging"
)

// maxArchivedLogs bounds data/logs; older archives are removed on start.
const maxArchivedLogs = 20

func configureLogging(logPath string) (*os.File, error) {
	started := time.Now().UTC()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := rotateExistingLog(logPath, started); err != nil {
		return nil, err
	}
	if err := pruneArchives(logPath, maxArchivedLogs); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.SetDefaultWriter(io.MultiWriter(os.Stdout, file))
	return file, nil
}

// rotateExistingLog moves a non-empty log from a previous run into logs/ as
// <name>-<timestamp>.log, adding -1, -2 ... when that name is taken.
func rotateExistingLog(logPath string, started time.Time) error {
	info, err := os.Stat(logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	archiveDir := filepath.Join(filepath.Dir(logPath), "logs")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("create log archive dir: %w", err)
	}

	name := filepath.Base(logPath)
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".log"
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name)) + "-" + started.Format("2006-01-02_15-04-05")

	destPath := filepath.Join(archiveDir, stem+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(destPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		destPath = filepath.Join(archiveDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
	if err := os.Rename(logPath, destPath); err != nil {
		return fmt.Errorf("archive log file: %w", err)
	}
	return nil
}

// pruneArchives keeps the newest keep archives of logPath and removes the rest.
// Names carry a second-resolution timestamp, so lexical order is age order.
func pruneArchives(logPath string, keep int) error {
	archiveDir := filepath.Join(filepath.Dir(logPath), "logs")
	entries, err := os.ReadDir(archiveDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read log archive dir: %w", err)
	}
	base := filepath.Base(logPath)
	prefix := strings.TrimSuffix(base, filepath.Ext(base)) + "-"
	var archives []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			archives = append(archives, e.Name())
		}
	}
	if len(archives) <= keep {
		return nil
	}
	sort.Strings(archives)
	for _, name := range archives[:len(archives)-keep] {
		if err := os.Remove(filepath.Join(archiveDir, name)); err != nil {
			return fmt.Errorf("prune log archive: %w", err)
		}
	}
	return nil
}
