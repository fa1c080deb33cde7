// Package archive moves a finished output directory aside so the next
// runs start with an empty one.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var now = time.Now

// ArchiveOutput moves outputDir to <parent>/archive/<name>-<timestamp> and
// returns the new path
func ArchiveOutput(outputDir string) (string, error) {
	info, err := os.Stat(outputDir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("output directory does not exist: %s", outputDir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", outputDir)
	}

	clean := filepath.Clean(outputDir)
	archiveDir := filepath.Join(filepath.Dir(clean), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(clean)
	t := now()
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, t.Format("20060102-150405")))

	// Same second: add microseconds
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, t.Format("20060102-150405.000000")))
	}

	if err := os.Rename(clean, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive output directory: %w", err)
	}
	return archivePath, nil
}
