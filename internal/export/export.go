// Package export writes a cohort to a plain-text file an operator can hand
// to a change ticket or feed to another tool.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/rileyhilliard/patchctl/internal/ui"
)

// TimestampLayout is the yyyymmdd-hhmmss suffix on export file names.
const TimestampLayout = "20060102-150405"

// FileName returns patchctl-<cohort>-<yyyymmdd-hhmmss>.txt for now in local time.
func FileName(cohort string, now time.Time) string {
	return fmt.Sprintf("patchctl-%s-%s.txt", cohort, now.Format(TimestampLayout))
}

// Render returns the table written by Write.
func Render(ids []resource.ID) string {
	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{id.Subscription, id.ResourceGroup, id.Name}
	}
	return ui.RenderPlainTable([]ui.TableColumn{
		{Title: "SUBSCRIPTION"},
		{Title: "RESOURCE GROUP"},
		{Title: "NAME"},
	}, rows)
}

// Write renders ids into dir and returns the file path. The directory is
// created if needed. An empty cohort still produces a file with the header.
func Write(dir, cohort string, ids []resource.ID, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrExport,
			"Cannot create export directory "+dir,
			"Check permissions or set export.dir in your config")
	}

	path := filepath.Join(dir, FileName(cohort, now))
	if err := os.WriteFile(path, []byte(Render(ids)), 0o644); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrExport,
			"Cannot write "+path,
			"Check permissions or set export.dir in your config")
	}
	return path, nil
}
