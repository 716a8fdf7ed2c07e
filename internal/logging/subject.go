package logging

import (
	"path/filepath"
	"strings"
)

// FormatSubject builds the project › target › task subject used in console
// output. Projects are shown by file name only.
func FormatSubject(project, target, task string) string {
	project = strings.TrimSpace(project)
	target = strings.TrimSpace(target)
	task = strings.TrimSpace(task)
	parts := make([]string, 0, 3)
	if project != "" {
		parts = append(parts, filepath.Base(project))
	}
	if target != "" {
		parts = append(parts, target)
	}
	if task != "" {
		parts = append(parts, task)
	}
	return strings.Join(parts, " › ")
}
