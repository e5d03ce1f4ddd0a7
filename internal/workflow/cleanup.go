package workflow

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Cleaner removes scratch files under the repository root matching the
// configured glob patterns. All removal is best-effort: failures are
// logged and reported as an incomplete cleanup, never as a command
// failure.
type Cleaner struct {
	root     string
	patterns []string
}

func NewCleaner(root string, patterns []string) *Cleaner {
	return &Cleaner{root: root, patterns: patterns}
}

// Clean removes everything matching the patterns and reports whether the
// cleanup ran to completion.
func (c *Cleaner) Clean() bool {
	complete := true
	for _, pattern := range c.patterns {
		matches, err := doublestar.Glob(os.DirFS(c.root), pattern)
		if err != nil {
			log.Warn("bad work folder pattern", "pattern", pattern, "error", err)
			complete = false
			continue
		}
		for _, match := range matches {
			path := filepath.Join(c.root, match)
			if err := os.RemoveAll(path); err != nil {
				log.Warn("work folder cleanup failed", "path", path, "error", err)
				complete = false
			}
		}
	}
	return complete
}
