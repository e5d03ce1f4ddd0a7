package workflow

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// project-number markers recognized in the tracking document.
var projectMarkers = []string{"Project Number:", "GitHub Project:"}

// ProjectLocator resolves the GitHub project number for scan-tasks:
// explicit argument first, then a marker line in the tracking document,
// then the configured environment default. The tracking-document scan is
// cached and invalidated by filesystem events rather than re-read on
// every command.
type ProjectLocator struct {
	trackingPath string
	envDefault   string

	mu      sync.Mutex
	cached  int
	valid   bool
	watcher *fsnotify.Watcher
}

// NewProjectLocator builds a locator over trackingPath. envDefault may be
// empty. The file watch is best-effort: when it cannot be established the
// locator simply re-reads the document on every resolution.
func NewProjectLocator(trackingPath, envDefault string) *ProjectLocator {
	l := &ProjectLocator{
		trackingPath: trackingPath,
		envDefault:   envDefault,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debug("tracking file watch unavailable", "error", err)
		return l
	}
	if err := watcher.Add(trackingPath); err != nil {
		log.Debug("tracking file not watchable", "path", trackingPath, "error", err)
		watcher.Close()
		return l
	}

	l.watcher = watcher
	go l.watch()
	return l
}

func (l *ProjectLocator) watch() {
	for {
		select {
		case _, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			l.mu.Lock()
			l.valid = false
			l.mu.Unlock()
		case _, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (l *ProjectLocator) Close() {
	if l.watcher != nil {
		l.watcher.Close()
	}
}

// Locate resolves the project number. A failure to resolve through any
// source is a terminal validation error.
func (l *ProjectLocator) Locate(explicit string) (int, error) {
	if explicit != "" {
		number, err := strconv.Atoi(strings.TrimSpace(explicit))
		if err != nil || number <= 0 {
			return 0, validationError("invalid project number %q", explicit)
		}
		return number, nil
	}

	if number, ok := l.fromTrackingFile(); ok {
		return number, nil
	}

	if l.envDefault != "" {
		if number, err := strconv.Atoi(strings.TrimSpace(l.envDefault)); err == nil && number > 0 {
			return number, nil
		}
	}

	return 0, validationError(
		"no GitHub project number found: pass project_number or add a %q line to %s",
		projectMarkers[0], l.trackingPath)
}

func (l *ProjectLocator) fromTrackingFile() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.valid && l.watcher != nil {
		return l.cached, l.cached > 0
	}

	number := scanTrackingFile(l.trackingPath)
	l.cached = number
	l.valid = true
	return number, number > 0
}

// scanTrackingFile reads the document looking for a marker line carrying a
// number. The read tolerates UTF-8 and UTF-16 byte order marks, which
// editors on some platforms prepend silently.
func scanTrackingFile(path string) int {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(file, decoder))

	for scanner.Scan() {
		line := scanner.Text()
		for _, marker := range projectMarkers {
			if strings.Contains(line, marker) {
				if number := extractNumber(line); number > 0 {
					return number
				}
			}
		}
	}
	return 0
}

func extractNumber(line string) int {
	for _, word := range strings.Fields(line) {
		word = strings.Trim(word, "#.,()")
		if number, err := strconv.Atoi(word); err == nil && number > 0 {
			return number
		}
	}
	return 0
}
