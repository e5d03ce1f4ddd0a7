// Package gitws wraps the git CLI for the single working tree the server
// operates on. Every operation runs the git executable synchronously and
// maps a non-zero exit onto an error carrying the captured stderr. A
// bounded slot pool caps the number of concurrent git subprocesses so
// blocking process calls cannot pile up under concurrent requests.
package gitws

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alucardeht/ghflow-mcp/internal/logger"
)

var log = logger.ForComponent("gitws")

// DefaultMainBranch is the fallback used when the remote HEAD pointer
// cannot be inspected.
const DefaultMainBranch = "main"

type runFunc func(ctx context.Context, dir string, args ...string) (string, error)

// Workspace targets a git working tree at a fixed directory. All commands
// run as "git -C <dir> ...".
type Workspace struct {
	dir   string
	slots chan struct{}
	run   runFunc
}

// NewWorkspace returns a Workspace for dir allowing at most slots
// concurrent git subprocesses.
func NewWorkspace(dir string, slots int) *Workspace {
	if slots < 1 {
		slots = 1
	}
	return &Workspace{
		dir:   dir,
		slots: make(chan struct{}, slots),
		run:   runGit,
	}
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Run executes a git command in the workspace directory and returns
// stdout. Acquisition of a subprocess slot honors context cancellation.
func (w *Workspace) Run(ctx context.Context, args ...string) (string, error) {
	select {
	case w.slots <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-w.slots }()

	return w.run(ctx, w.dir, args...)
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w (stderr: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// CurrentBranch returns the checked-out branch name.
func (w *Workspace) CurrentBranch(ctx context.Context) (string, error) {
	out, err := w.Run(ctx, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// MainBranch inspects the remote HEAD pointer to find the default branch.
// Any failure falls back to DefaultMainBranch rather than propagating.
func (w *Workspace) MainBranch(ctx context.Context) string {
	out, err := w.Run(ctx, "remote", "show", "origin")
	if err != nil {
		log.Debug("remote inspection failed, assuming default branch", "error", err)
		return DefaultMainBranch
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "HEAD branch:") {
			if _, branch, ok := strings.Cut(line, ":"); ok {
				if name := strings.TrimSpace(branch); name != "" {
					return name
				}
			}
		}
	}
	return DefaultMainBranch
}

// Status returns the porcelain status lines. An empty slice means the
// working tree is clean.
func (w *Workspace) Status(ctx context.Context) ([]string, error) {
	out, err := w.Run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// CommitAll stages everything and commits under the given message.
func (w *Workspace) CommitAll(ctx context.Context, message string) error {
	if _, err := w.Run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	if _, err := w.Run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (w *Workspace) Push(ctx context.Context, branch string) error {
	if _, err := w.Run(ctx, "push", "origin", branch); err != nil {
		return fmt.Errorf("push %s: %w", branch, err)
	}
	return nil
}

func (w *Workspace) Pull(ctx context.Context, branch string) error {
	if _, err := w.Run(ctx, "pull", "origin", branch); err != nil {
		return fmt.Errorf("pull %s: %w", branch, err)
	}
	return nil
}

func (w *Workspace) Checkout(ctx context.Context, branch string) error {
	if _, err := w.Run(ctx, "checkout", branch); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// DeleteBranch removes a local branch. Callers treat failure as
// best-effort; the error carries git's stderr for the warning log.
func (w *Workspace) DeleteBranch(ctx context.Context, branch string) error {
	if _, err := w.Run(ctx, "branch", "-d", branch); err != nil {
		return fmt.Errorf("delete branch %s: %w", branch, err)
	}
	return nil
}

// RemoteURL returns the fetch URL of origin.
func (w *Workspace) RemoteURL(ctx context.Context) (string, error) {
	out, err := w.Run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("remote url: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// SanitizeBranch strips characters that have no business in a branch name
// before it reaches a subprocess argument.
func SanitizeBranch(branch string) string {
	var b strings.Builder
	for _, r := range branch {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '/', r == '.':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}
