package gitws

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubWorkspace returns a Workspace whose git invocations are served by fn
// instead of a real subprocess.
func stubWorkspace(fn runFunc) *Workspace {
	w := NewWorkspace("/repo", 2)
	w.run = fn
	return w
}

func TestCurrentBranchTrimsOutput(t *testing.T) {
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		if got := strings.Join(args, " "); got != "branch --show-current" {
			t.Errorf("unexpected args: %s", got)
		}
		return "feature/login\n", nil
	})

	branch, err := w.CurrentBranch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if branch != "feature/login" {
		t.Errorf("expected trimmed branch, got %q", branch)
	}
}

func TestMainBranchParsesRemoteHead(t *testing.T) {
	out := `* remote origin
  Fetch URL: git@github.com:octocat/widgets.git
  HEAD branch: develop
  Remote branches:
    develop tracked
`
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		return out, nil
	})

	if got := w.MainBranch(context.Background()); got != "develop" {
		t.Errorf("expected develop, got %q", got)
	}
}

func TestMainBranchFallsBackOnError(t *testing.T) {
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		return "", errors.New("no remote")
	})

	if got := w.MainBranch(context.Background()); got != DefaultMainBranch {
		t.Errorf("expected fallback %q, got %q", DefaultMainBranch, got)
	}
}

func TestMainBranchFallsBackWithoutHeadLine(t *testing.T) {
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		return "* remote origin\n  Fetch URL: git@github.com:octocat/widgets.git\n", nil
	})

	if got := w.MainBranch(context.Background()); got != DefaultMainBranch {
		t.Errorf("expected fallback %q, got %q", DefaultMainBranch, got)
	}
}

func TestStatusFiltersBlankLines(t *testing.T) {
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		return " M main.go\n?? notes.txt\n\n", nil
	})

	lines, err := w.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 status lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != " M main.go" || lines[1] != "?? notes.txt" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestStatusCleanTree(t *testing.T) {
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		return "", nil
	})

	lines, err := w.Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected clean status, got %v", lines)
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		t.Fatal("run must not be reached when all slots are held")
		return "", nil
	})

	// Occupy every subprocess slot so acquisition has to wait.
	for i := 0; i < cap(w.slots); i++ {
		w.slots <- struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Run(ctx, "status"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCommitAllStagesThenCommits(t *testing.T) {
	var commands []string
	w := stubWorkspace(func(ctx context.Context, dir string, args ...string) (string, error) {
		commands = append(commands, strings.Join(args, " "))
		return "", nil
	})

	if err := w.CommitAll(context.Background(), "fix parser"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"add -A", "commit -m fix parser"}
	if len(commands) != len(want) {
		t.Fatalf("expected %d commands, got %v", len(want), commands)
	}
	for i := range want {
		if commands[i] != want[i] {
			t.Errorf("command %d: expected %q, got %q", i, want[i], commands[i])
		}
	}
}

func TestSanitizeBranch(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"feature/login", "feature/login"},
		{"feature/login; rm -rf /", "feature/loginrm-rf/"},
		{"release-1.2.3", "release-1.2.3"},
		{"..hidden..", "hidden"},
		{"has spaces", "hasspaces"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeBranch(tc.in); got != tc.want {
			t.Errorf("SanitizeBranch(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
