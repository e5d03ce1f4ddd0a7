// Package workflow drives the push / scan-tasks / merge command sequences
// over the local working tree and the GitHub API. Commands are short
// deterministic step sequences: branch state is queried fresh at the start
// of every command, failures are wrapped and surfaced once, and partial
// progress is never rolled back.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/alucardeht/ghflow-mcp/internal/github"
	"github.com/alucardeht/ghflow-mcp/internal/gitws"
	"github.com/alucardeht/ghflow-mcp/internal/logger"
	"github.com/alucardeht/ghflow-mcp/pkg/protocol"
)

var log = logger.ForComponent("workflow")

// Command is the closed set of workflow invocations. Optional fields left
// at their zero value are resolved from the environment before any
// mutating step runs.
type Command interface {
	isCommand()
}

type PushCommand struct {
	Branch         string
	Message        string
	ReadyForReview bool
}

type ScanTasksCommand struct {
	ProjectNumber string
	FilterType    string
	Status        string
}

type MergeCommand struct {
	Branch string
	// DeleteBranch defaults to true when the command arrives with the
	// field unset; the dispatcher resolves that before building the
	// command.
	DeleteBranch      bool
	CleanupWorkFolder bool
}

func (PushCommand) isCommand()      {}
func (ScanTasksCommand) isCommand() {}
func (MergeCommand) isCommand()     {}

// Result statuses. Warning means the command stopped before mutating and
// wants explicit confirmation.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Error is a structured workflow failure carrying a protocol error code
// and enough context to diagnose without server logs.
type Error struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(format string, args ...interface{}) *Error {
	return &Error{Code: protocol.WorkflowError, Message: fmt.Sprintf(format, args...)}
}

func authError(message string) *Error {
	return &Error{Code: protocol.AuthenticationError, Message: message}
}

// wrapStep converts a failed git/GitHub sub-operation into a structured
// error naming the command stage and branch.
func wrapStep(stage, branch string, err error) *Error {
	code := protocol.WorkflowError
	if _, ok := err.(*github.APIError); ok {
		code = protocol.GitHubAPIError
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("%s failed: %v", stage, err),
		Data: map[string]interface{}{
			"stage":  stage,
			"branch": branch,
		},
	}
}

// Git is the workspace surface the engine sequences. Satisfied by
// *gitws.Workspace.
type Git interface {
	CurrentBranch(ctx context.Context) (string, error)
	MainBranch(ctx context.Context) string
	Status(ctx context.Context) ([]string, error)
	CommitAll(ctx context.Context, message string) error
	Push(ctx context.Context, branch string) error
	Pull(ctx context.Context, branch string) error
	Checkout(ctx context.Context, branch string) error
	DeleteBranch(ctx context.Context, branch string) error
	RemoteURL(ctx context.Context) (string, error)
}

// Hub is the GitHub service boundary the engine calls. Satisfied by
// *github.Client.
type Hub interface {
	PullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	PullRequestForBranch(ctx context.Context, owner, repo, branch string) (*github.PullRequest, error)
	MarkReadyForReview(ctx context.Context, pr *github.PullRequest) error
	MergePullRequest(ctx context.Context, owner, repo string, number int) (*github.MergeResult, error)
	ProjectItems(ctx context.Context, owner string, number int) ([]github.ProjectItem, error)
}

type Engine struct {
	git      Git
	hub      Hub
	projects *ProjectLocator
	cleaner  *Cleaner

	// owner overrides remote-derived repository owner when set; project
	// boards are always looked up under it.
	owner string
}

// NewEngine wires a workflow engine. hub may be nil when no GitHub
// credential is configured; commands that need it fail with an
// authentication error before mutating anything.
func NewEngine(git Git, hub Hub, projects *ProjectLocator, cleaner *Cleaner, owner string) *Engine {
	return &Engine{
		git:      git,
		hub:      hub,
		projects: projects,
		cleaner:  cleaner,
		owner:    owner,
	}
}

// Execute runs one workflow command to completion.
func (e *Engine) Execute(ctx context.Context, cmd Command) (map[string]interface{}, error) {
	switch c := cmd.(type) {
	case PushCommand:
		return e.executePush(ctx, c)
	case ScanTasksCommand:
		return e.executeScanTasks(ctx, c)
	case MergeCommand:
		return e.executeMerge(ctx, c)
	default:
		return nil, &Error{Code: protocol.InternalError, Message: fmt.Sprintf("unknown command type %T", cmd)}
	}
}

// resolveBranch picks the explicit branch or falls back to the checked-out
// one, sanitized before it reaches any subprocess argument.
func (e *Engine) resolveBranch(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		branch := gitws.SanitizeBranch(explicit)
		if branch == "" {
			return "", validationError("invalid branch name %q", explicit)
		}
		return branch, nil
	}
	branch, err := e.git.CurrentBranch(ctx)
	if err != nil {
		return "", wrapStep("resolve branch", "", err)
	}
	if branch == "" {
		return "", validationError("could not determine current branch (detached HEAD?)")
	}
	return branch, nil
}

// resolveRepo derives owner/repo for API calls from the configured owner
// and the origin remote.
func (e *Engine) resolveRepo(ctx context.Context) (owner, repo string, err error) {
	url, err := e.git.RemoteURL(ctx)
	if err != nil {
		return "", "", wrapStep("resolve repository", "", err)
	}
	owner, repo, err = gitws.ParseRemote(url)
	if err != nil {
		return "", "", validationError("cannot determine repository: %v", err)
	}
	if e.owner != "" {
		owner = e.owner
	}
	return owner, repo, nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
