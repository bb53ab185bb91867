package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured is returned when catalog credentials are absent.
var ErrNotConfigured = errors.New("catalog credentials not configured")

// ErrInvalidRef rejects refs that are not owner/slug shaped.
var ErrInvalidRef = errors.New("invalid dataset ref")

// FailureKind classifies why the external catalog could not answer.
type FailureKind int

const (
	// Unavailable covers missing credentials, a missing binary, or a failed run.
	Unavailable FailureKind = iota
	// Malformed means the catalog answered but the output could not be parsed.
	Malformed
)

func (k FailureKind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// UpstreamFailure is the error type returned by every Client operation.
type UpstreamFailure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (e *UpstreamFailure) Error() string {
	return fmt.Sprintf("catalog %s: upstream %s: %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamFailure) Unwrap() error { return e.Err }

// Runner executes the catalog CLI. Implementations must not go through a shell.
type Runner interface {
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Query describes a catalog search. Zero fields take the defaults applied by Normalize.
type Query struct {
	Text     string `json:"query"`
	Sort     string `json:"sort"`
	Page     int    `json:"page"`
	PageSize int    `json:"size"`
}

// Normalize fills defaults: sort "hottest", page 1, page size 20.
func (q Query) Normalize() Query {
	q.Text = strings.TrimSpace(q.Text)
	if q.Sort == "" {
		q.Sort = defaultSortBy
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	return q
}

// SortOrders accepted by the catalog CLI.
var SortOrders = []string{"hottest", "votes", "updated", "active", "published"}

// ValidSort reports whether s is a known sort order.
func ValidSort(s string) bool {
	for _, o := range SortOrders {
		if o == s {
			return true
		}
	}
	return false
}

var refPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*/[A-Za-z0-9_.-]+$`)

// ValidRef reports whether ref has the owner/slug shape.
func ValidRef(ref string) bool { return refPattern.MatchString(ref) }

// Client talks to the external catalog through its CLI.
type Client struct {
	bin      string
	username string
	key      string
	runner   Runner
	now      func() time.Time
}

// NewClient builds a Client. A nil runner defaults to ExecRunner.
func NewClient(bin, username, key string, runner Runner) *Client {
	if bin == "" {
		bin = "kaggle"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{bin: bin, username: username, key: key, runner: runner, now: time.Now}
}

// Configured reports whether both credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.username != "" && c.key != ""
}

func (c *Client) env() []string {
	return []string{"KAGGLE_USERNAME=" + c.username, "KAGGLE_KEY=" + c.key}
}

func (c *Client) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	if !c.Configured() {
		return nil, &UpstreamFailure{Kind: Unavailable, Op: op, Err: ErrNotConfigured}
	}
	out, err := c.runner.Run(ctx, c.env(), c.bin, args...)
	if err != nil {
		return nil, &UpstreamFailure{Kind: Unavailable, Op: op, Err: err}
	}
	return out, nil
}

// Search lists datasets matching q.
func (c *Client) Search(ctx context.Context, q Query) ([]Entry, error) {
	q = q.Normalize()
	args := []string{"datasets", "list"}
	if q.Text != "" {
		args = append(args, "--search", q.Text)
	}
	args = append(args,
		"--sort-by", q.Sort,
		"--page", strconv.Itoa(q.Page),
		"--page-size", strconv.Itoa(q.PageSize),
		"--csv",
	)
	out, err := c.run(ctx, "search", args...)
	if err != nil {
		return nil, err
	}
	entries, err := ParseListing(out, c.now().UTC())
	if err != nil {
		return nil, &UpstreamFailure{Kind: Malformed, Op: "search", Err: err}
	}
	return entries, nil
}

// Download fetches and unzips ref into dir.
func (c *Client) Download(ctx context.Context, ref, dir string) error {
	if !ValidRef(ref) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	_, err := c.run(ctx, "download", "datasets", "download", "-d", ref, "-p", dir, "--unzip")
	return err
}

// Show returns the CLI's raw description of ref.
func (c *Client) Show(ctx context.Context, ref string) (string, error) {
	if !ValidRef(ref) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	out, err := c.run(ctx, "show", "datasets", "show", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
