package backend

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"
)

var remoteBranchRE = regexp.MustCompile(`^\s*remotes/` + remoteName + `/(\S+)$`)

// CLICopy is a working copy managed through the git executable.
type CLICopy struct {
	cli    *CLI
	url    string
	tmpdir string
	path   string

	closeOnce sync.Once
	closeErr  error
}

func (w *CLICopy) RemoteURL() string { return w.url }

func (w *CLICopy) Path() string { return w.path }

// Run executes a git subcommand inside the working copy and returns its
// combined output.
func (w *CLICopy) Run(ctx context.Context, args ...string) (string, error) {
	return w.cli.runGitCommand(ctx, w.url, w.path, args...)
}

func (w *CLICopy) Branches(ctx context.Context) (iter.Seq[string], error) {
	out, err := w.Run(ctx, "branch", "--list", "--all")
	if err != nil {
		return nil, err
	}
	return parseBranchList(out), nil
}

// parseBranchList yields remote branch names from `git branch --list --all`.
// Local branches, the symbolic origin/HEAD and detached markers are skipped.
func parseBranchList(out string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(out) {
			m := remoteBranchRE.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
			if m == nil {
				continue
			}
			if !yield(m[1]) {
				return
			}
		}
	}
}

func (w *CLICopy) Checkout(ctx context.Context, branch string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return fmt.Errorf("branch not specified")
	}
	_, err := w.Run(ctx, "checkout", "--quiet", "--detach", remoteName+"/"+branch)
	return err
}

func (w *CLICopy) VerifyBranch(ctx context.Context, name string) error {
	// Names are never passed to git: a pattern argument would be globbed
	// and could be read as an option.
	out, err := w.Run(ctx, "branch", "--list", "--all")
	if err != nil {
		return err
	}
	if !slices.Contains(slices.Collect(parseBranchList(out)), name) {
		return &ReferenceNotFoundError{Kind: RefKindBranch, Name: name, URL: w.url}
	}
	w.cli.opts.logger().Debug("verified branch", slog.String("branch", name), slog.String("url", w.url))
	return nil
}

func (w *CLICopy) VerifyTag(ctx context.Context, name string) error {
	out, err := w.Run(ctx, "tag", "--list")
	if err != nil {
		return err
	}
	if !hasLine(out, name) {
		return &ReferenceNotFoundError{Kind: RefKindTag, Name: name, URL: w.url}
	}
	w.cli.opts.logger().Debug("verified tag", slog.String("tag", name), slog.String("url", w.url))
	return nil
}

func (w *CLICopy) VerifyCommit(ctx context.Context, name string) error {
	notFound := &ReferenceNotFoundError{Kind: RefKindCommit, Name: name, URL: w.url}
	out, err := w.Run(ctx, "cat-file", "-t", name)
	if err != nil {
		if isMissingObject(err) {
			return notFound
		}
		return err
	}
	if strings.TrimSpace(out) != "commit" {
		return notFound
	}
	w.cli.opts.logger().Debug("verified commit", slog.String("commit", name), slog.String("url", w.url))
	return nil
}

// hasLine reports whether out has a line equal to want.
func hasLine(out, want string) bool {
	for line := range strings.Lines(out) {
		if strings.TrimRight(line, "\r\n") == want {
			return true
		}
	}
	return false
}

// isMissingObject reports whether cat-file failed only because the object
// lookup came back empty.
func isMissingObject(err error) bool {
	var accessErr *AccessError
	if !errors.As(err, &accessErr) || accessErr.ExitCode != 128 {
		return false
	}
	return strings.Contains(accessErr.Output, "could not get object info") ||
		strings.Contains(accessErr.Output, "Not a valid object name")
}

// Close deletes the working copy. It is safe to call more than once.
func (w *CLICopy) Close() error {
	w.closeOnce.Do(func() {
		if w.tmpdir == "" {
			return
		}
		w.cli.opts.logger().Debug("cleanup temporary directory", slog.String("path", w.tmpdir))
		w.closeErr = os.RemoveAll(w.tmpdir)
	})
	return w.closeErr
}
