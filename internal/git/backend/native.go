package backend

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Native opens working copies with go-git, without a git executable.
// go-git never prompts for credentials, so auth failures always surface as
// errors.
type Native struct {
	opts Options
}

func NewNative(opts Options) *Native {
	return &Native{opts: opts}
}

func (n *Native) Name() string { return KindNative }

func (n *Native) Open(ctx context.Context, url string) (WorkingCopy, error) {
	tmp, err := os.MkdirTemp(n.opts.TempDir, tempPrefix)
	if err != nil {
		return nil, fmt.Errorf("create working copy directory: %w", err)
	}
	path := filepath.Join(tmp, cloneDir)
	cloneCtx, cancel := n.opts.withTimeout(ctx)
	defer cancel()
	repo, err := gitlib.PlainCloneContext(cloneCtx, path, false, &gitlib.CloneOptions{
		URL:          url,
		RemoteName:   remoteName,
		Depth:        1,
		SingleBranch: false,
		Tags:         gitlib.TagFollowing,
	})
	if err != nil {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			n.opts.logger().Warn("cleanup failed clone", slog.String("path", tmp), slog.Any("error", rmErr))
		}
		return nil, nativeAccessError(url, "clone", err)
	}
	n.opts.logger().Debug("cloned repository", slog.String("url", url), slog.String("path", path))
	return &nativeCopy{opts: n.opts, url: url, tmpdir: tmp, path: path, repo: repo}, nil
}

func nativeAccessError(url, command string, err error) *AccessError {
	return &AccessError{
		URL:      url,
		Command:  "go-git " + command,
		ExitCode: -1,
		Output:   flattenOutput(err.Error()),
		Err:      err,
	}
}

type nativeCopy struct {
	opts   Options
	url    string
	tmpdir string
	path   string
	repo   *gitlib.Repository

	closeOnce sync.Once
	closeErr  error
}

func (w *nativeCopy) RemoteURL() string { return w.url }

func (w *nativeCopy) Path() string { return w.path }

// Branches mirrors the CLI listing: remote branches of origin, sorted by name,
// without the symbolic origin/HEAD.
func (w *nativeCopy) Branches(ctx context.Context) (iter.Seq[string], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refs, err := w.repo.References()
	if err != nil {
		return nil, nativeAccessError(w.url, "references", err)
	}
	defer refs.Close()
	var names []string
	prefix := remoteName + "/"
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || !ref.Name().IsRemote() {
			return nil
		}
		short := ref.Name().Short()
		if !strings.HasPrefix(short, prefix) || short == prefix+"HEAD" {
			return nil
		}
		names = append(names, strings.TrimPrefix(short, prefix))
		return nil
	})
	if err != nil {
		return nil, nativeAccessError(w.url, "references", err)
	}
	slices.Sort(names)
	return slices.Values(names), nil
}

// Checkout detaches the worktree at the tip of the remote branch.
func (w *nativeCopy) Checkout(ctx context.Context, branch string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	command := "checkout " + branch
	ref, err := w.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if err != nil {
		return nativeAccessError(w.url, command, err)
	}
	wt, err := w.repo.Worktree()
	if err != nil {
		return nativeAccessError(w.url, command, err)
	}
	if err := wt.Checkout(&gitlib.CheckoutOptions{Hash: ref.Hash(), Force: true}); err != nil {
		return nativeAccessError(w.url, command, err)
	}
	w.opts.logger().Debug("checked out branch", slog.String("branch", branch), slog.String("hash", ref.Hash().String()))
	return nil
}

func (w *nativeCopy) VerifyBranch(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := w.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return &ReferenceNotFoundError{Kind: RefKindBranch, Name: name, URL: w.url}
	}
	if err != nil {
		return nativeAccessError(w.url, "reference "+name, err)
	}
	w.opts.logger().Debug("verified branch", slog.String("branch", name), slog.String("url", w.url))
	return nil
}

func (w *nativeCopy) VerifyTag(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := w.repo.Tag(name)
	if errors.Is(err, gitlib.ErrTagNotFound) {
		return &ReferenceNotFoundError{Kind: RefKindTag, Name: name, URL: w.url}
	}
	if err != nil {
		return nativeAccessError(w.url, "tag "+name, err)
	}
	w.opts.logger().Debug("verified tag", slog.String("tag", name), slog.String("url", w.url))
	return nil
}

func (w *nativeCopy) VerifyCommit(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	notFound := &ReferenceNotFoundError{Kind: RefKindCommit, Name: name, URL: w.url}
	hash, err := w.repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		// Every resolution failure means the name does not denote an object here.
		return notFound
	}
	if _, err := w.repo.CommitObject(*hash); err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return notFound
		}
		return nativeAccessError(w.url, "commit "+name, err)
	}
	w.opts.logger().Debug("verified commit", slog.String("commit", name), slog.String("url", w.url))
	return nil
}

func (w *nativeCopy) Close() error {
	w.closeOnce.Do(func() {
		if w.tmpdir == "" {
			return
		}
		w.opts.logger().Debug("cleanup temporary directory", slog.String("path", w.tmpdir))
		w.closeErr = os.RemoveAll(w.tmpdir)
	})
	return w.closeErr
}
