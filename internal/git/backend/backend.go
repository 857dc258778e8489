package backend

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"
)

// Backend materializes ephemeral, read-only working copies of remote
// repositories.
//
// The default implementation shells out to the git executable; Native uses
// go-git so hosts without git can still resolve a tree.
type Backend interface {
	Name() string
	Open(ctx context.Context, url string) (WorkingCopy, error)
}

// WorkingCopy is a shallow clone with every remote branch fetched. It is
// owned by whoever opened it and must be closed, which deletes it from disk.
type WorkingCopy interface {
	RemoteURL() string
	Path() string

	// Branches lists remote branch names. The listing is taken when called
	// and parsed lazily while the sequence is consumed.
	Branches(ctx context.Context) (iter.Seq[string], error)
	Checkout(ctx context.Context, branch string) error

	VerifyBranch(ctx context.Context, name string) error
	VerifyTag(ctx context.Context, name string) error
	VerifyCommit(ctx context.Context, name string) error

	Close() error
}

const (
	KindCLI    = "cli"
	KindNative = "native"

	tempPrefix = "statetree_repo_"
	cloneDir   = "git"
	remoteName = "origin"
)

type Options struct {
	// Timeout bounds every single git invocation; zero disables it.
	Timeout time.Duration
	// TempDir is the parent of working copy directories; empty uses os.TempDir.
	TempDir string
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.Timeout)
}

// New returns the backend registered under kind.
func New(kind string, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindCLI:
		return NewCLI(opts), nil
	case KindNative:
		return NewNative(opts), nil
	default:
		return nil, fmt.Errorf("unknown git backend %q (want %s or %s)", kind, KindCLI, KindNative)
	}
}
