package git

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
)

// DefaultMaxWorkingCopies caps how many working copies may exist at once.
const DefaultMaxWorkingCopies = 8

type Options struct {
	MaxWorkingCopies int
	Logger           *slog.Logger
}

// Service hands out working copies of remote repositories, scoped to a
// callback, and bounds how many are on disk at the same time.
type Service struct {
	backend gitbackend.Backend
	copies  *semaphore.Weighted
	logger  *slog.Logger
}

func NewWithBackend(backend gitbackend.Backend, opts Options) *Service {
	limit := opts.MaxWorkingCopies
	if limit <= 0 {
		limit = DefaultMaxWorkingCopies
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{backend: backend, copies: semaphore.NewWeighted(int64(limit)), logger: logger}
}

// WithWorkingCopy opens a working copy of url, runs fn against it and
// deletes it afterwards, whether fn returns, fails or panics.
func (s *Service) WithWorkingCopy(ctx context.Context, url string, fn func(gitbackend.WorkingCopy) error) (err error) {
	if s.backend == nil {
		return fmt.Errorf("git backend not set")
	}
	if err := s.copies.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.copies.Release(1)

	wc, err := s.backend.Open(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil {
			s.logger.Warn("release working copy", slog.String("url", url), slog.Any("error", cerr))
			if err == nil {
				err = fmt.Errorf("release working copy of %s: %w", url, cerr)
			}
		}
	}()
	return fn(wc)
}

// Verify confirms that url contains the named reference, using a working
// copy of its own.
func (s *Service) Verify(ctx context.Context, url string, kind gitbackend.RefKind, name string) error {
	return s.WithWorkingCopy(ctx, url, func(wc gitbackend.WorkingCopy) error {
		return VerifyRef(ctx, wc, kind, name)
	})
}

// VerifyRef dispatches to the working copy check matching kind.
func VerifyRef(ctx context.Context, wc gitbackend.WorkingCopy, kind gitbackend.RefKind, name string) error {
	switch kind {
	case gitbackend.RefKindBranch:
		return wc.VerifyBranch(ctx, name)
	case gitbackend.RefKindCommit:
		return wc.VerifyCommit(ctx, name)
	case gitbackend.RefKindTag:
		return wc.VerifyTag(ctx, name)
	default:
		return fmt.Errorf("unknown reference kind %d", kind)
	}
}
