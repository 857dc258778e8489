package statetree

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/statetree/internal/git"
)

// DefaultJobs is how many states are verified concurrently.
const DefaultJobs = 4

type VerifyOptions struct {
	Jobs   int
	Logger *slog.Logger
}

// Verifier confirms that every pinned state's reference exists in the
// state's own repository.
type Verifier struct {
	git    *git.Service
	jobs   int
	logger *slog.Logger
}

func NewVerifier(svc *git.Service, opts VerifyOptions) *Verifier {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = DefaultJobs
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Verifier{git: svc, jobs: jobs, logger: logger}
}

// VerifyEnvironment checks every pinned state of env. States without a pin
// are not touched. Exact repeats are checked once. All failures are
// returned, joined in environment order regardless of completion order.
func (v *Verifier) VerifyEnvironment(ctx context.Context, env *Environment) error {
	errs := make([]error, len(env.States))
	seen := make(map[string]struct{}, len(env.States))
	var g errgroup.Group
	g.SetLimit(v.jobs)
	for i, state := range env.States {
		if state.Ref == nil {
			continue
		}
		key := state.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		g.Go(func() error {
			err := v.git.Verify(ctx, state.URL, state.Ref.Kind, state.Ref.Name)
			if err != nil {
				v.logger.Debug("verification failed",
					slog.String("environment", env.Name),
					slog.String("state", state.Name),
					slog.Any("error", err),
				)
				errs[i] = &VerificationError{State: state.Name, URL: state.URL, Err: err}
				return nil
			}
			v.logger.Debug("verified state",
				slog.String("environment", env.Name),
				slog.String("state", state.String()),
			)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
