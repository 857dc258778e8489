package statetree

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thiagokokada/statetree/internal/git"
	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
	"github.com/thiagokokada/statetree/internal/manifest"
)

type ScanOptions struct {
	// Manifest is the manifest path relative to the repository root.
	Manifest string
	Logger   *slog.Logger
}

// Scanner walks every branch of a root repository and collects the states
// listed in each branch's manifest.
type Scanner struct {
	git      *git.Service
	manifest string
	logger   *slog.Logger
}

func NewScanner(svc *git.Service, opts ScanOptions) *Scanner {
	path := opts.Manifest
	if path == "" {
		path = manifest.DefaultFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{git: svc, manifest: filepath.FromSlash(path), logger: logger}
}

// Scan clones rootURL once and checks out each remote branch in turn.
// Branches without a manifest are skipped; any undecodable manifest or
// invalid entry aborts the whole scan and no tree is returned.
func (s *Scanner) Scan(ctx context.Context, rootURL string) (*Tree, error) {
	tree := newTree(rootURL)
	err := s.git.WithWorkingCopy(ctx, rootURL, func(wc gitbackend.WorkingCopy) error {
		branches, err := wc.Branches(ctx)
		if err != nil {
			return err
		}
		for branch := range branches {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wc.Checkout(ctx, branch); err != nil {
				return err
			}
			env, ok, err := s.loadEnvironment(wc.Path(), branch)
			if err != nil {
				return err
			}
			if !ok {
				s.logger.Debug("branch has no manifest", slog.String("branch", branch))
				continue
			}
			s.logger.Debug("scanned branch",
				slog.String("branch", branch),
				slog.Int("states", len(env.States)),
			)
			tree.add(env)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (s *Scanner) loadEnvironment(root, branch string) (*Environment, bool, error) {
	data, err := os.ReadFile(filepath.Join(root, s.manifest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("statetree: branch %s: read manifest: %w", branch, err)
	}
	entries, err := manifest.Decode(data)
	if err != nil {
		return nil, false, &ManifestParseError{Branch: branch, Err: err}
	}
	env := &Environment{Name: branch, States: make([]manifest.State, 0, len(entries))}
	for i, entry := range entries {
		state, err := manifest.ParseEntry(entry)
		if err != nil {
			return nil, false, &EntryError{Branch: branch, Index: i + 1, Err: err}
		}
		env.States = append(env.States, state)
	}
	return env, true, nil
}
