package statetree

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/thiagokokada/statetree/internal/git"
	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
)

// fakeRepo is an in-memory remote: branch contents plus known tags/commits.
type fakeRepo struct {
	branches []string
	files    map[string]map[string]string
	tags     []string
	commits  []string
	openErr  error
	// checkoutErr makes Checkout of the given branch fail.
	checkoutErr map[string]error
}

type fakeBackend struct {
	t     *testing.T
	repos map[string]*fakeRepo

	mu     sync.Mutex
	opened []string
	dirs   []string
}

func newFakeBackend(t *testing.T, repos map[string]*fakeRepo) *fakeBackend {
	return &fakeBackend{t: t, repos: repos}
}

func (f *fakeBackend) service() *git.Service {
	return git.NewWithBackend(f, git.Options{})
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Open(_ context.Context, url string) (gitbackend.WorkingCopy, error) {
	f.mu.Lock()
	f.opened = append(f.opened, url)
	f.mu.Unlock()
	repo, ok := f.repos[url]
	if !ok {
		return nil, &gitbackend.AccessError{URL: url, Command: "git clone " + url, ExitCode: 128, Output: "repository not found"}
	}
	if repo.openErr != nil {
		return nil, repo.openErr
	}
	dir, err := os.MkdirTemp(f.t.TempDir(), "copy")
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.dirs = append(f.dirs, dir)
	f.mu.Unlock()
	return &fakeCopy{url: url, dir: dir, repo: repo}, nil
}

func (f *fakeBackend) openedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.opened...)
	slices.Sort(out)
	return out
}

// assertReleased fails when any working copy directory survived.
func (f *fakeBackend) assertReleased(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, dir := range f.dirs {
		if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("working copy %s still exists (stat err = %v)", dir, err)
		}
	}
}

type fakeCopy struct {
	url  string
	dir  string
	repo *fakeRepo
}

func (c *fakeCopy) RemoteURL() string { return c.url }
func (c *fakeCopy) Path() string      { return c.dir }

func (c *fakeCopy) Branches(context.Context) (iter.Seq[string], error) {
	return slices.Values(c.repo.branches), nil
}

func (c *fakeCopy) Checkout(_ context.Context, branch string) error {
	if err := c.repo.checkoutErr[branch]; err != nil {
		return err
	}
	if !slices.Contains(c.repo.branches, branch) {
		return &gitbackend.AccessError{URL: c.url, Command: "git checkout " + branch, ExitCode: 1}
	}
	files := c.repo.files[branch]
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	for path, content := range files {
		full := filepath.Join(c.dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeCopy) VerifyBranch(_ context.Context, name string) error {
	return c.lookup(gitbackend.RefKindBranch, name, c.repo.branches)
}

func (c *fakeCopy) VerifyTag(_ context.Context, name string) error {
	return c.lookup(gitbackend.RefKindTag, name, c.repo.tags)
}

func (c *fakeCopy) VerifyCommit(_ context.Context, name string) error {
	return c.lookup(gitbackend.RefKindCommit, name, c.repo.commits)
}

func (c *fakeCopy) lookup(kind gitbackend.RefKind, name string, known []string) error {
	if slices.Contains(known, name) {
		return nil
	}
	return &gitbackend.ReferenceNotFoundError{Kind: kind, Name: name, URL: c.url}
}

func (c *fakeCopy) Close() error {
	return os.RemoveAll(c.dir)
}
