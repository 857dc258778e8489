// Package gitfixture builds throwaway repositories for tests.
//
// Every branch is an orphan carrying exactly the files it declares, so a
// branch without a manifest really has none.
package gitfixture

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Branch struct {
	Name  string
	Files map[string]string
	Tags  []string
}

type Repo struct {
	Dir  string
	Repo *gitlib.Repository
	// Heads maps branch names to the hash of their only commit.
	Heads map[string]string
}

// URL returns a file:// URL; plain local paths make git ignore --depth.
func (r *Repo) URL() string {
	return "file://" + filepath.ToSlash(r.Dir)
}

func New(tb testing.TB, branches ...Branch) *Repo {
	tb.Helper()
	dir := filepath.Join(tb.TempDir(), "origin")
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		tb.Fatalf("init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		tb.Fatalf("worktree: %v", err)
	}
	fx := &Repo{Dir: dir, Repo: repo, Heads: map[string]string{}}
	var written []string
	for i, b := range branches {
		head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(b.Name))
		if err := repo.Storer.SetReference(head); err != nil {
			tb.Fatalf("point HEAD at %s: %v", b.Name, err)
		}
		for _, path := range written {
			if _, err := wt.Remove(path); err != nil {
				tb.Fatalf("remove %s: %v", path, err)
			}
		}
		written = written[:0]
		files := map[string]string{".branch": b.Name}
		for path, content := range b.Files {
			files[path] = content
		}
		paths := make([]string, 0, len(files))
		for path := range files {
			paths = append(paths, path)
		}
		slices.Sort(paths)
		for _, path := range paths {
			full := filepath.Join(dir, path)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				tb.Fatalf("mkdir for %s: %v", path, err)
			}
			if err := os.WriteFile(full, []byte(files[path]), 0o644); err != nil {
				tb.Fatalf("write %s: %v", path, err)
			}
			if _, err := wt.Add(path); err != nil {
				tb.Fatalf("add %s: %v", path, err)
			}
			written = append(written, path)
		}
		hash, err := wt.Commit("fixture "+b.Name, &gitlib.CommitOptions{
			Author: &object.Signature{
				Name:  "Fixture",
				Email: "fixture@example.com",
				When:  time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
			},
		})
		if err != nil {
			tb.Fatalf("commit %s: %v", b.Name, err)
		}
		fx.Heads[b.Name] = hash.String()
		for _, tag := range b.Tags {
			if _, err := repo.CreateTag(tag, hash, nil); err != nil {
				tb.Fatalf("tag %s: %v", tag, err)
			}
		}
	}
	return fx
}

// SetRemoteBranches makes the repository look like a fresh clone of itself:
// every local branch gets an origin/<name> counterpart.
func (r *Repo) SetRemoteBranches(tb testing.TB) {
	tb.Helper()
	for name, hash := range r.Heads {
		ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", name), plumbing.NewHash(hash))
		if err := r.Repo.Storer.SetReference(ref); err != nil {
			tb.Fatalf("set remote ref %s: %v", name, err)
		}
	}
}
