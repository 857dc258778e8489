package statetree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thiagokokada/statetree/internal/git"
)

type Options struct {
	Manifest string
	Jobs     int
	// Verify enables reference verification before an environment is exported.
	Verify bool
	Logger *slog.Logger
}

// Resolver ties scanning, verification and export together.
type Resolver struct {
	scanner  *Scanner
	verifier *Verifier
	verify   bool
}

func NewResolver(svc *git.Service, opts Options) *Resolver {
	return &Resolver{
		scanner:  NewScanner(svc, ScanOptions{Manifest: opts.Manifest, Logger: opts.Logger}),
		verifier: NewVerifier(svc, VerifyOptions{Jobs: opts.Jobs, Logger: opts.Logger}),
		verify:   opts.Verify,
	}
}

func (r *Resolver) Scan(ctx context.Context, rootURL string) (*Tree, error) {
	return r.scanner.Scan(ctx, rootURL)
}

// Export renders one environment of tree. With verification enabled, an
// environment with any unverifiable pin is not exported.
func (r *Resolver) Export(ctx context.Context, tree *Tree, name string) ([]byte, error) {
	env, ok := tree.Environment(name)
	if !ok {
		return nil, fmt.Errorf("statetree: %w %q in %s", ErrUnknownEnvironment, name, tree.RootURL)
	}
	if r.verify {
		if err := r.verifier.VerifyEnvironment(ctx, env); err != nil {
			return nil, err
		}
	}
	return Export(env)
}

// Document is the exported form of one environment.
type Document struct {
	Environment string
	Data        []byte
}

// ExportAll exports the named environments, or every environment in
// enumeration order when names is empty. The first failure aborts.
func (r *Resolver) ExportAll(ctx context.Context, tree *Tree, names ...string) ([]Document, error) {
	if len(names) == 0 {
		names = tree.Names()
	}
	docs := make([]Document, 0, len(names))
	for _, name := range names {
		data, err := r.Export(ctx, tree, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Environment: name, Data: data})
	}
	return docs, nil
}

// Resolve scans rootURL and exports the named environments in one go.
func (r *Resolver) Resolve(ctx context.Context, rootURL string, names ...string) ([]Document, error) {
	tree, err := r.Scan(ctx, rootURL)
	if err != nil {
		return nil, err
	}
	return r.ExportAll(ctx, tree, names...)
}
