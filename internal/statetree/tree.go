// Package statetree resolves a root repository whose branches are
// environments into validated, verifiable, exportable state lists.
package statetree

import "github.com/thiagokokada/statetree/internal/manifest"

// Environment is one branch of the root repository that carries a manifest.
type Environment struct {
	Name   string
	States []manifest.State
}

// Tree is a fully scanned root repository.
type Tree struct {
	RootURL string

	envs  map[string]*Environment
	order []string
}

func newTree(rootURL string) *Tree {
	return &Tree{RootURL: rootURL, envs: map[string]*Environment{}}
}

func (t *Tree) add(env *Environment) {
	if _, ok := t.envs[env.Name]; !ok {
		t.order = append(t.order, env.Name)
	}
	t.envs[env.Name] = env
}

// Names returns environment names in branch enumeration order.
func (t *Tree) Names() []string {
	return append([]string(nil), t.order...)
}

func (t *Tree) Environment(name string) (*Environment, bool) {
	env, ok := t.envs[name]
	return env, ok
}

func (t *Tree) Len() int { return len(t.order) }
