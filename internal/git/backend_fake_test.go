package git

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
)

type fakeBackend struct {
	openFunc func(ctx context.Context, url string) (gitbackend.WorkingCopy, error)

	mu      sync.Mutex
	opened  []string
	open    atomic.Int32
	maxOpen atomic.Int32
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Open(ctx context.Context, url string) (gitbackend.WorkingCopy, error) {
	f.mu.Lock()
	f.opened = append(f.opened, url)
	f.mu.Unlock()
	if f.openFunc == nil {
		return nil, errors.New("unexpected Open call")
	}
	wc, err := f.openFunc(ctx, url)
	if err != nil {
		return nil, err
	}
	n := f.open.Add(1)
	for {
		cur := f.maxOpen.Load()
		if n <= cur || f.maxOpen.CompareAndSwap(cur, n) {
			break
		}
	}
	if fc, ok := wc.(*fakeCopy); ok {
		fc.onClose = func() { f.open.Add(-1) }
	}
	return wc, nil
}

type fakeCopy struct {
	url string

	verifyBranchFunc func(name string) error
	verifyTagFunc    func(name string) error
	verifyCommitFunc func(name string) error
	closeErr         error

	onClose func()
	closed  atomic.Int32
	calls   []string
}

func (f *fakeCopy) RemoteURL() string { return f.url }
func (f *fakeCopy) Path() string      { return "" }

func (f *fakeCopy) Branches(context.Context) (iter.Seq[string], error) {
	return slices.Values([]string(nil)), nil
}

func (f *fakeCopy) Checkout(context.Context, string) error {
	return errors.New("unexpected Checkout call")
}

func (f *fakeCopy) VerifyBranch(_ context.Context, name string) error {
	f.calls = append(f.calls, "branch:"+name)
	if f.verifyBranchFunc != nil {
		return f.verifyBranchFunc(name)
	}
	return nil
}

func (f *fakeCopy) VerifyTag(_ context.Context, name string) error {
	f.calls = append(f.calls, "tag:"+name)
	if f.verifyTagFunc != nil {
		return f.verifyTagFunc(name)
	}
	return nil
}

func (f *fakeCopy) VerifyCommit(_ context.Context, name string) error {
	f.calls = append(f.calls, "commit:"+name)
	if f.verifyCommitFunc != nil {
		return f.verifyCommitFunc(name)
	}
	return nil
}

func (f *fakeCopy) Close() error {
	f.closed.Add(1)
	if f.onClose != nil {
		f.onClose()
	}
	return f.closeErr
}
