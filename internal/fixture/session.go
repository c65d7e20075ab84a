package fixture

import (
	"context"
	"sync"
	"testing"

	"github.com/roach88/augurlite/internal/chain"
)

// Session fixtures are built at most once per test binary and shared by
// every test in it. Tests never mutate the shared snapshots; they reset the
// shared Fixture to one before use.
var session struct {
	fixtureOnce sync.Once
	fixture     *Fixture

	kitchenSinkOnce sync.Once
	kitchenSink     *chain.Snapshot
	kitchenSinkErr  error

	localOnce sync.Once
	local     *chain.Snapshot
	localErr  error
}

// SessionFixture returns the fixture shared by the test binary.
func SessionFixture(t testing.TB) *Fixture {
	t.Helper()
	session.fixtureOnce.Do(func() {
		session.fixture = New()
	})
	return session.fixture
}

// KitchenSinkSnapshot returns the session snapshot of a fully deployed
// chain with funded accounts and one sample market.
func KitchenSinkSnapshot(t testing.TB) *chain.Snapshot {
	t.Helper()
	f := SessionFixture(t)
	session.kitchenSinkOnce.Do(func() {
		ctx := context.Background()
		if session.kitchenSinkErr = BuildKitchenSink(ctx, f); session.kitchenSinkErr != nil {
			return
		}
		session.kitchenSink, session.kitchenSinkErr = f.CreateSnapshot(ctx)
	})
	if session.kitchenSinkErr != nil {
		t.Fatalf("kitchen sink snapshot: %v", session.kitchenSinkErr)
	}
	return session.kitchenSink
}

// LocalSnapshot resets the session fixture to the kitchen sink and takes a
// fresh snapshot of it, once per session.
func LocalSnapshot(t testing.TB) *chain.Snapshot {
	t.Helper()
	f := SessionFixture(t)
	kitchenSink := KitchenSinkSnapshot(t)
	session.localOnce.Do(func() {
		if session.localErr = f.ResetToSnapshot(kitchenSink); session.localErr != nil {
			return
		}
		session.local, session.localErr = f.CreateSnapshot(context.Background())
	})
	if session.localErr != nil {
		t.Fatalf("local snapshot: %v", session.localErr)
	}
	return session.local
}

// LocalFixture resets the session fixture to LocalSnapshot and returns it.
// Call it at the start of every test that mutates chain state.
func LocalFixture(t testing.TB) *Fixture {
	t.Helper()
	snap := LocalSnapshot(t)
	f := SessionFixture(t)
	if err := f.ResetToSnapshot(snap); err != nil {
		t.Fatalf("reset to local snapshot: %v", err)
	}
	return f
}

// Augur resets to LocalSnapshot and returns the AugurLite handle, bound to
// the test's context.
func Augur(t testing.TB) *AugurLite {
	t.Helper()
	f := LocalFixture(t)
	LocalSnapshot(t)
	c, err := f.Contracts.Get("AugurLite")
	if err != nil {
		t.Fatalf("augur: %v", err)
	}
	return &AugurLite{c.WithContext(t.Context())}
}

// GenesisUniverse returns the genesis universe of the session deployment.
// It does not reset state; pair it with Augur or LocalFixture.
func GenesisUniverse(t testing.TB) *Universe {
	t.Helper()
	LocalSnapshot(t)
	u, err := SessionFixture(t).Universe()
	if err != nil {
		t.Fatalf("genesis universe: %v", err)
	}
	return &Universe{u.WithContext(t.Context())}
}
