package service

import (
	"context"
	"testing"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

func newCounterFixture() (*CounterService, *ledger.MemoryStore) {
	store := ledger.NewMemoryStore(100)
	return NewCounterService(store, NewLogAuditSink(), 40, 10*time.Minute), store
}

func seedCounter(t *testing.T, store *ledger.MemoryStore, userID string, patch ledger.Patch) {
	t.Helper()
	if _, err := store.WriteMerge(context.Background(), userID, patch); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestHeartbeatActiveCounter(t *testing.T) {
	ctx := context.Background()
	svc, store := newCounterFixture()

	seedCounter(t, store, "u1", ledger.Patch{
		"counterExpiresAt": time.Now().Add(30 * time.Minute),
	})

	res, err := svc.Heartbeat(ctx, "u1")
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if res.Status != StatusOK {
		t.Fatalf("status = %s; want ok", res.Status)
	}
	if res.RemainingMs <= 0 || res.RemainingMs > (30*time.Minute).Milliseconds() {
		t.Fatalf("remaining_ms = %d; want within (0, 30m]", res.RemainingMs)
	}
}

func TestHeartbeatConsumesTotemOnExpiry(t *testing.T) {
	ctx := context.Background()
	svc, store := newCounterFixture()

	seedCounter(t, store, "u1", ledger.Patch{
		"counterExpiresAt": time.Now().Add(-time.Second),
		"totems":           2,
	})

	res, err := svc.Heartbeat(ctx, "u1")
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if res.Status != StatusTotemUsed {
		t.Fatalf("status = %s; want totem_used", res.Status)
	}
	if res.Totems != 1 {
		t.Fatalf("totems = %d; want 1", res.Totems)
	}

	ceiling := rank.CeilingFor(rank.Registrado)
	if res.RemainingMs < (ceiling - time.Minute).Milliseconds() {
		t.Fatalf("remaining_ms = %d; want counter reset near rank ceiling %v", res.RemainingMs, ceiling)
	}

	// the next heartbeat sees an active counter again
	res, err = svc.Heartbeat(ctx, "u1")
	if err != nil {
		t.Fatalf("second heartbeat: %v", err)
	}
	if res.Status != StatusOK || res.Totems != 1 {
		t.Fatalf("second heartbeat = (%s, %d totems); want (ok, 1)", res.Status, res.Totems)
	}
}

func TestHeartbeatSuspendsWithoutTotems(t *testing.T) {
	ctx := context.Background()
	svc, store := newCounterFixture()

	seedCounter(t, store, "u1", ledger.Patch{
		"counterExpiresAt": time.Now().Add(-time.Second),
		"totems":           0,
	})

	res, err := svc.Heartbeat(ctx, "u1")
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if res.Status != StatusSuspended {
		t.Fatalf("status = %s; want suspended", res.Status)
	}

	acct, _ := store.Read(ctx, "u1")
	if !acct.IsSuspended || acct.SuspendedAt == nil {
		t.Fatalf("account not marked suspended: %+v", acct)
	}
	suspendedAt := *acct.SuspendedAt

	// repeating the heartbeat reports suspended without re-suspending
	res, err = svc.Heartbeat(ctx, "u1")
	if err != nil {
		t.Fatalf("second heartbeat: %v", err)
	}
	if res.Status != StatusSuspended {
		t.Fatalf("second status = %s; want suspended", res.Status)
	}
	acct, _ = store.Read(ctx, "u1")
	if !acct.SuspendedAt.Equal(suspendedAt) {
		t.Fatalf("suspendedAt moved from %v to %v", suspendedAt, acct.SuspendedAt)
	}
}

func TestHeartbeatRankFloorSavesZeroTotemAccount(t *testing.T) {
	ctx := context.Background()
	svc, store := newCounterFixture()

	// premium guarantees a totem floor, so an expired zero-totem record
	// is topped up to the floor before consumption
	seedCounter(t, store, "u1", ledger.Patch{
		"currentRank":      rank.Premium,
		"counterExpiresAt": time.Now().Add(-time.Second),
		"totems":           0,
	})

	res, err := svc.Heartbeat(ctx, "u1")
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if res.Status != StatusTotemUsed {
		t.Fatalf("status = %s; want totem_used", res.Status)
	}
	if want := rank.TotemFloorFor(rank.Premium) - 1; res.Totems != want {
		t.Fatalf("totems = %d; want %d (floor minus the consumed one)", res.Totems, want)
	}
}

func TestRefreshAddsTimeAndDebitsPoints(t *testing.T) {
	ctx := context.Background()
	svc, store := newCounterFixture()

	seedCounter(t, store, "u1", ledger.Patch{
		"points":           int64(100),
		"counterExpiresAt": time.Now().Add(5 * time.Minute),
	})

	res, err := svc.Refresh(ctx, "u1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if res.Points != 60 {
		t.Fatalf("points = %d; want 60", res.Points)
	}

	// additive: roughly 5m remaining plus the 10m bonus
	want := (15 * time.Minute).Milliseconds()
	if res.RemainingMs < want-(10*time.Second).Milliseconds() || res.RemainingMs > want {
		t.Fatalf("remaining_ms = %d; want about %d", res.RemainingMs, want)
	}
}

func TestRefreshClampsAtRankCeiling(t *testing.T) {
	ctx := context.Background()
	svc, store := newCounterFixture()

	ceiling := rank.CeilingFor(rank.Registrado)
	seedCounter(t, store, "u1", ledger.Patch{
		"points":           int64(100),
		"counterExpiresAt": time.Now().Add(ceiling - time.Minute),
	})

	res, err := svc.Refresh(ctx, "u1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if res.RemainingMs > ceiling.Milliseconds() {
		t.Fatalf("remaining_ms = %d; want clamped at ceiling %d", res.RemainingMs, ceiling.Milliseconds())
	}
	if res.RemainingMs < (ceiling - time.Minute).Milliseconds() {
		t.Fatalf("remaining_ms = %d; clamp went below the pre-refresh value", res.RemainingMs)
	}
}

func TestRefreshRejections(t *testing.T) {
	ctx := context.Background()
	svc, store := newCounterFixture()

	seedCounter(t, store, "suspended", ledger.Patch{
		"points":      int64(100),
		"isSuspended": true,
	})
	if _, err := svc.Refresh(ctx, "suspended"); err != ErrSuspended {
		t.Fatalf("suspended refresh: err = %v; want ErrSuspended", err)
	}

	seedCounter(t, store, "broke", ledger.Patch{
		"points":           int64(10),
		"counterExpiresAt": time.Now().Add(time.Minute),
	})
	if _, err := svc.Refresh(ctx, "broke"); err != ErrInsufficientPoints {
		t.Fatalf("broke refresh: err = %v; want ErrInsufficientPoints", err)
	}
	acct, _ := store.Read(ctx, "broke")
	if acct.Points != 10 {
		t.Fatalf("points = %d; rejected refresh must not debit", acct.Points)
	}

	seedCounter(t, store, "full", ledger.Patch{
		"points":           int64(100),
		"counterExpiresAt": time.Now().Add(rank.CeilingFor(rank.Registrado) + time.Minute),
	})
	if _, err := svc.Refresh(ctx, "full"); err != ErrAlreadyAtCeiling {
		t.Fatalf("full refresh: err = %v; want ErrAlreadyAtCeiling", err)
	}
}
