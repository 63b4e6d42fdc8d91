package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

func TestWriteMergePreservesUnspecifiedFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	_, err := store.WriteMerge(ctx, "u1", Patch{
		"points":        100,
		"currentRank":   "vip",
		"balance":       5000,
		"totems":        3,
		"referralCount": 20,
		"customField":   "test",
	})
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}

	acct, err := store.WriteMerge(ctx, "u1", Patch{"points": 200})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}

	if acct.Points != 200 {
		t.Fatalf("points = %d; want 200", acct.Points)
	}
	if acct.Rank != rank.VIP {
		t.Fatalf("rank = %s; want vip", acct.Rank)
	}
	if acct.Balance != 5000 {
		t.Fatalf("balance = %v; want 5000", acct.Balance)
	}
	if acct.Totems != 3 {
		t.Fatalf("totems = %d; want 3", acct.Totems)
	}

	var referralCount int
	ok, err := store.ReadField(ctx, "u1", "referralCount", &referralCount)
	if err != nil || !ok || referralCount != 20 {
		t.Fatalf("referralCount = (%d, %v, %v); want (20, true, nil)", referralCount, ok, err)
	}

	var custom string
	ok, err = store.ReadField(ctx, "u1", "customField", &custom)
	if err != nil || !ok || custom != "test" {
		t.Fatalf("customField = (%q, %v, %v); want (test, true, nil)", custom, ok, err)
	}
}

func TestConcurrentIncrementsLoseNoUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	if err := store.WriteField(ctx, "u1", "points", 0); err != nil {
		t.Fatalf("seed points: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrementField(ctx, "u1", "points", 10); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	acct, err := store.Read(ctx, "u1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if acct.Points != 30 {
		t.Fatalf("points = %d; want 30", acct.Points)
	}
}

func TestReadRecoversFromMalformedRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)
	store.SeedRaw("u1", []byte("invalid json"))

	acct, err := store.Read(ctx, "u1")
	if err != nil {
		t.Fatalf("read must not fail on malformed storage: %v", err)
	}
	if acct.Rank != rank.Registrado {
		t.Fatalf("rank = %s; want registrado default", acct.Rank)
	}
	if acct.Points != 0 || acct.Totems != 0 {
		t.Fatalf("points/totems = %d/%d; want 0/0", acct.Points, acct.Totems)
	}
	if acct.Balance != 100 {
		t.Fatalf("balance = %v; want seed balance 100", acct.Balance)
	}
}

func TestWriteMergeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(50)

	patch := Patch{
		"points":      42,
		"currentRank": "miembro",
		"nested":      map[string]any{"a": 1, "b": "two"},
	}
	written, err := store.WriteMerge(ctx, "u1", patch)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	read, err := store.Read(ctx, "u1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if read.Points != written.Points || read.Rank != written.Rank {
		t.Fatalf("read (%d, %s) != written (%d, %s)",
			read.Points, read.Rank, written.Points, written.Rank)
	}
	// the default record's untouched fields survive the merge
	if read.Balance != 50 {
		t.Fatalf("balance = %v; want 50", read.Balance)
	}
	var nested map[string]any
	ok, err := store.ReadField(ctx, "u1", "nested", &nested)
	if err != nil || !ok {
		t.Fatalf("nested field lost: (%v, %v)", ok, err)
	}
	if nested["b"] != "two" {
		t.Fatalf("nested.b = %v; want two", nested["b"])
	}
}

func TestReadFieldDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	missing := 7
	ok, err := store.ReadField(ctx, "u1", "noSuchField", &missing)
	if err != nil {
		t.Fatalf("read field: %v", err)
	}
	if ok {
		t.Fatal("absent field reported as present")
	}
	if missing != 7 {
		t.Fatalf("caller default clobbered: %d", missing)
	}
}

func TestConsumeTotemExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	expired := time.Now().Add(-time.Minute)
	_, err := store.WriteMerge(ctx, "u1", Patch{
		"currentRank":      "registrado",
		"totems":           1,
		"counterExpiresAt": expired,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	now := time.Now()
	results := make([]*ConsumeResult, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := store.ConsumeTotem(ctx, "u1", now, 0, time.Hour)
			if err != nil {
				t.Errorf("consume %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	used, active := 0, 0
	for _, res := range results {
		switch res.Outcome {
		case OutcomeTotemUsed:
			used++
		case OutcomeActive:
			active++
		case OutcomeSuspended, OutcomeAlreadySuspended:
			t.Fatalf("suspension triggered with a totem available")
		}
	}
	if used != 1 || active != 1 {
		t.Fatalf("outcomes used=%d active=%d; want exactly one consumption", used, active)
	}

	acct, err := store.Read(ctx, "u1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if acct.Totems != 0 {
		t.Fatalf("totems = %d; want 0", acct.Totems)
	}
	if acct.IsSuspended {
		t.Fatal("account suspended although a totem was consumed")
	}
	if acct.CounterExpiresAt == nil || !acct.CounterExpiresAt.After(now) {
		t.Fatal("counter not reset into the future")
	}
}

func TestConsumeTotemSuspendsAtZero(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	expired := time.Now().Add(-time.Minute)
	_, err := store.WriteMerge(ctx, "u1", Patch{
		"totems":           0,
		"counterExpiresAt": expired,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	now := time.Now()
	res, err := store.ConsumeTotem(ctx, "u1", now, 0, time.Hour)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if res.Outcome != OutcomeSuspended {
		t.Fatalf("outcome = %s; want suspended", res.Outcome)
	}
	if res.Account.Totems != 0 {
		t.Fatalf("totems = %d; want 0 (never negative)", res.Account.Totems)
	}
	if !res.Account.IsSuspended || res.Account.SuspendedAt == nil {
		t.Fatal("suspension state not recorded")
	}

	// repeated heartbeat after suspension mutates nothing
	res2, err := store.ConsumeTotem(ctx, "u1", now.Add(time.Second), 0, time.Hour)
	if err != nil {
		t.Fatalf("consume again: %v", err)
	}
	if res2.Outcome != OutcomeAlreadySuspended {
		t.Fatalf("outcome = %s; want already_suspended", res2.Outcome)
	}
	if !res2.Account.SuspendedAt.Equal(*res.Account.SuspendedAt) {
		t.Fatal("suspendedAt changed on repeated call")
	}
}

func TestConsumeTotemRaisesToFloorFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	expired := time.Now().Add(-time.Minute)
	_, err := store.WriteMerge(ctx, "u1", Patch{
		"totems":           0,
		"counterExpiresAt": expired,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// floor 2: one is consumed for this expiry, one remains
	now := time.Now()
	res, err := store.ConsumeTotem(ctx, "u1", now, 2, time.Hour)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if res.Outcome != OutcomeTotemUsed {
		t.Fatalf("outcome = %s; want totem_used", res.Outcome)
	}
	if res.Account.Totems != 1 {
		t.Fatalf("totems = %d; want 1", res.Account.Totems)
	}
	if res.Account.LastTotemUsedAt == nil {
		t.Fatal("lastTotemUsedAt not stamped")
	}
}
