package service

import (
	"context"
	"testing"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

func newUpgradeFixture(seedBalance float64) (*UpgradeService, *ledger.MemoryStore) {
	store := ledger.NewMemoryStore(seedBalance)
	return NewUpgradeService(store, NewLogAuditSink()), store
}

func TestUpgradeCreditsBonusOnTopOfExistingPoints(t *testing.T) {
	cases := []struct {
		name       string
		points     int64
		from       rank.ID
		target     rank.ID
		wantPoints int64
	}{
		{"35 plus invitado bonus", 35, rank.Registrado, rank.Invitado, 45},
		{"50 plus miembro bonus", 50, rank.Invitado, rank.Miembro, 80},
		{"zero plus invitado bonus", 0, rank.Registrado, rank.Invitado, 10},
		{"500 plus elite bonus", 500, rank.Premium, rank.Elite, 900},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store := newUpgradeFixture(10000)

			_, err := store.WriteMerge(ctx, "u1", ledger.Patch{
				"points":      tc.points,
				"currentRank": tc.from,
			})
			if err != nil {
				t.Fatalf("seed: %v", err)
			}

			res, err := svc.Upgrade(ctx, "u1", tc.target)
			if err != nil {
				t.Fatalf("upgrade: %v", err)
			}
			if res.NewPoints != tc.wantPoints {
				t.Fatalf("points = %d; want %d", res.NewPoints, tc.wantPoints)
			}
			if res.NewRank != tc.target {
				t.Fatalf("rank = %s; want %s", res.NewRank, tc.target)
			}

			acct, _ := store.Read(ctx, "u1")
			if acct.Points != tc.wantPoints {
				t.Fatalf("stored points = %d; want %d", acct.Points, tc.wantPoints)
			}
		})
	}
}

func TestUpgradeDebitsPriceAndRaisesTotemFloor(t *testing.T) {
	ctx := context.Background()
	svc, store := newUpgradeFixture(100)

	res, err := svc.Upgrade(ctx, "u1", rank.Invitado)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if res.NewBalance != 90 {
		t.Fatalf("balance = %v; want 90", res.NewBalance)
	}
	if res.NewTotems != rank.TotemFloorFor(rank.Invitado) {
		t.Fatalf("totems = %d; want floor %d", res.NewTotems, rank.TotemFloorFor(rank.Invitado))
	}

	// a totem count above the new floor is never lowered
	_, err = store.WriteMerge(ctx, "u1", ledger.Patch{"totems": 7})
	if err != nil {
		t.Fatalf("seed totems: %v", err)
	}
	res, err = svc.Upgrade(ctx, "u1", rank.Miembro)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if res.NewTotems != 7 {
		t.Fatalf("totems = %d; want 7 kept above floor", res.NewTotems)
	}
}

func TestUpgradePreservesUnrelatedFields(t *testing.T) {
	ctx := context.Background()
	svc, store := newUpgradeFixture(1000)

	_, err := store.WriteMerge(ctx, "u1", ledger.Patch{
		"points":        35,
		"referralCount": 20,
		"customField":   "test",
		"notifications": []domain.Notification{},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Upgrade(ctx, "u1", rank.Invitado); err != nil {
		t.Fatalf("upgrade: %v", err)
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

func TestUpgradeRejectsLowerOrEqualRank(t *testing.T) {
	ctx := context.Background()
	svc, store := newUpgradeFixture(100000)

	_, err := store.WriteMerge(ctx, "u1", ledger.Patch{
		"currentRank": rank.VIP,
		"points":      int64(77),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, target := range []rank.ID{rank.Registrado, rank.Miembro, rank.VIP} {
		if _, err := svc.Upgrade(ctx, "u1", target); err != ErrNotHigherRank {
			t.Fatalf("upgrade to %s: err = %v; want ErrNotHigherRank", target, err)
		}
	}

	// rejection mutates nothing, balance included
	acct, _ := store.Read(ctx, "u1")
	if acct.Rank != rank.VIP || acct.Points != 77 || acct.Balance != 100000 {
		t.Fatalf("record mutated by rejected upgrade: %+v", acct)
	}
}

func TestUpgradeRejectsInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	svc, store := newUpgradeFixture(5) // invitado costs 10

	_, err := svc.Upgrade(ctx, "u1", rank.Invitado)
	if err != ErrInsufficientFunds {
		t.Fatalf("err = %v; want ErrInsufficientFunds", err)
	}

	acct, _ := store.Read(ctx, "u1")
	if acct.Rank != rank.Registrado || acct.Balance != 5 || acct.Points != 0 {
		t.Fatalf("record mutated by rejected upgrade: %+v", acct)
	}
}

func TestUpgradeRejectsUnknownRank(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUpgradeFixture(100000)

	if _, err := svc.Upgrade(ctx, "u1", "basico"); err != ErrUnknownRank {
		t.Fatalf("err = %v; want ErrUnknownRank", err)
	}
}

func TestUpgradeStatus(t *testing.T) {
	ctx := context.Background()
	svc, store := newUpgradeFixture(100)

	_, err := store.WriteMerge(ctx, "u1", ledger.Patch{"currentRank": rank.Miembro})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	status, err := svc.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.NextRank == nil || *status.NextRank != rank.VIP {
		t.Fatalf("next rank = %v; want vip", status.NextRank)
	}
	if status.NextPrice != rank.PriceFor(rank.VIP) {
		t.Fatalf("next price = %v; want %v", status.NextPrice, rank.PriceFor(rank.VIP))
	}
	if status.TotalBonus != 40 {
		t.Fatalf("total bonus = %d; want 40", status.TotalBonus)
	}

	// at the top of the order there is nothing to climb to
	_, _ = store.WriteMerge(ctx, "u1", ledger.Patch{"currentRank": rank.Elite})
	status, err = svc.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.NextRank != nil {
		t.Fatalf("next rank = %v; want nil at elite", *status.NextRank)
	}
}
