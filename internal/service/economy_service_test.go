package service

import (
	"context"
	"testing"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/repository"
)

func newEconomyFixture() (*EconomyService, *ledger.MemoryStore, *repository.MemoryAdInventory) {
	store := ledger.NewMemoryStore(100)
	ads := repository.NewMemoryAdInventory()
	svc := NewEconomyService(store, ads, NewLogAuditSink(), 50, 10, 2)
	return svc, store, ads
}

func TestBuyTotem(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newEconomyFixture()

	seedCounter(t, store, "u1", ledger.Patch{"points": int64(120)})

	res, err := svc.BuyTotem(ctx, "u1")
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if res.Points != 70 || res.Totems != 1 {
		t.Fatalf("post-state = (%d points, %d totems); want (70, 1)", res.Points, res.Totems)
	}

	res, err = svc.BuyTotem(ctx, "u1")
	if err != nil {
		t.Fatalf("second buy: %v", err)
	}
	if res.Points != 20 || res.Totems != 2 {
		t.Fatalf("post-state = (%d points, %d totems); want (20, 2)", res.Points, res.Totems)
	}

	// 20 points left, totem costs 50
	if _, err := svc.BuyTotem(ctx, "u1"); err != ErrInsufficientPoints {
		t.Fatalf("err = %v; want ErrInsufficientPoints", err)
	}
}

func TestBuyTotemRespectsCap(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newEconomyFixture()

	seedCounter(t, store, "u1", ledger.Patch{
		"points": int64(1000),
		"totems": 10,
	})

	if _, err := svc.BuyTotem(ctx, "u1"); err != ErrTotemCapReached {
		t.Fatalf("err = %v; want ErrTotemCapReached", err)
	}
	acct, _ := store.Read(ctx, "u1")
	if acct.Points != 1000 || acct.Totems != 10 {
		t.Fatalf("rejected buy mutated record: %+v", acct)
	}
}

func TestClaimAdPoints(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newEconomyFixture()

	res, err := svc.ClaimAdPoints(ctx, "u1", "ad-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Points != 2 || res.ClaimedToday != 1 {
		t.Fatalf("post-state = (%d points, %d today); want (2, 1)", res.Points, res.ClaimedToday)
	}

	// same ad within the cooldown is rejected
	if _, err := svc.ClaimAdPoints(ctx, "u1", "ad-1"); err != ErrCooldownActive {
		t.Fatalf("err = %v; want ErrCooldownActive", err)
	}

	// a different ad claims fine
	res, err = svc.ClaimAdPoints(ctx, "u1", "ad-2")
	if err != nil {
		t.Fatalf("claim ad-2: %v", err)
	}
	if res.Points != 4 || res.ClaimedToday != 2 {
		t.Fatalf("post-state = (%d points, %d today); want (4, 2)", res.Points, res.ClaimedToday)
	}

	acct, _ := store.Read(ctx, "u1")
	if len(acct.AdViews) != 2 {
		t.Fatalf("adViews = %d entries; want 2", len(acct.AdViews))
	}
}

func TestClaimAdPointsDailyCapByRank(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newEconomyFixture()

	dailyCap := rank.DailyAdCapFor(rank.Registrado)
	seedCounter(t, store, "u1", ledger.Patch{
		"adViewsToday": dailyCap,
		"adViewsDate":  time.Now().Format("2006-01-02"),
	})

	if _, err := svc.ClaimAdPoints(ctx, "u1", "ad-1"); err != ErrDailyCapReached {
		t.Fatalf("err = %v; want ErrDailyCapReached", err)
	}

	// a higher rank has a higher cap, so the same count passes
	seedCounter(t, store, "u2", ledger.Patch{
		"currentRank":  rank.Elite,
		"adViewsToday": dailyCap,
		"adViewsDate":  time.Now().Format("2006-01-02"),
	})
	if _, err := svc.ClaimAdPoints(ctx, "u2", "ad-1"); err != nil {
		t.Fatalf("elite claim: %v", err)
	}
}

func TestClaimAdPointsDailyCountRollsOver(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newEconomyFixture()

	// yesterday's count at the cap does not block today
	seedCounter(t, store, "u1", ledger.Patch{
		"adViewsToday": rank.DailyAdCapFor(rank.Registrado),
		"adViewsDate":  "2001-01-01",
	})

	res, err := svc.ClaimAdPoints(ctx, "u1", "ad-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.ClaimedToday != 1 {
		t.Fatalf("claimed_today = %d; want 1 after rollover", res.ClaimedToday)
	}
}

func TestConsumeAdVisitMonthlyThenPool(t *testing.T) {
	ctx := context.Background()
	svc, _, ads := newEconomyFixture()

	err := ads.Create(ctx, &domain.Ad{
		ID:               "ad-1",
		OwnerID:          "owner",
		MonthlyRemaining: 1,
		PackagePool:      2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ad, err := svc.ConsumeAdVisit(ctx, "ad-1")
	if err != nil {
		t.Fatalf("visit: %v", err)
	}
	if ad.MonthlyRemaining != 0 || ad.PackagePool != 2 {
		t.Fatalf("budgets = (%d monthly, %d pool); monthly drains first", ad.MonthlyRemaining, ad.PackagePool)
	}

	ad, err = svc.ConsumeAdVisit(ctx, "ad-1")
	if err != nil {
		t.Fatalf("pool visit: %v", err)
	}
	if ad.MonthlyRemaining != 0 || ad.PackagePool != 1 {
		t.Fatalf("budgets = (%d monthly, %d pool); want pool drained to 1", ad.MonthlyRemaining, ad.PackagePool)
	}

	if _, err := svc.ConsumeAdVisit(ctx, "ad-1"); err != nil {
		t.Fatalf("last pool visit: %v", err)
	}
	if _, err := svc.ConsumeAdVisit(ctx, "ad-1"); err != ErrAdBudgetExhausted {
		t.Fatalf("err = %v; want ErrAdBudgetExhausted", err)
	}
	if _, err := svc.ConsumeAdVisit(ctx, "missing"); err != ErrAdNotFound {
		t.Fatalf("err = %v; want ErrAdNotFound", err)
	}
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newEconomyFixture()

	acct, err := svc.Deposit(ctx, "u1", domain.PaymentConfirmation{
		Method:  domain.PaymentMethodPayPal,
		Amount:  25,
		Success: true,
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if acct.Balance != 125 {
		t.Fatalf("balance = %v; want 125", acct.Balance)
	}

	if _, err := svc.Deposit(ctx, "u1", domain.PaymentConfirmation{Amount: 25}); err != ErrPaymentFailed {
		t.Fatalf("unconfirmed deposit: err = %v; want ErrPaymentFailed", err)
	}
	if _, err := svc.Deposit(ctx, "u1", domain.PaymentConfirmation{Success: true}); err != ErrPaymentFailed {
		t.Fatalf("zero deposit: err = %v; want ErrPaymentFailed", err)
	}
	acct, _ = store.Read(ctx, "u1")
	if acct.Balance != 125 {
		t.Fatalf("balance = %v; rejected deposits must not credit", acct.Balance)
	}
}
