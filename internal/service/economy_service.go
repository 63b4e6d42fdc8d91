package service

import (
	"context"
	"errors"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/metrics"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/repository"
)

// AdInventory is the advertiser-side visit budget. A served visit draws
// from the ad's monthly rank allotment first, then from the purchased
// package pool.
type AdInventory interface {
	Create(ctx context.Context, ad *domain.Ad) error
	Get(ctx context.Context, adID string) (*domain.Ad, error)
	List(ctx context.Context) ([]*domain.Ad, error)
	// ConsumeVisit atomically decrements one visit, or fails with
	// ErrAdBudgetExhausted when both budgets are empty.
	ConsumeVisit(ctx context.Context, adID string) (*domain.Ad, error)
	// AddPackage credits purchased visits to the package pool.
	AddPackage(ctx context.Context, adID string, visits int) (*domain.Ad, error)
}

// EconomyService covers the point economy: totem purchases, ad-view
// point claims, advertiser visit budgets and balance deposits.
type EconomyService struct {
	store ledger.Store
	ads   AdInventory
	audit AuditSink

	totemCost   int64
	maxTotems   int
	pointsPerAd int64
	adCooldown  time.Duration
}

func NewEconomyService(store ledger.Store, ads AdInventory, audit AuditSink, totemCost int64, maxTotems int, pointsPerAd int64) *EconomyService {
	return &EconomyService{
		store:       store,
		ads:         ads,
		audit:       audit,
		totemCost:   totemCost,
		maxTotems:   maxTotems,
		pointsPerAd: pointsPerAd,
		adCooldown:  24 * time.Hour,
	}
}

// TotemResult is the post-state of a totem purchase.
type TotemResult struct {
	Points int64 `json:"points"`
	Totems int   `json:"totems"`
}

// BuyTotem converts points into one totem, up to the global totem cap.
func (s *EconomyService) BuyTotem(ctx context.Context, userID string) (*TotemResult, error) {
	now := time.Now()

	acct, err := s.store.Mutate(ctx, userID, func(a *domain.Account) error {
		if a.Points < s.totemCost {
			return ErrInsufficientPoints
		}
		if a.Totems >= s.maxTotems {
			return ErrTotemCapReached
		}

		a.Points -= s.totemCost
		a.Totems++
		a.History = append(a.History, domain.HistoryEntry{
			Type:      domain.HistoryTotemPurchase,
			Points:    -s.totemCost,
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   userID,
		Category: domain.AuditCategoryEconomy,
		Action:   domain.AuditActionTotemPurchase,
		Details:  map[string]any{"totems": acct.Totems},
	})
	return &TotemResult{Points: acct.Points, Totems: acct.Totems}, nil
}

// ClaimResult is the post-state of an ad point claim.
type ClaimResult struct {
	Points             int64     `json:"points"`
	ClaimedToday       int       `json:"claimed_today"`
	NextClaimAllowedAt time.Time `json:"next_claim_allowed_at"`
}

// ClaimAdPoints credits the fixed per-ad reward. Each (user, ad) pair
// has a 24h cooldown and each rank a daily cap that rolls over at local
// midnight; hitting either rejects the claim without touching points.
func (s *EconomyService) ClaimAdPoints(ctx context.Context, userID, adID string) (*ClaimResult, error) {
	now := time.Now()
	today := now.Format("2006-01-02")

	var result ClaimResult
	_, err := s.store.Mutate(ctx, userID, func(a *domain.Account) error {
		if a.AdViewsDate != today {
			a.AdViewsDate = today
			a.AdViewsToday = 0
		}
		if a.AdViewsToday >= rank.DailyAdCapFor(a.Rank) {
			return ErrDailyCapReached
		}
		if view, ok := a.AdViews[adID]; ok && now.Before(view.NextClaimAllowedAt) {
			return ErrCooldownActive
		}

		a.Points += s.pointsPerAd
		a.AdViewsToday++
		if a.AdViews == nil {
			a.AdViews = make(map[string]domain.AdView)
		}
		a.AdViews[adID] = domain.AdView{
			AdID:               adID,
			ViewedAt:           now,
			NextClaimAllowedAt: now.Add(s.adCooldown),
		}
		a.History = append(a.History, domain.HistoryEntry{
			Type:      domain.HistoryAdClaim,
			Points:    s.pointsPerAd,
			Meta:      map[string]any{"ad_id": adID},
			CreatedAt: now,
		})

		result = ClaimResult{
			Points:             a.Points,
			ClaimedToday:       a.AdViewsToday,
			NextClaimAllowedAt: a.AdViews[adID].NextClaimAllowedAt,
		}
		return nil
	})
	if err != nil {
		metrics.AdClaims.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.AdClaims.WithLabelValues("claimed").Inc()
	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   userID,
		Category: domain.AuditCategoryEconomy,
		Action:   domain.AuditActionAdClaim,
		Details:  map[string]any{"ad_id": adID, "points": s.pointsPerAd},
	})
	return &result, nil
}

// ListAds returns the current ad inventory.
func (s *EconomyService) ListAds(ctx context.Context) ([]*domain.Ad, error) {
	return s.ads.List(ctx)
}

// CreateAd registers a new ad, enforcing the owner's slot limit.
func (s *EconomyService) CreateAd(ctx context.Context, ad *domain.Ad, slotLimit int) error {
	existing, err := s.ads.List(ctx)
	if err != nil {
		return err
	}
	owned := 0
	for _, other := range existing {
		if other.OwnerID == ad.OwnerID {
			owned++
		}
	}
	if owned >= slotLimit {
		return ErrAdSlotsExhausted
	}

	if err := s.ads.Create(ctx, ad); err != nil {
		return err
	}
	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   ad.OwnerID,
		Category: domain.AuditCategoryEconomy,
		Action:   domain.AuditActionAdCreate,
		Details:  map[string]any{"ad_id": ad.ID, "monthly_visits": ad.MonthlyRemaining},
	})
	return nil
}

// BuyAdPackage credits purchased visits to an ad owned by the caller.
func (s *EconomyService) BuyAdPackage(ctx context.Context, userID, adID string, visits int) (*domain.Ad, error) {
	ad, err := s.ads.Get(ctx, adID)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	if ad.OwnerID != userID {
		return nil, ErrNotAdOwner
	}

	ad, err = s.ads.AddPackage(ctx, adID, visits)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   userID,
		Category: domain.AuditCategoryEconomy,
		Action:   domain.AuditActionAdPackage,
		Details:  map[string]any{"ad_id": adID, "visits": visits},
	})
	return ad, nil
}

// ConsumeAdVisit charges one served visit against the ad's own budget.
// This is the advertiser's economy, independent of any viewer's points.
func (s *EconomyService) ConsumeAdVisit(ctx context.Context, adID string) (*domain.Ad, error) {
	ad, err := s.ads.ConsumeVisit(ctx, adID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAdNotFound):
			return nil, ErrAdNotFound
		case errors.Is(err, repository.ErrAdBudgetExhausted):
			return nil, ErrAdBudgetExhausted
		}
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   ad.OwnerID,
		Category: domain.AuditCategoryEconomy,
		Action:   domain.AuditActionAdVisit,
		Details:  map[string]any{"ad_id": adID, "visits_left": ad.VisitsLeft()},
	})
	return ad, nil
}

// Deposit credits a confirmed payment to the balance. The confirmation
// is opaque: the core trusts the method+amount+success triple.
func (s *EconomyService) Deposit(ctx context.Context, userID string, pay domain.PaymentConfirmation) (*domain.Account, error) {
	if !pay.Success || pay.Amount <= 0 {
		return nil, ErrPaymentFailed
	}

	now := time.Now()
	acct, err := s.store.Mutate(ctx, userID, func(a *domain.Account) error {
		a.Balance += pay.Amount
		a.History = append(a.History, domain.HistoryEntry{
			Type:      domain.HistoryDeposit,
			Amount:    pay.Amount,
			Meta:      map[string]any{"method": pay.Method},
			CreatedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   userID,
		Category: domain.AuditCategoryEconomy,
		Action:   domain.AuditActionDeposit,
		Details:  map[string]any{"method": pay.Method, "amount": pay.Amount},
	})
	return acct, nil
}
