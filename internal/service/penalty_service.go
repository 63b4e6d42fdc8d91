package service

import (
	"context"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/metrics"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

// PenaltyService prices and processes reactivation of suspended
// accounts. The penalty escalates once the grace window elapses unpaid.
type PenaltyService struct {
	store ledger.Store
	audit AuditSink

	basePrice      float64
	escalatedPrice float64
	graceWindow    time.Duration
}

func NewPenaltyService(store ledger.Store, audit AuditSink, basePrice, escalatedPrice float64, graceWindow time.Duration) *PenaltyService {
	return &PenaltyService{
		store:          store,
		audit:          audit,
		basePrice:      basePrice,
		escalatedPrice: escalatedPrice,
		graceWindow:    graceWindow,
	}
}

func (s *PenaltyService) priceAt(suspendedAt *time.Time, now time.Time) float64 {
	if suspendedAt != nil && now.Sub(*suspendedAt) > s.graceWindow {
		return s.escalatedPrice
	}
	return s.basePrice
}

// PenaltyQuote describes what reactivation currently costs.
type PenaltyQuote struct {
	Price       float64    `json:"price"`
	Escalated   bool       `json:"escalated"`
	SuspendedAt *time.Time `json:"suspended_at"`
}

// Quote returns the current penalty price for a suspended account.
func (s *PenaltyService) Quote(ctx context.Context, userID string) (*PenaltyQuote, error) {
	acct, err := s.store.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acct.IsSuspended {
		return nil, ErrNotSuspended
	}

	now := time.Now()
	price := s.priceAt(acct.SuspendedAt, now)
	return &PenaltyQuote{
		Price:       price,
		Escalated:   price == s.escalatedPrice && s.escalatedPrice != s.basePrice,
		SuspendedAt: acct.SuspendedAt,
	}, nil
}

// ReactivationResult is the post-state of a successful reactivation.
type ReactivationResult struct {
	Rank             rank.ID   `json:"rank"`
	CounterExpiresAt time.Time `json:"counter_expires_at"`
	PricePaid        float64   `json:"price_paid"`
}

// PayPenalty reactivates a suspended account against a confirmed
// payment covering the current penalty price. On success the suspension
// flags are cleared and the counter restarts at the full ceiling for
// the account's rank.
func (s *PenaltyService) PayPenalty(ctx context.Context, userID string, pay domain.PaymentConfirmation) (*ReactivationResult, error) {
	if !pay.Success {
		return nil, ErrPaymentFailed
	}

	now := time.Now()
	var result ReactivationResult
	_, err := s.store.Mutate(ctx, userID, func(a *domain.Account) error {
		if !a.IsSuspended {
			return ErrNotSuspended
		}

		price := s.priceAt(a.SuspendedAt, now)
		if pay.Amount < price {
			return ErrPaymentTooSmall
		}

		a.IsSuspended = false
		a.SuspendedAt = nil
		expires := now.Add(rank.CeilingFor(a.Rank))
		a.CounterExpiresAt = &expires

		a.History = append(a.History, domain.HistoryEntry{
			Type:      domain.HistoryReactivation,
			Amount:    -price,
			Meta:      map[string]any{"method": pay.Method},
			CreatedAt: now,
		})
		a.Notify("penalty", "cuenta reactivada", now)

		result = ReactivationResult{
			Rank:             a.Rank,
			CounterExpiresAt: expires,
			PricePaid:        price,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Reactivations.Inc()
	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   userID,
		Category: domain.AuditCategoryPenalty,
		Action:   domain.AuditActionReactivation,
		Details:  map[string]any{"price": result.PricePaid, "method": pay.Method},
	})
	return &result, nil
}
