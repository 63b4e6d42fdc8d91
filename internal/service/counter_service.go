package service

import (
	"context"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/metrics"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

// Heartbeat statuses
const (
	StatusOK        = "ok"
	StatusTotemUsed = "totem_used"
	StatusSuspended = "suspended"
)

// CounterService runs the activity counter lifecycle: heartbeat polling,
// automatic totem consumption on expiry, suspension when no totem is
// left, and the point-funded manual refresh.
type CounterService struct {
	store ledger.Store
	audit AuditSink

	refreshCost  int64
	refreshBonus time.Duration
}

func NewCounterService(store ledger.Store, audit AuditSink, refreshCost int64, refreshBonus time.Duration) *CounterService {
	return &CounterService{
		store:        store,
		audit:        audit,
		refreshCost:  refreshCost,
		refreshBonus: refreshBonus,
	}
}

// HeartbeatResult is the tagged outcome of one heartbeat call.
type HeartbeatResult struct {
	Status           string     `json:"status"`
	RemainingMs      int64      `json:"remaining_ms"`
	Totems           int        `json:"totems"`
	CounterExpiresAt *time.Time `json:"counter_expires_at,omitempty"`
}

// Heartbeat advances the counter state machine. Idempotent: safe to call
// on any interval, from any number of concurrent pollers. On an expired
// counter exactly one of totem-consumption or suspension happens, once.
func (s *CounterService) Heartbeat(ctx context.Context, userID string) (*HeartbeatResult, error) {
	now := time.Now()

	acct, err := s.store.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acct.IsSuspended {
		metrics.Heartbeats.WithLabelValues(StatusSuspended).Inc()
		return s.result(StatusSuspended, acct, now), nil
	}
	if !acct.Expired(now) {
		metrics.Heartbeats.WithLabelValues(StatusOK).Inc()
		return s.result(StatusOK, acct, now), nil
	}

	// expired: the store decides between consumption and suspension in
	// one conditional step, re-checking expiry under its own lock
	res, err := s.store.ConsumeTotem(ctx, userID, now,
		rank.TotemFloorFor(acct.Rank), rank.CeilingFor(acct.Rank))
	if err != nil {
		return nil, err
	}

	switch res.Outcome {
	case ledger.OutcomeTotemUsed:
		metrics.Heartbeats.WithLabelValues(StatusTotemUsed).Inc()
		metrics.TotemsConsumed.Inc()
		s.audit.Record(ctx, &domain.AuditLog{
			UserID:   userID,
			Category: domain.AuditCategoryCounter,
			Action:   domain.AuditActionTotemUsed,
			Details:  map[string]any{"totems_left": res.Account.Totems},
		})
		return s.result(StatusTotemUsed, res.Account, now), nil

	case ledger.OutcomeSuspended:
		metrics.Heartbeats.WithLabelValues(StatusSuspended).Inc()
		metrics.Suspensions.Inc()
		s.audit.Record(ctx, &domain.AuditLog{
			UserID:   userID,
			Category: domain.AuditCategoryCounter,
			Action:   domain.AuditActionSuspension,
			Details:  map[string]any{"rank": string(res.Account.Rank)},
		})
		return s.result(StatusSuspended, res.Account, now), nil

	case ledger.OutcomeAlreadySuspended:
		metrics.Heartbeats.WithLabelValues(StatusSuspended).Inc()
		return s.result(StatusSuspended, res.Account, now), nil

	default: // a concurrent heartbeat already handled this expiry
		metrics.Heartbeats.WithLabelValues(StatusOK).Inc()
		return s.result(StatusOK, res.Account, now), nil
	}
}

func (s *CounterService) result(status string, acct *domain.Account, now time.Time) *HeartbeatResult {
	return &HeartbeatResult{
		Status:           status,
		RemainingMs:      acct.Remaining(now).Milliseconds(),
		Totems:           acct.Totems,
		CounterExpiresAt: acct.CounterExpiresAt,
	}
}

// RefreshResult is the post-state of a manual counter refresh.
type RefreshResult struct {
	Points           int64     `json:"points"`
	CounterExpiresAt time.Time `json:"counter_expires_at"`
	RemainingMs      int64     `json:"remaining_ms"`
}

// Refresh tops the counter up for points. The top-up is additive and
// clamped at the rank ceiling; a counter already at the ceiling is
// rejected, so refreshing early never jumps to maximum for free.
func (s *CounterService) Refresh(ctx context.Context, userID string) (*RefreshResult, error) {
	now := time.Now()

	var result RefreshResult
	_, err := s.store.Mutate(ctx, userID, func(a *domain.Account) error {
		if a.IsSuspended {
			return ErrSuspended
		}
		if a.Points < s.refreshCost {
			return ErrInsufficientPoints
		}

		ceiling := rank.CeilingFor(a.Rank)
		remaining := a.Remaining(now)
		if remaining >= ceiling {
			return ErrAlreadyAtCeiling
		}

		a.Points -= s.refreshCost
		newRemaining := remaining + s.refreshBonus
		if newRemaining > ceiling {
			newRemaining = ceiling
		}
		expires := now.Add(newRemaining)
		a.CounterExpiresAt = &expires

		a.History = append(a.History, domain.HistoryEntry{
			Type:      domain.HistoryRefresh,
			Points:    -s.refreshCost,
			Meta:      map[string]any{"added_seconds": s.refreshBonus.Seconds()},
			CreatedAt: now,
		})

		result = RefreshResult{
			Points:           a.Points,
			CounterExpiresAt: expires,
			RemainingMs:      newRemaining.Milliseconds(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   userID,
		Category: domain.AuditCategoryCounter,
		Action:   domain.AuditActionCounterRefresh,
		Details:  map[string]any{"cost": s.refreshCost},
	})
	return &result, nil
}
