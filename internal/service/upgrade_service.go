package service

import (
	"context"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/metrics"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

// UpgradeService advances an account through the rank order. The whole
// upgrade (price debit, bonus credit, totem floor, rank change) is one
// atomic unit against the ledger.
type UpgradeService struct {
	store ledger.Store
	audit AuditSink
}

func NewUpgradeService(store ledger.Store, audit AuditSink) *UpgradeService {
	return &UpgradeService{store: store, audit: audit}
}

// UpgradeResult is the post-state of a successful upgrade.
type UpgradeResult struct {
	NewRank    rank.ID `json:"new_rank"`
	NewBalance float64 `json:"new_balance"`
	NewPoints  int64   `json:"new_points"`
	NewTotems  int     `json:"new_totems"`
}

// Upgrade moves the account to target. target must be strictly higher
// than the current rank by order position and the balance must cover the
// price; otherwise the record stays untouched and a typed rejection is
// returned.
func (s *UpgradeService) Upgrade(ctx context.Context, userID string, target rank.ID) (*UpgradeResult, error) {
	def, ok := rank.Get(target)
	if !ok {
		return nil, ErrUnknownRank
	}

	now := time.Now()
	acct, err := s.store.Mutate(ctx, userID, func(a *domain.Account) error {
		// re-validate against the in-lock snapshot, not the caller's view
		if !rank.IsHigher(target, a.Rank) {
			return ErrNotHigherRank
		}
		if a.Balance < def.UpgradePrice {
			return ErrInsufficientFunds
		}

		a.Balance -= def.UpgradePrice
		a.Points += def.PointBonus
		if a.Totems < def.TotemFloor {
			a.Totems = def.TotemFloor
		}
		a.Rank = target

		a.History = append(a.History, domain.HistoryEntry{
			Type:      domain.HistoryUpgrade,
			Amount:    -def.UpgradePrice,
			Points:    def.PointBonus,
			Meta:      map[string]any{"rank": string(target)},
			CreatedAt: now,
		})
		a.Notify("rank", "ascenso a "+string(target), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Upgrades.WithLabelValues(string(target)).Inc()
	s.audit.Record(ctx, &domain.AuditLog{
		UserID:   userID,
		Category: domain.AuditCategoryRank,
		Action:   domain.AuditActionUpgrade,
		Details: map[string]any{
			"rank":  string(target),
			"price": def.UpgradePrice,
			"bonus": def.PointBonus,
		},
	})

	return &UpgradeResult{
		NewRank:    acct.Rank,
		NewBalance: acct.Balance,
		NewPoints:  acct.Points,
		NewTotems:  acct.Totems,
	}, nil
}

// Status describes the account's position in the rank order for the
// caller's benefit; every value is advisory, the upgrade re-validates.
type UpgradeStatus struct {
	Rank       rank.ID  `json:"rank"`
	Balance    float64  `json:"balance"`
	Points     int64    `json:"points"`
	NextRank   *rank.ID `json:"next_rank,omitempty"`
	NextPrice  float64  `json:"next_price,omitempty"`
	NextBonus  int64    `json:"next_bonus,omitempty"`
	TotalBonus int64    `json:"total_bonus_earned"`
	Benefits   []string `json:"benefits"`
}

func (s *UpgradeService) Status(ctx context.Context, userID string) (*UpgradeStatus, error) {
	acct, err := s.store.Read(ctx, userID)
	if err != nil {
		return nil, err
	}

	def, _ := rank.Get(acct.Rank)
	status := &UpgradeStatus{
		Rank:       acct.Rank,
		Balance:    acct.Balance,
		Points:     acct.Points,
		TotalBonus: rank.TotalBonusUpTo(acct.Rank),
		Benefits:   def.Benefits,
	}
	if next, ok := rank.Next(acct.Rank); ok {
		status.NextRank = &next
		status.NextPrice = rank.PriceFor(next)
		status.NextBonus = rank.BonusFor(next)
	}
	return status, nil
}
