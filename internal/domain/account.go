package domain

import (
	"encoding/json"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

// Account is the per-user ledger record. The typed fields carry the core
// economic state; Extra carries every other key found in the persisted
// record and must survive every partial update untouched.
type Account struct {
	UserID           string     `json:"userId"`
	Rank             rank.ID    `json:"currentRank"`
	Points           int64      `json:"points"`
	Balance          float64    `json:"balance"`
	Totems           int        `json:"totems"`
	CounterExpiresAt *time.Time `json:"counterExpiresAt,omitempty"`
	IsSuspended      bool       `json:"isSuspended"`
	SuspendedAt      *time.Time `json:"suspendedAt,omitempty"`
	LastTotemUsedAt  *time.Time `json:"lastTotemUsedAt,omitempty"`

	// Ad claim state, per viewer.
	AdViews      map[string]AdView `json:"adViews,omitempty"`
	AdViewsToday int               `json:"adViewsToday"`
	AdViewsDate  string            `json:"adViewsDate,omitempty"`

	History       []HistoryEntry `json:"history,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`

	// Extra holds record keys the core does not model. Opaque.
	Extra map[string]json.RawMessage `json:"-"`
}

// AdView tracks the claim cooldown for one (user, ad) pair.
type AdView struct {
	AdID               string    `json:"adId"`
	ViewedAt           time.Time `json:"viewedAt"`
	NextClaimAllowedAt time.Time `json:"nextClaimAllowedAt"`
}

// HistoryEntry is one line of the record-resident transaction history.
type HistoryEntry struct {
	Type      string         `json:"type"`
	Amount    float64        `json:"amount,omitempty"`
	Points    int64          `json:"points,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Notification is a record-resident user notification.
type Notification struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// History entry types
const (
	HistoryUpgrade       = "rank_upgrade"
	HistoryTotemPurchase = "totem_purchase"
	HistoryAdClaim       = "ad_claim"
	HistoryRefresh       = "counter_refresh"
	HistoryDeposit       = "deposit"
	HistoryReactivation  = "reactivation"
)

// NewAccount synthesizes the default record for a user that has no data
// yet: lowest rank, zero points and totems, a seeded balance and a
// freshly started activity counter.
func NewAccount(userID string, seedBalance float64, now time.Time) *Account {
	expires := now.Add(rank.CeilingFor(rank.Registrado))
	return &Account{
		UserID:           userID,
		Rank:             rank.Registrado,
		Points:           0,
		Balance:          seedBalance,
		Totems:           0,
		CounterExpiresAt: &expires,
		CreatedAt:        now,
	}
}

// Remaining returns the time left on the activity counter, clamped at
// zero. An untracked (nil) counter has no time left.
func (a *Account) Remaining(now time.Time) time.Duration {
	if a.CounterExpiresAt == nil {
		return 0
	}
	d := a.CounterExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether the counter has a tracked expiry in the past.
func (a *Account) Expired(now time.Time) bool {
	return a.CounterExpiresAt != nil && !a.CounterExpiresAt.After(now)
}

// Notify appends a notification to the record.
func (a *Account) Notify(kind, message string, now time.Time) {
	a.Notifications = append(a.Notifications, Notification{
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
	})
}

// accountKeys lists the record keys owned by the typed fields. Everything
// else round-trips through Extra.
var accountKeys = map[string]bool{
	"userId":           true,
	"currentRank":      true,
	"points":           true,
	"balance":          true,
	"totems":           true,
	"counterExpiresAt": true,
	"isSuspended":      true,
	"suspendedAt":      true,
	"lastTotemUsedAt":  true,
	"adViews":          true,
	"adViewsToday":     true,
	"adViewsDate":      true,
	"history":          true,
	"notifications":    true,
	"createdAt":        true,
}

type accountAlias Account

// UnmarshalJSON decodes the typed fields and collects every unknown key
// into Extra so that partial updates never drop it.
func (a *Account) UnmarshalJSON(data []byte) error {
	var alias accountAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Account(alias)
	for key, val := range raw {
		if accountKeys[key] {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[key] = val
	}
	return nil
}

// MarshalJSON emits the typed fields plus every Extra key. Typed fields
// win on a key collision.
func (a Account) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(accountAlias(a))
	if err != nil {
		return nil, err
	}

	if len(a.Extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, val := range a.Extra {
		if _, owned := merged[key]; !owned {
			merged[key] = val
		}
	}
	return json.Marshal(merged)
}
