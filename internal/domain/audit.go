package domain

import "time"

// AuditLog represents an audit log entry for tracking important account
// state transitions.
type AuditLog struct {
	ID        int64          `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Action    string         `db:"action" json:"action"`
	Category  string         `db:"category" json:"category"`
	Details   map[string]any `db:"details" json:"details"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Audit categories
const (
	AuditCategoryRank    = "rank"
	AuditCategoryCounter = "counter"
	AuditCategoryEconomy = "economy"
	AuditCategoryPenalty = "penalty"
)

// Audit actions
const (
	// Rank actions
	AuditActionUpgrade = "rank_upgrade"

	// Counter actions
	AuditActionTotemUsed      = "totem_used"
	AuditActionSuspension     = "suspension"
	AuditActionCounterRefresh = "counter_refresh"

	// Economy actions
	AuditActionTotemPurchase = "totem_purchase"
	AuditActionAdClaim       = "ad_claim"
	AuditActionAdVisit       = "ad_visit"
	AuditActionAdCreate      = "ad_create"
	AuditActionAdPackage     = "ad_package"
	AuditActionDeposit       = "deposit"

	// Penalty actions
	AuditActionReactivation = "reactivation"
)
