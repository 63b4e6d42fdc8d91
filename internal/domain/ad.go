package domain

import (
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"
)

// Ad is an advertiser-side inventory entry. Its visit budget is a
// separate economy from the viewer's point claims: each served visit is
// drawn from the monthly rank allotment first, then from the purchased
// package pool.
type Ad struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	OwnerRank        rank.ID   `json:"owner_rank"`
	Title            string    `json:"title"`
	TargetURL        string    `json:"target_url"`
	MonthlyRemaining int       `json:"monthly_remaining"`
	PackagePool      int       `json:"package_pool"`
	CreatedAt        time.Time `json:"created_at"`
}

// VisitsLeft returns the total remaining visit budget.
func (a *Ad) VisitsLeft() int {
	return a.MonthlyRemaining + a.PackagePool
}
