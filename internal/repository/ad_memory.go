package repository

import (
	"context"
	"sync"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
)

// MemoryAdInventory is the in-process ad inventory, used when no
// database is configured and by tests. One mutex guards all budgets.
type MemoryAdInventory struct {
	mu  sync.Mutex
	ads map[string]*domain.Ad
}

func NewMemoryAdInventory() *MemoryAdInventory {
	return &MemoryAdInventory{ads: make(map[string]*domain.Ad)}
}

func (m *MemoryAdInventory) Create(ctx context.Context, ad *domain.Ad) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = time.Now()
	}
	copied := *ad
	m.ads[ad.ID] = &copied
	return nil
}

func (m *MemoryAdInventory) Get(ctx context.Context, adID string) (*domain.Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[adID]
	if !ok {
		return nil, ErrAdNotFound
	}
	copied := *ad
	return &copied, nil
}

func (m *MemoryAdInventory) List(ctx context.Context) ([]*domain.Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ads := make([]*domain.Ad, 0, len(m.ads))
	for _, ad := range m.ads {
		copied := *ad
		ads = append(ads, &copied)
	}
	return ads, nil
}

func (m *MemoryAdInventory) ConsumeVisit(ctx context.Context, adID string) (*domain.Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[adID]
	if !ok {
		return nil, ErrAdNotFound
	}

	// monthly allotment first, then the purchased pool
	switch {
	case ad.MonthlyRemaining > 0:
		ad.MonthlyRemaining--
	case ad.PackagePool > 0:
		ad.PackagePool--
	default:
		return nil, ErrAdBudgetExhausted
	}

	copied := *ad
	return &copied, nil
}

func (m *MemoryAdInventory) AddPackage(ctx context.Context, adID string, visits int) (*domain.Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[adID]
	if !ok {
		return nil, ErrAdNotFound
	}
	ad.PackagePool += visits
	copied := *ad
	return &copied, nil
}
