package repository

import (
	"context"
	"errors"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAdNotFound        = errors.New("ad_not_found")
	ErrAdBudgetExhausted = errors.New("ad_budget_exhausted")
)

// AdRepository stores advertiser ad inventory in postgres.
type AdRepository struct {
	db *pgxpool.Pool
}

func NewAdRepository(db *pgxpool.Pool) *AdRepository {
	return &AdRepository{db: db}
}

func (r *AdRepository) Create(ctx context.Context, ad *domain.Ad) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO ads (id, owner_id, owner_rank, title, target_url, monthly_remaining, package_pool)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		ad.ID, ad.OwnerID, ad.OwnerRank, ad.Title, ad.TargetURL,
		ad.MonthlyRemaining, ad.PackagePool,
	).Scan(&ad.CreatedAt)
}

func (r *AdRepository) Get(ctx context.Context, adID string) (*domain.Ad, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, owner_id, owner_rank, title, target_url, monthly_remaining, package_pool, created_at
		 FROM ads
		 WHERE id = $1`,
		adID,
	)

	var ad domain.Ad
	if err := row.Scan(
		&ad.ID, &ad.OwnerID, &ad.OwnerRank, &ad.Title, &ad.TargetURL,
		&ad.MonthlyRemaining, &ad.PackagePool, &ad.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepository) List(ctx context.Context) ([]*domain.Ad, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, owner_rank, title, target_url, monthly_remaining, package_pool, created_at
		 FROM ads
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []*domain.Ad
	for rows.Next() {
		var ad domain.Ad
		if err := rows.Scan(
			&ad.ID, &ad.OwnerID, &ad.OwnerRank, &ad.Title, &ad.TargetURL,
			&ad.MonthlyRemaining, &ad.PackagePool, &ad.CreatedAt,
		); err != nil {
			return nil, err
		}
		ads = append(ads, &ad)
	}
	return ads, rows.Err()
}

// ConsumeVisit decrements one visit, monthly allotment first, then the
// package pool. The WHERE clause is the budget check: zero rows
// affected means both budgets were already empty.
func (r *AdRepository) ConsumeVisit(ctx context.Context, adID string) (*domain.Ad, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE ads
		 SET monthly_remaining = CASE WHEN monthly_remaining > 0
			THEN monthly_remaining - 1 ELSE monthly_remaining END,
		     package_pool = CASE WHEN monthly_remaining > 0
			THEN package_pool ELSE package_pool - 1 END
		 WHERE id = $1 AND (monthly_remaining > 0 OR package_pool > 0)
		 RETURNING id, owner_id, owner_rank, title, target_url, monthly_remaining, package_pool, created_at`,
		adID,
	)

	var ad domain.Ad
	err := row.Scan(
		&ad.ID, &ad.OwnerID, &ad.OwnerRank, &ad.Title, &ad.TargetURL,
		&ad.MonthlyRemaining, &ad.PackagePool, &ad.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// exhausted or missing, check which
		var exists bool
		_ = r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ads WHERE id = $1)`, adID).Scan(&exists)
		if !exists {
			return nil, ErrAdNotFound
		}
		return nil, ErrAdBudgetExhausted
	}
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepository) AddPackage(ctx context.Context, adID string, visits int) (*domain.Ad, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE ads
		 SET package_pool = package_pool + $2
		 WHERE id = $1
		 RETURNING id, owner_id, owner_rank, title, target_url, monthly_remaining, package_pool, created_at`,
		adID, visits,
	)

	var ad domain.Ad
	err := row.Scan(
		&ad.ID, &ad.OwnerID, &ad.OwnerRank, &ad.Title, &ad.TargetURL,
		&ad.MonthlyRemaining, &ad.PackagePool, &ad.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

// ResetMonthly restores every ad's monthly allotment. Run at month
// rollover by a cron-style caller.
func (r *AdRepository) ResetMonthly(ctx context.Context, allotments map[string]int) error {
	for rankID, visits := range allotments {
		if _, err := r.db.Exec(ctx,
			`UPDATE ads SET monthly_remaining = $2 WHERE owner_rank = $1`,
			rankID, visits,
		); err != nil {
			return err
		}
	}
	return nil
}
