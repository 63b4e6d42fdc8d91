package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one JSONB record per user in the accounts table.
// Merge-writes use the jsonb || operator, whole-record mutations take a
// row lock (SELECT ... FOR UPDATE), and the totem-consumption step is a
// conditional UPDATE ... WHERE whose row count decides the branch, so
// the serialization the MemoryStore gets from its mutex comes from the
// database here.
type PostgresStore struct {
	db          *pgxpool.Pool
	seedBalance float64
}

func NewPostgresStore(db *pgxpool.Pool, seedBalance float64) *PostgresStore {
	return &PostgresStore{db: db, seedBalance: seedBalance}
}

func (s *PostgresStore) defaultRaw(userID string) []byte {
	enc, _ := json.Marshal(domain.NewAccount(userID, s.seedBalance, time.Now()))
	return enc
}

func (s *PostgresStore) decode(userID string, raw []byte) *domain.Account {
	var acct domain.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		logger.Warn("malformed ledger record, using defaults", "user_id", userID, "error", err)
		return domain.NewAccount(userID, s.seedBalance, time.Now())
	}
	acct.UserID = userID
	return &acct
}

func (s *PostgresStore) Read(ctx context.Context, userID string) (*domain.Account, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`INSERT INTO accounts (user_id, record)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET record = accounts.record
		 RETURNING record`,
		userID, s.defaultRaw(userID),
	).Scan(&raw)
	if err != nil {
		return nil, err
	}
	return s.decode(userID, raw), nil
}

func (s *PostgresStore) WriteMerge(ctx context.Context, userID string, patch Patch) (*domain.Account, error) {
	patchRaw, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}

	// a record that is valid jsonb but not an object counts as no data
	var raw []byte
	err = s.db.QueryRow(ctx,
		`INSERT INTO accounts (user_id, record)
		 VALUES ($1, $2::jsonb || $3::jsonb)
		 ON CONFLICT (user_id) DO UPDATE SET record =
			(CASE WHEN jsonb_typeof(accounts.record) = 'object'
			      THEN accounts.record ELSE '{}'::jsonb END) || $3::jsonb
		 RETURNING record`,
		userID, s.defaultRaw(userID), patchRaw,
	).Scan(&raw)
	if err != nil {
		return nil, err
	}
	return s.decode(userID, raw), nil
}

func (s *PostgresStore) ReadField(ctx context.Context, userID, name string, out any) (bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT record -> $2 FROM accounts WHERE user_id = $1`,
		userID, name,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) WriteField(ctx context.Context, userID, name string, value any) error {
	_, err := s.WriteMerge(ctx, userID, Patch{name: value})
	return err
}

func (s *PostgresStore) IncrementField(ctx context.Context, userID, name string, delta int64) (int64, error) {
	if err := s.ensure(ctx, userID); err != nil {
		return 0, err
	}

	var next int64
	err := s.db.QueryRow(ctx,
		`UPDATE accounts
		 SET record = jsonb_set(
			CASE WHEN jsonb_typeof(record) = 'object' THEN record ELSE '{}'::jsonb END,
			ARRAY[$2::text],
			to_jsonb(COALESCE((record ->> $2)::bigint, 0) + $3))
		 WHERE user_id = $1
		 RETURNING (record ->> $2)::bigint`,
		userID, name, delta,
	).Scan(&next)
	return next, err
}

func (s *PostgresStore) Mutate(ctx context.Context, userID string, fn func(*domain.Account) error) (*domain.Account, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (user_id, record) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, s.defaultRaw(userID),
	); err != nil {
		return nil, err
	}

	var raw []byte
	if err := tx.QueryRow(ctx,
		`SELECT record FROM accounts WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&raw); err != nil {
		return nil, err
	}

	acct := s.decode(userID, raw)
	if err := fn(acct); err != nil {
		// rollback: validation failures never partially mutate
		return nil, err
	}

	enc, err := json.Marshal(acct)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET record = $2 WHERE user_id = $1`,
		userID, enc,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *PostgresStore) ConsumeTotem(ctx context.Context, userID string, now time.Time, floor int, ceiling time.Duration) (*ConsumeResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (user_id, record) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, s.defaultRaw(userID),
	); err != nil {
		return nil, err
	}

	// raise totems to the rank floor for an expired, unsuspended counter
	if _, err := tx.Exec(ctx,
		`UPDATE accounts
		 SET record = jsonb_set(record, '{totems}',
			to_jsonb(GREATEST(COALESCE((record ->> 'totems')::int, 0), $2)))
		 WHERE user_id = $1
		   AND NOT COALESCE((record ->> 'isSuspended')::boolean, false)
		   AND (record ->> 'counterExpiresAt') IS NOT NULL
		   AND (record ->> 'counterExpiresAt')::timestamptz <= $3`,
		userID, floor, now,
	); err != nil {
		return nil, err
	}

	// consume exactly one totem, conditioned on totems > 0 and the
	// counter still being expired at the moment of the update
	newExpiry := now.Add(ceiling)
	ct, err := tx.Exec(ctx,
		`UPDATE accounts
		 SET record = record || jsonb_build_object(
			'totems', COALESCE((record ->> 'totems')::int, 0) - 1,
			'counterExpiresAt', to_jsonb($2::timestamptz),
			'lastTotemUsedAt', to_jsonb($3::timestamptz))
		 WHERE user_id = $1
		   AND COALESCE((record ->> 'totems')::int, 0) > 0
		   AND NOT COALESCE((record ->> 'isSuspended')::boolean, false)
		   AND (record ->> 'counterExpiresAt') IS NOT NULL
		   AND (record ->> 'counterExpiresAt')::timestamptz <= $3`,
		userID, newExpiry, now,
	)
	if err != nil {
		return nil, err
	}

	outcome := OutcomeTotemUsed
	if ct.RowsAffected() == 0 {
		// no totem available: suspend, still conditioned on expiry
		st, err := tx.Exec(ctx,
			`UPDATE accounts
			 SET record = record || jsonb_build_object(
				'isSuspended', true,
				'suspendedAt', to_jsonb($2::timestamptz))
			 WHERE user_id = $1
			   AND COALESCE((record ->> 'totems')::int, 0) <= 0
			   AND NOT COALESCE((record ->> 'isSuspended')::boolean, false)
			   AND (record ->> 'counterExpiresAt') IS NOT NULL
			   AND (record ->> 'counterExpiresAt')::timestamptz <= $2`,
			userID, now,
		)
		if err != nil {
			return nil, err
		}
		if st.RowsAffected() == 1 {
			outcome = OutcomeSuspended
		} else {
			outcome = ""
		}
	}

	var raw []byte
	if err := tx.QueryRow(ctx,
		`SELECT record FROM accounts WHERE user_id = $1`, userID,
	).Scan(&raw); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	acct := s.decode(userID, raw)
	if outcome == "" {
		// neither branch matched: a concurrent call handled the expiry
		if acct.IsSuspended {
			outcome = OutcomeAlreadySuspended
		} else {
			outcome = OutcomeActive
		}
	}
	return &ConsumeResult{Outcome: outcome, Account: acct}, nil
}

func (s *PostgresStore) ensure(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO accounts (user_id, record) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, s.defaultRaw(userID),
	)
	return err
}
