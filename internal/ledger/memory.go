package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/logger"
)

// MemoryStore holds one raw JSON record per user behind a single mutex.
// The mutex is the process-wide serialization lock: every mutating
// operation holds it across its whole read-modify-write sequence, so
// competing operations queue instead of losing updates. Used when no
// database is configured, and by tests.
type MemoryStore struct {
	mu          sync.Mutex
	records     map[string][]byte
	seedBalance float64
}

// NewMemoryStore creates an empty in-memory store. seedBalance is the
// starting balance of synthesized default records.
func NewMemoryStore(seedBalance float64) *MemoryStore {
	return &MemoryStore{
		records:     make(map[string][]byte),
		seedBalance: seedBalance,
	}
}

func (s *MemoryStore) lock()   { s.mu.Lock() }
func (s *MemoryStore) unlock() { s.mu.Unlock() }

// SeedRaw installs raw record bytes for a user, bypassing the merge
// path. Test hook for simulating pre-existing or corrupted storage.
func (s *MemoryStore) SeedRaw(userID string, raw []byte) {
	s.lock()
	defer s.unlock()
	s.records[userID] = append([]byte(nil), raw...)
}

// decode parses raw record bytes, falling back to the synthesized
// default record when the bytes are absent or malformed.
func (s *MemoryStore) decode(userID string, raw []byte) *domain.Account {
	if len(raw) == 0 {
		return domain.NewAccount(userID, s.seedBalance, time.Now())
	}
	var acct domain.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		logger.Warn("malformed ledger record, using defaults", "user_id", userID, "error", err)
		return domain.NewAccount(userID, s.seedBalance, time.Now())
	}
	acct.UserID = userID
	return &acct
}

// loadLocked returns the materialized record bytes for a user, creating
// and persisting the default record on first access. Caller holds the
// lock.
func (s *MemoryStore) loadLocked(userID string) []byte {
	raw, ok := s.records[userID]
	if ok && json.Valid(raw) {
		var probe map[string]json.RawMessage
		if json.Unmarshal(raw, &probe) == nil {
			return raw
		}
	}
	acct := s.decode(userID, nil)
	enc, _ := json.Marshal(acct)
	s.records[userID] = enc
	return enc
}

func (s *MemoryStore) Read(ctx context.Context, userID string) (*domain.Account, error) {
	s.lock()
	defer s.unlock()
	return s.decode(userID, s.loadLocked(userID)), nil
}

func (s *MemoryStore) WriteMerge(ctx context.Context, userID string, patch Patch) (*domain.Account, error) {
	s.lock()
	defer s.unlock()

	merged, err := mergeRaw(s.loadLocked(userID), patch)
	if err != nil {
		return nil, err
	}
	s.records[userID] = merged
	return s.decode(userID, merged), nil
}

func (s *MemoryStore) ReadField(ctx context.Context, userID, name string, out any) (bool, error) {
	s.lock()
	defer s.unlock()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(s.loadLocked(userID), &fields); err != nil {
		return false, nil
	}
	raw, ok := fields[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) WriteField(ctx context.Context, userID, name string, value any) error {
	_, err := s.WriteMerge(ctx, userID, Patch{name: value})
	return err
}

func (s *MemoryStore) IncrementField(ctx context.Context, userID, name string, delta int64) (int64, error) {
	s.lock()
	defer s.unlock()

	raw := s.loadLocked(userID)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		fields = make(map[string]json.RawMessage)
	}

	var current int64
	if enc, ok := fields[name]; ok {
		_ = json.Unmarshal(enc, &current)
	}

	next := current + delta
	merged, err := mergeRaw(raw, Patch{name: next})
	if err != nil {
		return 0, err
	}
	s.records[userID] = merged
	return next, nil
}

func (s *MemoryStore) Mutate(ctx context.Context, userID string, fn func(*domain.Account) error) (*domain.Account, error) {
	s.lock()
	defer s.unlock()

	raw := s.loadLocked(userID)
	acct := s.decode(userID, raw)
	if err := fn(acct); err != nil {
		return nil, err
	}

	enc, err := json.Marshal(acct)
	if err != nil {
		return nil, err
	}
	s.records[userID] = enc
	return acct, nil
}

func (s *MemoryStore) ConsumeTotem(ctx context.Context, userID string, now time.Time, floor int, ceiling time.Duration) (*ConsumeResult, error) {
	s.lock()
	defer s.unlock()

	acct := s.decode(userID, s.loadLocked(userID))

	if acct.IsSuspended {
		return &ConsumeResult{Outcome: OutcomeAlreadySuspended, Account: acct}, nil
	}
	if !acct.Expired(now) {
		return &ConsumeResult{Outcome: OutcomeActive, Account: acct}, nil
	}

	// rank floor raises totems, never lowers them
	if acct.Totems < floor {
		acct.Totems = floor
	}

	var outcome Outcome
	if acct.Totems > 0 {
		acct.Totems--
		expires := now.Add(ceiling)
		acct.CounterExpiresAt = &expires
		used := now
		acct.LastTotemUsedAt = &used
		outcome = OutcomeTotemUsed
	} else {
		acct.IsSuspended = true
		suspended := now
		acct.SuspendedAt = &suspended
		outcome = OutcomeSuspended
	}

	enc, err := json.Marshal(acct)
	if err != nil {
		return nil, err
	}
	s.records[userID] = enc
	return &ConsumeResult{Outcome: outcome, Account: acct}, nil
}
