package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
)

// Patch is a shallow set of record fields to merge over the stored
// record. Keys not present in the patch are preserved verbatim.
type Patch map[string]any

// Outcome tags the result of the conditional totem-consumption step.
type Outcome string

const (
	// OutcomeActive: the counter was not expired at the moment of the
	// conditional update (e.g. a concurrent heartbeat already reset it).
	OutcomeActive Outcome = "active"
	// OutcomeTotemUsed: exactly one totem was consumed and the counter
	// was reset to the given ceiling.
	OutcomeTotemUsed Outcome = "totem_used"
	// OutcomeSuspended: no totem was available, the account was
	// suspended by this call.
	OutcomeSuspended Outcome = "suspended"
	// OutcomeAlreadySuspended: the account was suspended before this
	// call. No mutation happened.
	OutcomeAlreadySuspended Outcome = "already_suspended"
)

// ConsumeResult is the outcome of ConsumeTotem plus the post-state.
type ConsumeResult struct {
	Outcome Outcome
	Account *domain.Account
}

// Store is the serialized record store for per-user economic state.
// Every mutating operation is a single atomic read-modify-write: two
// competing operations on the same user never interleave inside it.
// Reads outside a mutating call may observe slightly stale data, so all
// state-changing decisions must re-validate inside Mutate or
// ConsumeTotem.
type Store interface {
	// Read returns the current record, synthesizing the default record
	// when no (parseable) data exists. Never fails on malformed storage.
	Read(ctx context.Context, userID string) (*domain.Account, error)

	// WriteMerge atomically merges patch over the stored record and
	// returns the merged result. Unspecified keys survive verbatim.
	WriteMerge(ctx context.Context, userID string, patch Patch) (*domain.Account, error)

	// ReadField decodes a single record field into out. ok is false when
	// the field is absent, leaving out untouched (caller keeps its
	// default).
	ReadField(ctx context.Context, userID, name string, out any) (ok bool, err error)

	// WriteField is sugar for WriteMerge with a single key.
	WriteField(ctx context.Context, userID, name string, value any) error

	// IncrementField atomically adds delta (may be negative) to a
	// numeric field, defaulting to 0, and returns the new value.
	IncrementField(ctx context.Context, userID, name string, delta int64) (int64, error)

	// Mutate runs fn on the current record inside the critical section
	// and persists the result. If fn returns an error the record is left
	// byte-for-byte unchanged and the error is returned.
	Mutate(ctx context.Context, userID string, fn func(*domain.Account) error) (*domain.Account, error)

	// ConsumeTotem is the single-step expiry handler: for an expired,
	// unsuspended counter it raises totems to floor (never lowering
	// them), then either consumes exactly one totem and resets the
	// counter to now+ceiling, or, with no totems left, suspends the
	// account. The conditional branch is atomic against the storage so
	// two concurrent calls can never both consume for one expiry event.
	ConsumeTotem(ctx context.Context, userID string, now time.Time, floor int, ceiling time.Duration) (*ConsumeResult, error)
}

// mergeRaw shallow-merges patch over a raw JSON record. A record that
// does not parse as an object counts as absent data.
func mergeRaw(existing []byte, patch Patch) ([]byte, error) {
	merged := make(map[string]json.RawMessage)
	if len(existing) > 0 {
		// parse failures are treated as "no data", not as fatal errors
		if err := json.Unmarshal(existing, &merged); err != nil {
			merged = make(map[string]json.RawMessage)
		}
	}

	for key, val := range patch {
		enc, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		merged[key] = enc
	}
	return json.Marshal(merged)
}
