package receiving

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// DefaultDuplicateWindow is the time window within which a second receipt
// for the same order is treated as an accidental resubmission
const DefaultDuplicateWindow = 5 * time.Minute

// DuplicateReceiptPolicy decides whether a receipt submission is a duplicate.
// Implementations are swappable: the time-window heuristic catches rapid
// double-submission, the idempotency-key policy gives exact replay detection
// when callers supply a key. The policy is best-effort and does not replace
// transactional concurrency control.
type DuplicateReceiptPolicy interface {
	// Check returns shared.ErrDuplicateReceipt (as a DomainError with code
	// DUPLICATE_RECEIPT) when the submission is judged a duplicate
	Check(ctx context.Context, orderID uuid.UUID, idempotencyKey string) error

	// Release returns whatever Check consumed for the submission, so a retry
	// after a failed commit is not rejected as a duplicate
	Release(ctx context.Context, orderID uuid.UUID, idempotencyKey string) error
}

// TimeWindowPolicy rejects a submission when a receiving record for the same
// order exists within the window. A wall-clock heuristic: it can reject a
// legitimate rapid resubmission and miss a duplicate submitted after the
// window.
type TimeWindowPolicy struct {
	records ReceivingRecordRepository
	window  time.Duration
	now     func() time.Time
}

// NewTimeWindowPolicy creates a time-window duplicate policy
func NewTimeWindowPolicy(records ReceivingRecordRepository, window time.Duration) *TimeWindowPolicy {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &TimeWindowPolicy{
		records: records,
		window:  window,
		now:     time.Now,
	}
}

// WithClock overrides the clock, for tests
func (p *TimeWindowPolicy) WithClock(now func() time.Time) *TimeWindowPolicy {
	p.now = now
	return p
}

// Check implements DuplicateReceiptPolicy
func (p *TimeWindowPolicy) Check(ctx context.Context, orderID uuid.UUID, _ string) error {
	records, err := p.records.ListByOrder(ctx, orderID)
	if err != nil {
		return shared.NewDomainError(shared.CodeSystemError, "Failed to load receiving history: "+err.Error())
	}

	cutoff := p.now().Add(-p.window)
	for _, record := range records {
		if record.ReceivedAt.After(cutoff) {
			return shared.ErrDuplicateReceipt
		}
	}
	return nil
}

// Release implements DuplicateReceiptPolicy. The time-window check consumes
// nothing, so there is nothing to return.
func (p *TimeWindowPolicy) Release(context.Context, uuid.UUID, string) error {
	return nil
}

// IdempotencyKeyPolicy rejects a submission whose client-supplied key has
// already been processed. Submissions without a key are never judged
// duplicates by this policy.
type IdempotencyKeyPolicy struct {
	store shared.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyKeyPolicy creates an idempotency-key duplicate policy
func NewIdempotencyKeyPolicy(store shared.IdempotencyStore, ttl time.Duration) *IdempotencyKeyPolicy {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyKeyPolicy{store: store, ttl: ttl}
}

// Check implements DuplicateReceiptPolicy. Marking and checking happen in one
// operation so two concurrent submissions with the same key cannot both pass.
func (p *IdempotencyKeyPolicy) Check(ctx context.Context, orderID uuid.UUID, idempotencyKey string) error {
	if idempotencyKey == "" {
		return nil
	}

	fresh, err := p.store.MarkProcessed(ctx, storeKey(orderID, idempotencyKey), p.ttl)
	if err != nil {
		return shared.NewDomainError(shared.CodeSystemError, "Failed to check idempotency key: "+err.Error())
	}
	if !fresh {
		return shared.ErrDuplicateReceipt
	}
	return nil
}

// Release implements DuplicateReceiptPolicy. Forgetting the key lets the next
// submission with it pass Check again; without this a failed commit would
// burn the key and the legitimate retry would be rejected as a duplicate.
func (p *IdempotencyKeyPolicy) Release(ctx context.Context, orderID uuid.UUID, idempotencyKey string) error {
	if idempotencyKey == "" {
		return nil
	}
	if err := p.store.Forget(ctx, storeKey(orderID, idempotencyKey)); err != nil {
		return shared.NewDomainError(shared.CodeSystemError, "Failed to release idempotency key: "+err.Error())
	}
	return nil
}

func storeKey(orderID uuid.UUID, idempotencyKey string) string {
	return "receipt:" + orderID.String() + ":" + idempotencyKey
}
