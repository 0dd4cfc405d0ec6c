// Package credits reconciles photo credit balances with moderation outcomes.
// A rejected paid entry returns its credit to the submitter; a rejection that
// is later overturned reclaims it. The entry's credit flag guarantees each
// entry moves the balance at most once in each direction.
package credits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkallio/photoguard-go/internal/datastore"
	"github.com/pkallio/photoguard-go/internal/logging"
	"github.com/pkallio/photoguard-go/internal/moderation"
	"github.com/pkallio/photoguard-go/internal/observability/metrics"
)

// Direction classifies a status transition by its credit effect.
type Direction string

const (
	// DirectionNone means the transition has no credit effect.
	DirectionNone Direction = "none"
	// DirectionToRejected means the entry became rejected and may earn a
	// credit back.
	DirectionToRejected Direction = "to_rejected"
	// DirectionToApproved means the entry became approved; a credit
	// previously returned for it may be reclaimed.
	DirectionToApproved Direction = "to_approved"
)

// Action is the concrete effect a reconciliation had on the balance.
type Action string

const (
	ActionNone               Action = "none"
	ActionAwarded            Action = "awarded"
	ActionRevoked            Action = "revoked"
	ActionSkippedZeroBalance Action = "skipped_zero_balance"
)

// DirectionFor derives the credit direction of a moderation status change.
// Only the target status matters: entering rejected may award a credit,
// entering approved may reclaim one, every other transition is neutral. A
// rejected entry sent back to the review queue keeps its returned credit
// until an approval actually lands.
func DirectionFor(oldStatus, newStatus moderation.Status) Direction {
	if oldStatus == newStatus {
		return DirectionNone
	}
	switch newStatus {
	case moderation.StatusRejected:
		return DirectionToRejected
	case moderation.StatusApproved:
		return DirectionToApproved
	default:
		return DirectionNone
	}
}

// Result describes the outcome of a reconciliation pass.
type Result struct {
	Action    Action
	Direction Direction
	UserID    uint
	EntryID   uint
	// Balance is the owner's credit balance after the mutation. It is only
	// meaningful when Action is ActionAwarded or ActionRevoked.
	Balance int
}

// Notifier delivers credit event notifications. Implemented by the
// notification service; callers invoke it after the transaction commits.
type Notifier interface {
	SendCreditAwarded(ctx context.Context, userID, entryID uint, balance int)
}

// Reconciler applies credit mutations for moderation status transitions.
type Reconciler struct {
	metrics  *metrics.CreditMetrics
	notifier Notifier
	log      *slog.Logger

	// now is swappable in tests for deterministic ledger timestamps.
	now func() time.Time
}

// NewReconciler builds a reconciler. Both metrics and notifier may be nil.
func NewReconciler(m *metrics.CreditMetrics, notifier Notifier) *Reconciler {
	return &Reconciler{
		metrics:  m,
		notifier: notifier,
		log:      logging.ForService("credits"),
		now:      time.Now,
	}
}

// Apply reconciles the owner's balance with the given transition direction.
// It runs inside the caller's transaction: the user row is saved through tx,
// and entry.CreditGiven is mutated in place for the caller to persist along
// with the status change. Apply never sends notifications; call Notify after
// the transaction commits.
//
// Rules:
//   - to_rejected, payment completed, credit not yet given: +1 credit.
//   - to_approved, credit given: -1 credit, unless the balance is already
//     zero, in which case the reclaim is skipped and recorded as an
//     inconsistency. The balance never goes negative.
//   - anything else: no-op.
func (r *Reconciler) Apply(tx *datastore.DataStore, entry *datastore.Entry, direction Direction) (Result, error) {
	res := Result{
		Action:    ActionNone,
		Direction: direction,
		UserID:    entry.OwnerID,
		EntryID:   entry.ID,
	}

	switch direction {
	case DirectionToRejected:
		if entry.PaymentStatus != datastore.PaymentCompleted || entry.CreditGiven {
			r.recordNoop()
			return res, nil
		}
	case DirectionToApproved:
		if !entry.CreditGiven {
			r.recordNoop()
			return res, nil
		}
	default:
		r.recordNoop()
		return res, nil
	}

	user, err := tx.GetUser(entry.OwnerID)
	if err != nil {
		return res, err
	}

	switch direction {
	case DirectionToRejected:
		user.PhotoCredits++
		user.AppendCreditNote(r.now(), fmt.Sprintf("+1 credit returned for rejected entry #%d", entry.ID))
		entry.CreditGiven = true
		res.Action = ActionAwarded

	case DirectionToApproved:
		if user.PhotoCredits == 0 {
			// Reclaiming would drive the balance negative, which means the
			// credit was already spent. Leave the flag set and flag the
			// inconsistency for operators instead of mutating the balance.
			r.log.Warn("credit reclaim skipped, balance already zero",
				"user_id", user.ID, "entry_id", entry.ID)
			user.AppendCreditNote(r.now(), fmt.Sprintf("credit reclaim for entry #%d skipped, balance already zero", entry.ID))
			if r.metrics != nil {
				r.metrics.RecordInconsistency()
			}
			res.Action = ActionSkippedZeroBalance
			if err := tx.SaveUser(user); err != nil {
				return res, err
			}
			return res, nil
		}
		user.PhotoCredits--
		user.AppendCreditNote(r.now(), fmt.Sprintf("-1 credit reclaimed for overturned entry #%d", entry.ID))
		entry.CreditGiven = false
		res.Action = ActionRevoked
	}

	if err := tx.SaveUser(user); err != nil {
		return res, err
	}

	res.Balance = user.PhotoCredits
	if r.metrics != nil {
		r.metrics.RecordMutation(string(direction))
	}
	r.log.Info("credit balance mutated",
		"user_id", user.ID, "entry_id", entry.ID,
		"action", string(res.Action), "balance", user.PhotoCredits)
	return res, nil
}

// Notify delivers the submitter-facing notification for an awarded credit.
// Call it after the surrounding transaction has committed so the submitter is
// never told about a mutation that rolled back.
func (r *Reconciler) Notify(ctx context.Context, res Result) {
	if r.notifier == nil || res.Action != ActionAwarded {
		return
	}
	r.notifier.SendCreditAwarded(ctx, res.UserID, res.EntryID, res.Balance)
}

func (r *Reconciler) recordNoop() {
	if r.metrics != nil {
		r.metrics.RecordNoop()
	}
}
