// Package review owns the entry lifecycle around moderation decisions:
// initial submission analysis, manual moderator overrides, and reanalysis.
// Every status change goes through here so credit reconciliation and the
// audit trail cannot be bypassed.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkallio/photoguard-go/internal/credits"
	"github.com/pkallio/photoguard-go/internal/datastore"
	"github.com/pkallio/photoguard-go/internal/errors"
	"github.com/pkallio/photoguard-go/internal/logging"
	"github.com/pkallio/photoguard-go/internal/moderation"
	"github.com/pkallio/photoguard-go/internal/observability/metrics"
)

// autoModerator is the moderator identity recorded for pipeline decisions.
const autoModerator = "auto"

// ImageStore persists original image bytes per entry so decisions can be
// recomputed later by reanalysis.
type ImageStore interface {
	Save(ctx context.Context, entry *datastore.Entry, data []byte) error
	Load(ctx context.Context, entry *datastore.Entry) ([]byte, error)
}

// Submission is an incoming contest entry.
type Submission struct {
	OwnerID       uint
	Filename      string
	MimeType      string
	Data          []byte
	PaymentStatus datastore.PaymentStatus
}

// ActionResult reports what a lifecycle operation did.
type ActionResult struct {
	Entry          *datastore.Entry
	Decision       *moderation.Decision // set for submit and reanalyze
	PreviousStatus moderation.Status
	CreditAction   credits.Action
	NoOp           bool
}

// Service coordinates moderation decisions, persistence, credit
// reconciliation and audit records for contest entries.
type Service struct {
	store        datastore.Interface
	orchestrator *moderation.Orchestrator
	reconciler   *credits.Reconciler
	locks        *credits.EntryLocker
	metrics      *metrics.ModerationMetrics // may be nil
	images       ImageStore                 // may be nil, disables reanalysis
	log          *slog.Logger

	now func() time.Time
}

// NewService builds the review service.
func NewService(store datastore.Interface, orchestrator *moderation.Orchestrator,
	reconciler *credits.Reconciler, images ImageStore, m *metrics.ModerationMetrics) *Service {
	return &Service{
		store:        store,
		orchestrator: orchestrator,
		reconciler:   reconciler,
		locks:        credits.NewEntryLocker(),
		metrics:      m,
		images:       images,
		log:          logging.ForService("review"),
		now:          time.Now,
	}
}

// Submit persists a new entry, runs the moderation pipeline on it and applies
// the resulting decision, reconciling credits when the decision is a
// rejection.
func (s *Service) Submit(ctx context.Context, sub Submission) (*ActionResult, error) {
	entry := &datastore.Entry{
		OwnerID:          sub.OwnerID,
		Filename:         sub.Filename,
		FileSize:         int64(len(sub.Data)),
		MimeType:         sub.MimeType,
		ModerationStatus: moderation.StatusPending,
		PaymentStatus:    sub.PaymentStatus,
		Metadata:         datastore.EntryMetadata{},
	}
	if err := s.store.Transaction(func(tx *datastore.DataStore) error {
		return tx.SaveEntry(entry)
	}); err != nil {
		return nil, err
	}

	if s.images != nil {
		if err := s.images.Save(ctx, entry, sub.Data); err != nil {
			return nil, errors.Newf("storing image for entry %d: %v", entry.ID, err).
				Component("review").
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	decision := s.orchestrator.Analyze(ctx, moderation.ImageInput{
		Data:      sub.Data,
		MimeType:  sub.MimeType,
		SizeBytes: entry.FileSize,
		Filename:  sub.Filename,
	})

	return s.applyDecision(ctx, entry.ID, decision, autoModerator)
}

// Approve is a manual override moving an entry to approved. A previously
// rejected entry has its returned credit reclaimed.
func (s *Service) Approve(ctx context.Context, entryID uint, moderator, reason string) (*ActionResult, error) {
	return s.override(ctx, entryID, moderation.StatusApproved, moderator, reason, "")
}

// Reject is a manual override moving an entry to rejected. It requires a
// reason and a valid category, and returns the entry's credit if the payment
// completed.
func (s *Service) Reject(ctx context.Context, entryID uint, moderator, reason, category string) (*ActionResult, error) {
	if reason == "" {
		return nil, errors.Newf("rejection requires a reason").
			Component("review").
			Category(errors.CategoryValidation).
			Build()
	}
	if _, err := moderation.ParseCategory(category); err != nil {
		return nil, errors.Newf("rejection requires a valid category: %v", err).
			Component("review").
			Category(errors.CategoryValidation).
			Build()
	}
	return s.override(ctx, entryID, moderation.StatusRejected, moderator, reason, category)
}

// SetPending is a manual override returning an entry to the review queue.
func (s *Service) SetPending(ctx context.Context, entryID uint, moderator, reason string) (*ActionResult, error) {
	return s.override(ctx, entryID, moderation.StatusPendingReview, moderator, reason, "")
}

// override applies a validated manual status change inside a per-entry lock
// and a transaction, reconciling credits and appending the audit record.
func (s *Service) override(ctx context.Context, entryID uint, target moderation.Status, moderator, reason, category string) (*ActionResult, error) {
	if moderator == "" {
		return nil, errors.Newf("manual action requires a moderator identity").
			Component("review").
			Category(errors.CategoryValidation).
			Build()
	}

	unlock := s.locks.Lock(entryID)
	defer unlock()

	var (
		res       ActionResult
		creditRes credits.Result
	)
	err := s.store.Transaction(func(tx *datastore.DataStore) error {
		entry, err := tx.GetEntry(entryID)
		if err != nil {
			return err
		}
		res.Entry = entry
		res.PreviousStatus = entry.ModerationStatus
		res.CreditAction = credits.ActionNone

		if entry.ModerationStatus == target {
			res.NoOp = true
			return nil
		}

		direction := credits.DirectionFor(entry.ModerationStatus, target)
		creditRes, err = s.reconciler.Apply(tx, entry, direction)
		if err != nil {
			return err
		}
		res.CreditAction = creditRes.Action

		now := s.now()
		entry.Metadata.AppendTo("manual_actions", map[string]any{
			"id":              uuid.NewString(),
			"action":          actionName(target),
			"moderator":       moderator,
			"reason":          reason,
			"category":        category,
			"previous_status": string(entry.ModerationStatus),
			"previous_score":  entry.ModerationScore,
			"timestamp":       now.UTC().Format(time.RFC3339),
		})
		entry.ModerationStatus = target
		if target == moderation.StatusPendingReview {
			// Back in the queue: the next decision stamps fresh values.
			entry.ModeratedAt = nil
			entry.ModeratedBy = ""
			entry.ModerationReason = ""
		} else {
			entry.ModeratedAt = &now
			entry.ModeratedBy = moderator
			entry.ModerationReason = reason
		}

		return tx.SaveEntry(entry)
	})
	if err != nil {
		return nil, err
	}

	if res.NoOp {
		s.log.Debug("manual action was a no-op",
			"entry_id", entryID, "status", string(target), "moderator", moderator)
		return &res, nil
	}

	s.reconciler.Notify(ctx, creditRes)
	s.log.Info("manual moderation action applied",
		"entry_id", entryID,
		"from", string(res.PreviousStatus),
		"to", string(target),
		"moderator", moderator,
		"credit_action", string(res.CreditAction))
	return &res, nil
}

// Reanalyze reruns the moderation pipeline on an entry's stored image and
// applies the fresh decision, reconciling credits across the status change.
func (s *Service) Reanalyze(ctx context.Context, entryID uint, moderator string) (*ActionResult, error) {
	if s.images == nil {
		return nil, errors.Newf("reanalysis is not available without an image source").
			Component("review").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if moderator == "" {
		moderator = autoModerator
	}

	entry, err := s.store.GetEntry(entryID)
	if err != nil {
		return nil, err
	}
	data, err := s.images.Load(ctx, entry)
	if err != nil {
		return nil, errors.Newf("loading image for entry %d: %v", entryID, err).
			Component("review").
			Category(errors.CategoryFileIO).
			Build()
	}

	decision := s.orchestrator.Analyze(ctx, moderation.ImageInput{
		Data:      data,
		MimeType:  entry.MimeType,
		SizeBytes: entry.FileSize,
		Filename:  entry.Filename,
	})
	if s.metrics != nil {
		s.metrics.RecordReanalysis()
	}

	return s.applyDecision(ctx, entryID, decision, moderator)
}

// applyDecision persists a pipeline decision onto an entry under the entry
// lock, reconciling credits for the resulting status transition. The
// reanalysis audit record is appended for every run after the first.
func (s *Service) applyDecision(ctx context.Context, entryID uint, decision *moderation.Decision, moderator string) (*ActionResult, error) {
	unlock := s.locks.Lock(entryID)
	defer unlock()

	var (
		res       ActionResult
		creditRes credits.Result
	)
	res.Decision = decision

	err := s.store.Transaction(func(tx *datastore.DataStore) error {
		entry, err := tx.GetEntry(entryID)
		if err != nil {
			return err
		}
		res.Entry = entry
		res.PreviousStatus = entry.ModerationStatus
		res.CreditAction = credits.ActionNone

		direction := credits.DirectionFor(entry.ModerationStatus, decision.Status)
		creditRes, err = s.reconciler.Apply(tx, entry, direction)
		if err != nil {
			return err
		}
		res.CreditAction = creditRes.Action

		now := s.now()
		if prior, analyzed := entry.Metadata["moderation"]; analyzed {
			// The displaced decision is archived in full inside the audit
			// record; metadata is append-only, nothing is lost to a rerun.
			entry.Metadata.AppendTo("reanalysis", map[string]any{
				"id":                uuid.NewString(),
				"moderator":         moderator,
				"previous_status":   string(entry.ModerationStatus),
				"previous_score":    entry.ModerationScore,
				"previous_decision": prior,
				"new_status":        string(decision.Status),
				"new_score":         decision.OverallScore,
				"provider":          decision.Provider,
				"timestamp":         now.UTC().Format(time.RFC3339),
			})
		}
		entry.Metadata["moderation"] = decisionRecord(decision)
		entry.ModerationStatus = decision.Status
		entry.ModerationScore = decision.OverallScore
		entry.ModeratedAt = &now
		entry.ModeratedBy = moderator
		entry.ModerationReason = decisionReason(decision)

		return tx.SaveEntry(entry)
	})
	if err != nil {
		return nil, err
	}

	s.reconciler.Notify(ctx, creditRes)
	return &res, nil
}

// decisionRecord flattens a decision into the metadata map. Stored as plain
// maps so the round trip through the JSON column is type-stable.
func decisionRecord(d *moderation.Decision) map[string]any {
	categories := map[string]any{}
	for _, c := range moderation.Categories() {
		categories[c.String()] = d.Categories.Get(c)
	}
	reasons := make([]any, 0, len(d.FlaggedReasons))
	for _, r := range d.FlaggedReasons {
		reasons = append(reasons, map[string]any{
			"category":    r.Category,
			"score":       r.Score,
			"description": r.Description,
		})
	}
	return map[string]any{
		"status":             string(d.Status),
		"overall_score":      d.OverallScore,
		"categories":         categories,
		"confidence":         d.Confidence,
		"provider":           d.Provider,
		"flagged_reasons":    reasons,
		"requires_review":    d.RequiresReview,
		"processing_time_ms": d.ProcessingTimeMs,
		"timestamp":          d.Timestamp.UTC().Format(time.RFC3339),
	}
}

// decisionReason summarizes a decision for the entry's reason column.
func decisionReason(d *moderation.Decision) string {
	if len(d.FlaggedReasons) == 0 {
		return ""
	}
	top := d.FlaggedReasons[0]
	for _, r := range d.FlaggedReasons[1:] {
		if r.Score > top.Score {
			top = r
		}
	}
	return fmt.Sprintf("%s (%.2f)", top.Category, top.Score)
}

func actionName(target moderation.Status) string {
	switch target {
	case moderation.StatusApproved:
		return "approve"
	case moderation.StatusRejected:
		return "reject"
	case moderation.StatusPendingReview:
		return "set_pending"
	default:
		return string(target)
	}
}
