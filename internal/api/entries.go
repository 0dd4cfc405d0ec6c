package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/credits"
	"github.com/pkallio/photoguard-go/internal/datastore"
	"github.com/pkallio/photoguard-go/internal/errors"
	"github.com/pkallio/photoguard-go/internal/moderation"
	"github.com/pkallio/photoguard-go/internal/review"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// entryResponse is the API view of a stored entry.
type entryResponse struct {
	ID               uint                    `json:"id"`
	OwnerID          uint                    `json:"owner_id"`
	Filename         string                  `json:"filename"`
	FileSize         int64                   `json:"file_size"`
	MimeType         string                  `json:"mime_type"`
	ModerationStatus moderation.Status       `json:"moderation_status"`
	ModerationScore  float64                 `json:"moderation_score"`
	PaymentStatus    datastore.PaymentStatus `json:"payment_status"`
	CreditGiven      bool                    `json:"credit_given"`
	ModeratedAt      *time.Time              `json:"moderated_at,omitempty"`
	ModeratedBy      string                  `json:"moderated_by,omitempty"`
	ModerationReason string                  `json:"moderation_reason,omitempty"`
	Metadata         datastore.EntryMetadata `json:"metadata"`
	CreatedAt        time.Time               `json:"created_at"`
}

func toEntryResponse(e *datastore.Entry) entryResponse {
	return entryResponse{
		ID:               e.ID,
		OwnerID:          e.OwnerID,
		Filename:         e.Filename,
		FileSize:         e.FileSize,
		MimeType:         e.MimeType,
		ModerationStatus: e.ModerationStatus,
		ModerationScore:  e.ModerationScore,
		PaymentStatus:    e.PaymentStatus,
		CreditGiven:      e.CreditGiven,
		ModeratedAt:      e.ModeratedAt,
		ModeratedBy:      e.ModeratedBy,
		ModerationReason: e.ModerationReason,
		Metadata:         e.Metadata,
		CreatedAt:        e.CreatedAt,
	}
}

// actionResponse reports the outcome of a lifecycle operation.
type actionResponse struct {
	Entry          entryResponse        `json:"entry"`
	Decision       *moderation.Decision `json:"decision,omitempty"`
	PreviousStatus moderation.Status    `json:"previous_status"`
	CreditAction   credits.Action       `json:"credit_action"`
	NoOp           bool                 `json:"no_op"`
}

func toActionResponse(r *review.ActionResult) actionResponse {
	return actionResponse{
		Entry:          toEntryResponse(r.Entry),
		Decision:       r.Decision,
		PreviousStatus: r.PreviousStatus,
		CreditAction:   r.CreditAction,
		NoOp:           r.NoOp,
	}
}

// SubmitEntry accepts a multipart upload and runs it through the moderation
// pipeline. Fields: owner_id, payment_status (optional, defaults completed)
// and the image file.
func (c *Controller) SubmitEntry(ctx echo.Context) error {
	ownerID, err := strconv.ParseUint(ctx.FormValue("owner_id"), 10, 32)
	if err != nil {
		return c.handleError(ctx, errors.Newf("invalid owner_id").
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	payment := datastore.PaymentStatus(ctx.FormValue("payment_status"))
	if payment == "" {
		payment = datastore.PaymentCompleted
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return c.handleError(ctx, errors.Newf("missing image file").
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.handleError(ctx, err)
	}
	defer func() { _ = file.Close() }()

	// Moderately oversize uploads are accepted and scored as a spam signal
	// rather than rejected outright, so the hard cap sits at twice the
	// configured maximum. Beyond that the body is rejected whole; a
	// truncated image must never be scored or stored.
	maxSize := c.Settings.Moderation.MaxFileSize
	if maxSize <= 0 {
		maxSize = conf.DefaultMaxFileSize
	}
	hardCap := maxSize * 2
	data, err := io.ReadAll(io.LimitReader(file, hardCap+1))
	if err != nil {
		return c.handleError(ctx, err)
	}
	if int64(len(data)) > hardCap {
		return c.handleError(ctx, errors.Newf("file exceeds maximum accepted size of %d bytes", hardCap).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	res, err := c.Review.Submit(ctx.Request().Context(), review.Submission{
		OwnerID:       uint(ownerID),
		Filename:      fileHeader.Filename,
		MimeType:      mimeType,
		Data:          data,
		PaymentStatus: payment,
	})
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, toActionResponse(res))
}

// GetEntry returns a single entry with its decision metadata.
func (c *Controller) GetEntry(ctx echo.Context) error {
	id, err := c.entryID(ctx)
	if err != nil {
		return c.handleError(ctx, err)
	}

	entry, err := c.DS.GetEntry(id)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toEntryResponse(entry))
}

// ListEntries lists entries in a moderation status, newest first. Intended
// for the moderator review queue.
func (c *Controller) ListEntries(ctx echo.Context) error {
	status := ctx.QueryParam("status")
	if status == "" {
		status = string(moderation.StatusPendingReview)
	}
	if !moderation.Status(status).Valid() {
		return c.handleError(ctx, errors.Newf("unknown status %q", status).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	limit := queryInt(ctx, "limit", defaultPageLimit)
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset := queryInt(ctx, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, total, err := c.DS.GetEntriesByStatus(status, limit, offset)
	if err != nil {
		return c.handleError(ctx, err)
	}

	items := make([]entryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, toEntryResponse(&entries[i]))
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"entries": items,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// moderateRequest is a manual moderator action on an entry.
type moderateRequest struct {
	Action   string `json:"action"`
	Reason   string `json:"reason"`
	Category string `json:"category"`
}

// ModerateEntry applies a manual override: approve, reject or pending.
func (c *Controller) ModerateEntry(ctx echo.Context) error {
	id, err := c.entryID(ctx)
	if err != nil {
		return c.handleError(ctx, err)
	}

	var req moderateRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleError(ctx, errors.Newf("invalid request body: %v", err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	moderator := c.moderator(ctx)
	var res *review.ActionResult
	switch req.Action {
	case "approve":
		res, err = c.Review.Approve(ctx.Request().Context(), id, moderator, req.Reason)
	case "reject":
		res, err = c.Review.Reject(ctx.Request().Context(), id, moderator, req.Reason, req.Category)
	case "pending":
		res, err = c.Review.SetPending(ctx.Request().Context(), id, moderator, req.Reason)
	default:
		err = errors.Newf("unknown action %q", req.Action).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toActionResponse(res))
}

// ReanalyzeEntry reruns the moderation pipeline on a stored entry.
func (c *Controller) ReanalyzeEntry(ctx echo.Context) error {
	id, err := c.entryID(ctx)
	if err != nil {
		return c.handleError(ctx, err)
	}

	res, err := c.Review.Reanalyze(ctx.Request().Context(), id, c.moderator(ctx))
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toActionResponse(res))
}

func (c *Controller) entryID(ctx echo.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0, errors.Newf("invalid entry id %q", ctx.Param("id")).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}

func queryInt(ctx echo.Context, name string, fallback int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
