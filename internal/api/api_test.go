package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/credits"
	"github.com/pkallio/photoguard-go/internal/datastore"
	"github.com/pkallio/photoguard-go/internal/moderation"
	"github.com/pkallio/photoguard-go/internal/review"
)

type stubProvider struct {
	score float64
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Analyze(context.Context, moderation.ImageRequest) (*moderation.RawResult, error) {
	var categories moderation.CategoryScores
	categories.Set(moderation.CategoryInappropriate, s.score)
	return &moderation.RawResult{Score: s.score, Categories: categories, Confidence: 0.9}, nil
}

type stubImages struct{}

func (stubImages) Save(context.Context, *datastore.Entry, []byte) error { return nil }

func (stubImages) Load(context.Context, *datastore.Entry) ([]byte, error) {
	return []byte("stored-bytes"), nil
}

type fixture struct {
	echo     *echo.Echo
	store    *datastore.SQLiteStore
	provider *stubProvider
}

func newFixture(t *testing.T, mutate ...func(*conf.Settings)) *fixture {
	t.Helper()

	settings := &conf.Settings{}
	settings.Moderation.Enabled = true
	settings.Moderation.AutoApproveThreshold = 0.2
	settings.Moderation.AutoRejectThreshold = 0.45
	settings.Moderation.RequireManualReview = true
	settings.Moderation.MaxFileSize = 10 * 1024 * 1024
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = ":memory:"
	for _, fn := range mutate {
		fn(settings)
	}

	store := &datastore.SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	provider := &stubProvider{score: 0.05}
	orchestrator := moderation.NewWithProvider(settings, provider, nil)
	reviewService := review.NewService(store, orchestrator, credits.NewReconciler(nil, nil), stubImages{}, nil)

	e := echo.New()
	New(e, settings, store, reviewService, nil, nil)

	return &fixture{echo: e, store: store, provider: provider}
}

func (f *fixture) seedUser(t *testing.T, balance int) *datastore.User {
	t.Helper()
	user := &datastore.User{DisplayName: "leena", PhotoCredits: balance}
	require.NoError(t, f.store.SaveUser(user))
	return user
}

func (f *fixture) request(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	req.Header.Set("X-Moderator", "moderator1")
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) submitEntry(t *testing.T, ownerID uint) actionResponse {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("owner_id", fmt.Sprint(ownerID)))
	part, err := writer.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := f.request(t, http.MethodPost, "/api/v1/entries", &buf, writer.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res actionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealth(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.seedUser(t, 0)

	res := f.submitEntry(t, user.ID)
	assert.Equal(t, moderation.StatusApproved, res.Entry.ModerationStatus)
	assert.Equal(t, credits.ActionNone, res.CreditAction)
	require.NotNil(t, res.Decision)
	assert.Equal(t, "stub", res.Decision.Provider)
}

func TestSubmitEntry_MissingOwner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	rec := f.request(t, http.MethodPost, "/api/v1/entries", &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitEntry_RejectsBodyBeyondHardCap(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(s *conf.Settings) {
		s.Moderation.MaxFileSize = 512
	})
	user := f.seedUser(t, 0)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("owner_id", fmt.Sprint(user.ID)))
	part, err := writer.CreateFormFile("file", "huge.jpg")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xab}, 2048)) // past 2x the max
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	rec := f.request(t, http.MethodPost, "/api/v1/entries", &buf, writer.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing truncated was stored.
	entries, total, err := f.store.GetEntriesByStatus(string(moderation.StatusApproved), 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestGetEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.seedUser(t, 0)
	res := f.submitEntry(t, user.ID)

	rec := f.request(t, http.MethodGet, fmt.Sprintf("/api/v1/entries/%d", res.Entry.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entry entryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, res.Entry.ID, entry.ID)
	assert.Contains(t, entry.Metadata, "moderation")
}

func TestGetEntry_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/entries/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEntry_BadID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/entries/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModerateEntry_Reject(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.seedUser(t, 0)
	submitted := f.submitEntry(t, user.ID)

	body := bytes.NewBufferString(`{"action":"reject","reason":"rule violation","category":"spam"}`)
	rec := f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/entries/%d/moderate", submitted.Entry.ID), body, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res actionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, moderation.StatusRejected, res.Entry.ModerationStatus)
	assert.Equal(t, credits.ActionAwarded, res.CreditAction)
	assert.Equal(t, "moderator1", res.Entry.ModeratedBy)

	balance, err := f.store.GetUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, balance.PhotoCredits)
}

func TestModerateEntry_RejectWithoutReason(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.seedUser(t, 0)
	submitted := f.submitEntry(t, user.ID)

	body := bytes.NewBufferString(`{"action":"reject","category":"spam"}`)
	rec := f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/entries/%d/moderate", submitted.Entry.ID), body, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModerateEntry_UnknownAction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.seedUser(t, 0)
	submitted := f.submitEntry(t, user.ID)

	body := bytes.NewBufferString(`{"action":"escalate"}`)
	rec := f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/entries/%d/moderate", submitted.Entry.ID), body, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEntries_ReviewQueue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provider.score = 0.6 // mid-band, pending_review
	user := f.seedUser(t, 0)
	f.submitEntry(t, user.ID)
	f.submitEntry(t, user.ID)

	rec := f.request(t, http.MethodGet, "/api/v1/entries", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Entries []entryResponse `json:"entries"`
		Total   int64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, int64(2), res.Total)
	assert.Len(t, res.Entries, 2)
}

func TestListEntries_UnknownStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/entries?status=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReanalyzeEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user := f.seedUser(t, 0)
	submitted := f.submitEntry(t, user.ID)

	f.provider.score = 0.95
	rec := f.request(t, http.MethodPost, fmt.Sprintf("/api/v1/entries/%d/reanalyze", submitted.Entry.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res actionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, moderation.StatusRejected, res.Entry.ModerationStatus)
	assert.Equal(t, credits.ActionAwarded, res.CreditAction)
}

func TestAuthMiddlewareGuardsRoutes(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Moderation.Enabled = true
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = ":memory:"

	store := &datastore.SQLiteStore{Settings: settings}
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	orchestrator := moderation.NewWithProvider(settings, &stubProvider{}, nil)
	reviewService := review.NewService(store, orchestrator, credits.NewReconciler(nil, nil), nil, nil)

	deny := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Request().Header.Get("Authorization"), "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			c.Set(moderatorContextKey, "token-moderator")
			return next(c)
		}
	}

	e := echo.New()
	New(e, settings, store, reviewService, nil, deny)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays outside the guarded group.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
