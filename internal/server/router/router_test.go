package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/internal/metrics"
	"github.com/mamadbah2/dairy/internal/server/handlers"
	"github.com/mamadbah2/dairy/internal/service/alerts"
	"github.com/mamadbah2/dairy/internal/service/lifecycle"
	"github.com/mamadbah2/dairy/internal/service/notifications"
	"github.com/mamadbah2/dairy/internal/service/settings"
)

var evalDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

type stubEvaluator struct {
	summary alerts.Summary
	err     error
}

func (s stubEvaluator) Run(context.Context) (alerts.Summary, error) { return s.summary, s.err }

type recordingSender struct {
	sent []models.OutboundMessageRequest
	err  error
}

func (r *recordingSender) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	r.sent = append(r.sent, req)
	return r.err
}

type staticAudit map[string][]models.AuditEntry

func (s staticAudit) AuditEntries(_ context.Context, id string) ([]models.AuditEntry, error) {
	return s[id], nil
}

type harness struct {
	now  *time.Time
	feed []models.Alert
	h    http.Handler
}

func newHarness(t *testing.T, evaluator handlers.Evaluator, sender handlers.OutboundSender, audit handlers.AuditReader) *harness {
	t.Helper()
	ctx := context.Background()
	now := evalDay.Add(9 * time.Hour)

	feed := alerts.NewFeed(nil, nil)
	_, err := feed.Replace(ctx, alerts.Aggregate([]models.CandidateAlert{
		{Rule: models.RuleDelivery, Bucket: models.BucketUrgent, Subjects: []models.Subject{{ID: "4", Label: "Daisy", Days: 2}}},
		{Rule: models.RuleLowStock, Bucket: models.BucketLow, Subjects: []models.Subject{{ID: "feed", Label: "Feed", Current: 2, Minimum: 10, Unit: "bags"}}},
	}, evalDay, now), nil)
	require.NoError(t, err)

	state := notifications.NewService(notifications.NewMemoryStore(), feed, nil).
		WithClock(func() time.Time { return now })
	source := &records.StaticSource{
		Breeding: []models.BreedingRecord{{ID: "r1", AnimalID: "101", EventDate: "2024-03-10"}},
	}
	settingsSvc := settings.NewService(settings.NewMemoryRepository(), nil)
	worklist := lifecycle.NewService(source, settingsSvc, nil).WithClock(func() time.Time { return now })

	h := New(Handlers{
		Alerts:   handlers.NewAlertHandler(feed, state, audit, nil),
		Worklist: handlers.NewWorklistHandler(worklist, nil),
		Settings: handlers.NewSettingsHandler(settingsSvc, nil),
		Ops:      handlers.NewOpsHandler(evaluator, sender, nil),
		Metrics:  metrics.New().Handler(),
	}, nil)

	return &harness{now: &now, feed: feed.Snapshot(), h: h}
}

func (h *harness) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

type feedResponse struct {
	Alerts []models.Alert `json:"alerts"`
	Unread int            `json:"unread"`
}

func (h *harness) list(t *testing.T, query string) feedResponse {
	t.Helper()
	rec := h.do(t, http.MethodGet, "/alerts"+query, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out feedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListAlertsOrderedByPriority(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)

	out := h.list(t, "")
	require.Len(t, out.Alerts, 2)
	assert.Equal(t, 2, out.Unread)
	assert.Equal(t, models.RuleDelivery, out.Alerts[0].Type)
	assert.Equal(t, models.PriorityHigh, out.Alerts[0].Priority)
}

func TestMarkRead(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)
	id := h.feed[0].ID

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodPost, "/alerts/"+id+"/read", nil).Code)
	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodPost, "/alerts/"+id+"/read", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/alerts/alt_missing/read", nil).Code)

	out := h.list(t, "")
	assert.Equal(t, 1, out.Unread)
	assert.True(t, out.Alerts[0].Read)
}

func TestMarkAllRead(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)

	rec := h.do(t, http.MethodPost, "/alerts/read", body{"ids": []string{h.feed[0].ID, h.feed[1].ID, "alt_missing"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":2}`, rec.Body.String())
	assert.Equal(t, 0, h.list(t, "").Unread)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/alerts/read", nil).Code)
}

func TestSnoozeHidesAlertUntilExpiry(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)
	id := h.feed[0].ID

	rec := h.do(t, http.MethodPost, "/alerts/"+id+"/snooze", body{"hours": 24})
	require.Equal(t, http.StatusOK, rec.Code)

	*h.now = h.now.Add(time.Hour)
	out := h.list(t, "")
	require.Len(t, out.Alerts, 1)
	assert.NotEqual(t, id, out.Alerts[0].ID)

	out = h.list(t, "?include_snoozed=true")
	require.Len(t, out.Alerts, 2)
	assert.True(t, out.Alerts[0].Snoozed)
	require.NotNil(t, out.Alerts[0].SnoozeUntil)

	*h.now = h.now.Add(24 * time.Hour)
	assert.Len(t, h.list(t, "").Alerts, 2)
}

func TestSnoozeRejectsBadInput(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)
	id := h.feed[0].ID

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/alerts/"+id+"/snooze", body{"hours": -2}).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/alerts/"+id+"/snooze", body{}).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/alerts/alt_missing/snooze", body{"hours": 2}).Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)

	rec := h.do(t, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.AlertConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, models.DefaultAlertConfig(), cfg)

	rec = h.do(t, http.MethodPut, "/settings", body{"pd_check_window_max_days": 70})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/settings", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 70, cfg.PDCheckWindowMaxDays)
	assert.Equal(t, 45, cfg.PDCheckWindowMinDays)
}

func TestSettingsRejectsInvalidWindow(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)

	rec := h.do(t, http.MethodPut, "/settings", body{"pd_check_window_max_days": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pd_check_window_max_days")
}

func TestWorklist(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)

	rec := h.do(t, http.MethodGet, "/worklist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"animal_id":"101"`)
	assert.Contains(t, rec.Body.String(), `"group":"pregnancy_check_due"`)
}

func TestEvaluate(t *testing.T) {
	h := newHarness(t, stubEvaluator{summary: alerts.Summary{EvaluationDate: "2024-05-01", Active: 2, New: 1}}, nil, nil)

	rec := h.do(t, http.MethodPost, "/evaluate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"evaluation_date":"2024-05-01","active":2,"new":1}`, rec.Body.String())

	failing := newHarness(t, stubEvaluator{err: errors.New("boom")}, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, failing.do(t, http.MethodPost, "/evaluate", nil).Code)
}

func TestSendTestMessage(t *testing.T) {
	unconfigured := newHarness(t, stubEvaluator{}, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, unconfigured.do(t, http.MethodPost, "/notifications/test", body{"to": "1", "message": "hi"}).Code)

	sender := &recordingSender{}
	h := newHarness(t, stubEvaluator{}, sender, nil)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/notifications/test", body{"to": "1"}).Code)
	assert.Equal(t, http.StatusAccepted, h.do(t, http.MethodPost, "/notifications/test", body{"to": "224600000000", "message": "hi"}).Code)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "224600000000", sender.sent[0].To)

	sender.err = errors.New("meta down")
	assert.Equal(t, http.StatusBadGateway, h.do(t, http.MethodPost, "/notifications/test", body{"to": "1", "message": "hi"}).Code)
}

func TestAlertAudit(t *testing.T) {
	unavailable := newHarness(t, stubEvaluator{}, nil, nil)
	assert.Equal(t, http.StatusNotImplemented, unavailable.do(t, http.MethodGet, "/alerts/alt_1/audit", nil).Code)

	h := newHarness(t, stubEvaluator{}, nil, staticAudit{
		"alt_1": {{ID: "a1", Recipient: "224600000000", AlertID: "alt_1", Status: models.DeliverySent}},
	})
	rec := h.do(t, http.MethodGet, "/alerts/alt_1/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recipient":"224600000000"`)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, stubEvaluator{}, nil, nil)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/healthz", nil).Code)
	rec := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

type body = map[string]any
