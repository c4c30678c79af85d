package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smorady/msg-orchestrator/internal/metrics"
	"github.com/smorady/msg-orchestrator/internal/model"
)

type stubDispatches struct {
	bySID   *model.Dispatch
	updates []model.DispatchStatus
}

func (s *stubDispatches) Insert(ctx context.Context, d model.Dispatch) error { return nil }

func (s *stubDispatches) UpdateStatusBySID(ctx context.Context, sid string, status model.DispatchStatus, errorCode string) error {
	s.updates = append(s.updates, status)
	return nil
}

func (s *stubDispatches) Get(ctx context.Context, id string) (*model.Dispatch, error) {
	return nil, errors.New("not found")
}

func (s *stubDispatches) GetByProviderSID(ctx context.Context, sid string) (*model.Dispatch, error) {
	if s.bySID == nil {
		return nil, errors.New("not found")
	}
	return s.bySID, nil
}

type stubDeliveries struct {
	inserted []model.DeliveryEvent
}

func (s *stubDeliveries) Insert(ctx context.Context, ev model.DeliveryEvent) error {
	s.inserted = append(s.inserted, ev)
	return nil
}

func (s *stubDeliveries) List(ctx context.Context, ch, status string, limit, offset int) ([]model.DeliveryEvent, error) {
	return nil, nil
}

func callbackRequest(t *testing.T, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/callbacks/status", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestStatusCallbackDelivered(t *testing.T) {
	dispatches := &stubDispatches{
		bySID: &model.Dispatch{ID: "d1", CreatedAt: time.Now().Add(-2 * time.Second)},
	}
	deliveries := &stubDeliveries{}
	stats := metrics.NewCapture()

	c, rec := callbackRequest(t, url.Values{
		"MessageSid":    {"SM123"},
		"MessageStatus": {"delivered"},
		"To":            {"+15551230000"},
	})

	require.NoError(t, statusCallbackHandler(dispatches, deliveries, stats)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, dispatches.updates, 1)
	assert.Equal(t, model.DispatchDelivered, dispatches.updates[0])

	require.Len(t, deliveries.inserted, 1)
	assert.Equal(t, "SM123", deliveries.inserted[0].ProviderSID)
	assert.Equal(t, "sms", deliveries.inserted[0].Channel)

	require.Len(t, stats.Histograms("delivery.confirm_latency"), 1)
	assert.Len(t, stats.Incrs("callback.received"), 1)
}

func TestStatusCallbackWhatsAppFailed(t *testing.T) {
	dispatches := &stubDispatches{}
	deliveries := &stubDeliveries{}
	stats := metrics.NewCapture()

	c, rec := callbackRequest(t, url.Values{
		"MessageSid":    {"SM456"},
		"MessageStatus": {"undelivered"},
		"ErrorCode":     {"63016"},
		"To":            {"whatsapp:+15551230000"},
	})

	require.NoError(t, statusCallbackHandler(dispatches, deliveries, stats)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, dispatches.updates, 1)
	assert.Equal(t, model.DispatchFailed, dispatches.updates[0])
	require.Len(t, deliveries.inserted, 1)
	assert.Equal(t, "whatsapp", deliveries.inserted[0].Channel)
	assert.Equal(t, "63016", deliveries.inserted[0].ErrorCode)
	assert.Empty(t, stats.Histograms("delivery.confirm_latency"))
}

func TestStatusCallbackMissingSID(t *testing.T) {
	c, rec := callbackRequest(t, url.Values{"MessageStatus": {"delivered"}})

	require.NoError(t, statusCallbackHandler(&stubDispatches{}, &stubDeliveries{}, metrics.NewCapture())(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusCallbackUnknownStatusStillRecorded(t *testing.T) {
	dispatches := &stubDispatches{}
	deliveries := &stubDeliveries{}

	c, rec := callbackRequest(t, url.Values{
		"MessageSid":    {"SM789"},
		"MessageStatus": {"partially_delivered"},
		"To":            {"+15551230000"},
	})

	require.NoError(t, statusCallbackHandler(dispatches, deliveries, metrics.NewCapture())(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, dispatches.updates)
	require.Len(t, deliveries.inserted, 1)
}
