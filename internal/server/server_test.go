package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater/inboxpilot/internal/engine"
	"github.com/tidewater/inboxpilot/internal/model"
)

// cannedResponder returns a fixed decision normalized against settings.
type cannedResponder struct {
	decision model.Decision
}

func (r *cannedResponder) Classify(_ context.Context, _ string, _ model.Channel, settings model.Settings) (model.Decision, error) {
	d := r.decision
	d.Normalize(settings.Policy, settings.Catalog)
	return d, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.NotificationIntent) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, decision model.Decision, policy model.Policy) *httptest.Server {
	t.Helper()

	settings := model.Settings{
		Policy: policy,
		Catalog: []model.Product{
			{ID: "p1", Name: "Widget", Price: 10.0, Quantity: 5},
		},
	}
	eng := engine.New(settings, &cannedResponder{decision: decision}, nopNotifier{}, nil,
		engine.Config{AutoSendDelay: time.Hour}, testLogger())

	srv := httptest.NewServer(New(eng, nil, testLogger()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntakeAndList(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	resp := postJSON(t, srv.URL+"/items", map[string]string{
		"sender":  "alice",
		"content": "hello there",
		"channel": "comment",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.InboxItem
	decodeJSON(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.ChannelComment, created.Channel)

	listResp, err := http.Get(srv.URL + "/items")
	require.NoError(t, err)

	var items []model.InboxItem
	decodeJSON(t, listResp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
}

func TestIntakeRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	resp := postJSON(t, srv.URL+"/items", map[string]string{"sender": "alice"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClassifyAndCommitFlow(t *testing.T) {
	reply := "Order confirmed!"
	decision := model.Decision{
		Category:  model.CategoryInterestedInBuying,
		ReplyText: &reply,
		Action:    model.ActionEmailOwner,
		SoldItems: []model.SoldItem{{ProductID: "p1", Quantity: 2}},
	}
	srv := newTestServer(t, decision, model.Policy{AutoConfirmOrders: true})

	resp := postJSON(t, srv.URL+"/items", map[string]string{
		"sender":  "alice",
		"content": "two widgets please, ship to 1 Main St",
	})
	var created model.InboxItem
	decodeJSON(t, resp, &created)

	classifyResp := postJSON(t, srv.URL+"/items/"+created.ID+"/classify", nil)
	require.Equal(t, http.StatusOK, classifyResp.StatusCode)

	var got model.Decision
	decodeJSON(t, classifyResp, &got)
	assert.Equal(t, model.CategoryInterestedInBuying, got.Category)
	require.Len(t, got.SoldItems, 1)

	commitResp := postJSON(t, srv.URL+"/items/"+created.ID+"/commit", nil)
	require.Equal(t, http.StatusOK, commitResp.StatusCode)

	var finalized model.InboxItem
	decodeJSON(t, commitResp, &finalized)
	assert.True(t, finalized.Finalized)
	require.NotNil(t, finalized.ArchivedReply)

	catalogResp, err := http.Get(srv.URL + "/catalog")
	require.NoError(t, err)
	var catalog []model.Product
	decodeJSON(t, catalogResp, &catalog)
	require.Len(t, catalog, 1)
	assert.Equal(t, 3, catalog[0].Quantity)
}

func TestClassifyUnknownItem(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	resp := postJSON(t, srv.URL+"/items/ghost/classify", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommitWithoutDecisionConflicts(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	resp := postJSON(t, srv.URL+"/items", map[string]string{
		"sender":  "alice",
		"content": "hello",
	})
	var created model.InboxItem
	decodeJSON(t, resp, &created)

	commitResp := postJSON(t, srv.URL+"/items/"+created.ID+"/commit", nil)
	defer func() { _ = commitResp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, commitResp.StatusCode)
}

func TestSimulateSpamReturnsNullReply(t *testing.T) {
	reply := "Thanks for the offer!"
	decision := model.Decision{
		Category:  model.CategorySpamPromo,
		ReplyText: &reply,
	}
	srv := newTestServer(t, decision, model.Policy{AutoConfirmOrders: true})

	resp := postJSON(t, srv.URL+"/simulate", map[string]string{
		"content": "GROW YOUR FOLLOWERS FAST",
		"channel": "comment",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	decodeJSON(t, resp, &raw)
	assert.Equal(t, "null", string(raw["replyText"]))

	// Simulation leaves the working set empty.
	listResp, err := http.Get(srv.URL + "/items")
	require.NoError(t, err)
	var items []model.InboxItem
	decodeJSON(t, listResp, &items)
	assert.Empty(t, items)
}

func TestTeachAndListGuidelines(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	resp := postJSON(t, srv.URL+"/guidelines", map[string]string{
		"trigger": "do you gift wrap",
		"reply":   "Yes, for free!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var g model.Guideline
	decodeJSON(t, resp, &g)
	assert.Equal(t, "do you gift wrap", g.Trigger)

	listResp, err := http.Get(srv.URL + "/guidelines")
	require.NoError(t, err)
	var guidelines []model.Guideline
	decodeJSON(t, listResp, &guidelines)
	require.Len(t, guidelines, 1)
}

func TestTeachRejectsEmptyFields(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	resp := postJSON(t, srv.URL+"/guidelines", map[string]string{"trigger": "only half"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdatePolicy(t *testing.T) {
	srv := newTestServer(t, model.Decision{}, model.Policy{})

	body, err := json.Marshal(model.Policy{AutoReply: true, AutoConfirmOrders: true})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/policy", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
