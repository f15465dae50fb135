package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makerchecker-backend/config"
	"makerchecker-backend/events"
	"makerchecker-backend/models"
	"makerchecker-backend/testutil"
)

type client struct {
	t   *testing.T
	app *fiber.App
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (c client) do(method, path, token string, body any, headers ...string) response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: raw}
}

func (c client) signUp(email string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/registration", "", map[string]string{
		"first_name":       "Test",
		"last_name":        "User",
		"email":            email,
		"password":         "correct-horse",
		"password_confirm": "correct-horse",
	})
	require.Equal(c.t, http.StatusCreated, resp.status, string(resp.body))

	resp = c.do(http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(c.t, http.StatusOK, resp.status, string(resp.body))
	var out struct {
		Token string `json:"token"`
	}
	resp.decode(c.t, &out)
	require.NotEmpty(c.t, out.Token)
	return out.Token
}

func newTestApp(t *testing.T, mc config.MakerCheckerOptions) (*App, client) {
	t.Helper()
	log, _ := testutil.Logger()
	cfg := &config.Configuration{
		Database: config.DatabaseOptions{Driver: "sqlite"},
		HTTP: config.HTTPOptions{
			AllowedOrigins: "*",
			BodyLimitMB:    4,
			JWTSecret:      "test-secret",
		},
		Metrics:      config.MetricsOptions{Enabled: true, Path: "/metrics"},
		MakerChecker: mc,
		LogLevel:     "debug",
		LogFormat:    "text",
	}
	a := New(cfg, log, testutil.DB(t))
	return a, client{t: t, app: a.HTTP()}
}

func TestHTTP_ArticleLifecycle(t *testing.T) {
	a, c := newTestApp(t, config.MakerCheckerOptions{EnsureUnique: true})
	maker := c.signUp("maker@example.test")
	checker := c.signUp("checker@example.test")

	var approved int
	a.Bus.Listen(events.Approved, func(events.Event) { approved++ })

	resp := c.do(http.MethodPost, "/api/articles", maker, map[string]any{
		"title":       "  Widget ",
		"description": "Blue",
		"unit_price":  9.999,
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var req models.Request
	resp.decode(t, &req)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, "Widget", req.Payload["title"])
	assert.Equal(t, 10.0, req.Payload["unit_price"])

	resp = c.do(http.MethodPost, "/api/articles", checker, map[string]any{"title": "Widget"})
	assert.Equal(t, http.StatusConflict, resp.status, "duplicate title while pending")

	resp = c.do(http.MethodGet, "/api/articles", maker, nil)
	assert.JSONEq(t, `[]`, string(resp.body), "nothing is written before approval")

	resp = c.do(http.MethodPost, "/api/requests/"+req.Code+"/approve", maker, nil)
	assert.Equal(t, http.StatusConflict, resp.status, "makers cannot check their own requests")

	resp = c.do(http.MethodPost, "/api/requests/"+req.Code+"/approve", checker, map[string]string{"remarks": "ok"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	var checked models.Request
	resp.decode(t, &checked)
	assert.Equal(t, models.StatusApproved, checked.Status)
	assert.Equal(t, "ok", checked.Remarks)

	resp = c.do(http.MethodGet, "/api/articles", maker, nil)
	var articles []models.Article
	resp.decode(t, &articles)
	require.Len(t, articles, 1)
	assert.Equal(t, "Widget", articles[0].Title)
	assert.Equal(t, 10.0, articles[0].UnitPrice)
	assert.Equal(t, 1, approved)

	resp = c.do(http.MethodPost, "/api/requests/"+req.Code+"/reject", checker, nil)
	assert.Equal(t, http.StatusConflict, resp.status, "already checked")

	resp = c.do(http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, string(resp.body), `makerchecker_requests_total{event="approved"} 1`)
}

func TestHTTP_UpdateAndDeleteProposals(t *testing.T) {
	a, c := newTestApp(t, config.MakerCheckerOptions{})
	maker := c.signUp("maker@example.test")
	checker := c.signUp("checker@example.test")

	article := models.Article{Title: "Widget", Description: "old"}
	require.NoError(t, a.DB.Create(&article).Error)

	resp := c.do(http.MethodPut, "/api/articles/"+article.Id, maker, map[string]any{"description": "new"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var upd models.Request
	resp.decode(t, &upd)
	assert.Equal(t, map[string]any{"description": "new"}, map[string]any(upd.Payload))

	resp = c.do(http.MethodPost, "/api/requests/"+upd.Code+"/approve", checker, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = c.do(http.MethodGet, "/api/articles/"+article.Id, maker, nil)
	var got models.Article
	resp.decode(t, &got)
	assert.Equal(t, "new", got.Description)

	resp = c.do(http.MethodDelete, "/api/articles/"+article.Id, maker, nil)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var del models.Request
	resp.decode(t, &del)

	resp = c.do(http.MethodPost, "/api/requests/"+del.Code+"/reject", checker, map[string]string{"remarks": "keep it"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = c.do(http.MethodGet, "/api/articles/"+article.Id, maker, nil)
	assert.Equal(t, http.StatusOK, resp.status, "rejected delete leaves the row")

	resp = c.do(http.MethodDelete, "/api/articles/missing", maker, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = c.do(http.MethodPut, "/api/articles/"+article.Id, maker, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestHTTP_GenericRequestProcessingFailure(t *testing.T) {
	_, c := newTestApp(t, config.MakerCheckerOptions{})
	maker := c.signUp("maker@example.test")
	checker := c.signUp("checker@example.test")

	resp := c.do(http.MethodPost, "/api/requests", maker, map[string]any{
		"type":         "create",
		"subject_type": "articles",
		"payload":      map[string]any{"title": "A", "colour": "red"},
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var req models.Request
	resp.decode(t, &req)

	resp = c.do(http.MethodPost, "/api/requests/"+req.Code+"/approve", checker, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.status, string(resp.body))
	var out struct {
		Request models.Request `json:"request"`
	}
	resp.decode(t, &out)
	assert.Equal(t, models.StatusFailed, out.Request.Status)
	assert.NotEmpty(t, out.Request.FailureDetail)

	resp = c.do(http.MethodGet, "/api/requests?status=failed", maker, nil)
	var failed []models.Request
	resp.decode(t, &failed)
	require.Len(t, failed, 1)
	assert.Equal(t, req.Code, failed[0].Code)

	resp = c.do(http.MethodGet, "/api/requests/"+req.Code, checker, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	resp = c.do(http.MethodGet, "/api/requests/unknown", checker, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestHTTP_RequestValidation(t *testing.T) {
	_, c := newTestApp(t, config.MakerCheckerOptions{Makers: []string{"clerks"}})
	maker := c.signUp("maker@example.test")

	resp := c.do(http.MethodPost, "/api/requests", maker, map[string]any{"type": "merge"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)

	resp = c.do(http.MethodPost, "/api/requests", maker, map[string]any{"type": "update", "subject_type": "articles"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status, "update needs a subject id")

	resp = c.do(http.MethodPost, "/api/requests", maker, map[string]any{"type": "create", "subject_type": "articles"})
	assert.Equal(t, http.StatusForbidden, resp.status, "users are not allowed to make requests")
}

func TestHTTP_AuthRequired(t *testing.T) {
	_, c := newTestApp(t, config.MakerCheckerOptions{})

	resp := c.do(http.MethodGet, "/api/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = c.do(http.MethodGet, "/api/requests", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestHTTP_IdempotentProposal(t *testing.T) {
	a, c := newTestApp(t, config.MakerCheckerOptions{})
	maker := c.signUp("maker@example.test")
	body := map[string]any{"title": "Widget"}

	first := c.do(http.MethodPost, "/api/articles", maker, body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.status, string(first.body))

	second := c.do(http.MethodPost, "/api/articles", maker, body, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusCreated, second.status)
	assert.Equal(t, "true", second.header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(first.body), string(second.body))

	var n int64
	require.NoError(t, a.DB.Model(&models.Request{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	conflict := c.do(http.MethodPost, "/api/articles", maker, map[string]any{"title": "Other"}, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusConflict, conflict.status)
}
