package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelklabo/codic-slack/internal/core"
)

const codicRegistration = `[{
  "successful": true,
  "text": "ユーザー登録",
  "translated_text": "userRegistration",
  "words": [
    {"successful": true, "text": "ユーザー", "translated_text": "user",
     "candidates": [{"text": "user"}, {"text": "member"}]},
    {"successful": true, "text": "登録", "translated_text": "registration",
     "candidates": [{"text": "registration"}, {"text": null}, {"text": "register"}]}
  ]
}]`

type slackFake struct {
	srv    *httptest.Server
	bodies chan []byte
}

func newSlackFake(t *testing.T) *slackFake {
	t.Helper()
	f := &slackFake{bodies: make(chan []byte, 4)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.bodies <- b
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newCodicFake(t *testing.T, calls chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls <- string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, codicRegistration)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postCommand(t *testing.T, h http.Handler, path string, form url.Values) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func waitBody(t *testing.T, ch <-chan []byte) map[string]any {
	t.Helper()
	select {
	case b := <-ch:
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m), "slack body is not json: %s", b)
		return m
	case <-time.After(3 * time.Second):
		require.FailNow(t, "timed out waiting for slack delivery")
	}
	return nil
}

func drain(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if d, ok := a.Dispatcher.(*core.GoDispatcher); ok {
		require.NoError(t, d.Wait(ctx))
	}
}

func buildWithCodic(t *testing.T, codicURL string) *App {
	t.Helper()
	cfg := testConfig(t)
	cfg.Codic.BaseURL = codicURL
	a, err := Build(cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestE2ECamelCaseRegistration(t *testing.T) {
	calls := make(chan string, 1)
	codicSrv := newCodicFake(t, calls)
	slack := newSlackFake(t)
	a := buildWithCodic(t, codicSrv.URL)

	code := postCommand(t, a.Server.Handler(), "/camel", url.Values{
		"command":      {"/camel"},
		"text":         {"ユーザー登録"},
		"user_name":    {"alice"},
		"response_url": {slack.srv.URL},
	})
	require.Equal(t, http.StatusOK, code)

	body := waitBody(t, slack.bodies)
	drain(t, a)

	var req map[string]string
	require.NoError(t, json.Unmarshal([]byte(<-calls), &req))
	assert.Equal(t, "ユーザー登録", req["text"])
	assert.Equal(t, "camel", req["casing"])

	assert.Equal(t, "in_channel", body["response_type"])
	text, _ := body["text"].(string)
	assert.True(t, strings.HasPrefix(text, "「ユーザー登録」の命名候補\n\ncasing：camelCase"), text)

	atts := body["attachments"].([]any)
	require.Len(t, atts, 2)
	primary := atts[0].(map[string]any)
	assert.Equal(t, "#36a64f", primary["color"])
	assert.Equal(t, "userRegistration", primary["fields"].([]any)[0].(map[string]any)["value"])

	words := atts[1].(map[string]any)["fields"].([]any)
	require.Len(t, words, 2)
	first := words[0].(map[string]any)
	second := words[1].(map[string]any)
	assert.Equal(t, "ユーザー", first["title"])
	assert.Equal(t, "*user* , member", first["value"])
	assert.Equal(t, "登録", second["title"])
	assert.Equal(t, "*registration* , register", second["value"])
}

func TestE2EEmptyTextApology(t *testing.T) {
	calls := make(chan string, 1)
	codicSrv := newCodicFake(t, calls)
	slack := newSlackFake(t)
	a := buildWithCodic(t, codicSrv.URL)

	code := postCommand(t, a.Server.Handler(), "/snake", url.Values{"text": {""}, "response_url": {slack.srv.URL}})
	require.Equal(t, http.StatusOK, code)

	body := waitBody(t, slack.bodies)
	drain(t, a)
	assert.Equal(t, map[string]any{"text": "何も変換出来ない:thinking_face:"}, body)
	assert.Empty(t, calls, "codic must not be called for empty text")
}

func TestE2ERegistryFallback(t *testing.T) {
	calls := make(chan string, 1)
	codicSrv := newCodicFake(t, calls)
	slack := newSlackFake(t)

	cfg := testConfig(t)
	cfg.Codic.BaseURL = codicSrv.URL
	cfg.Registry.Enable = true
	cfg.Registry.Path = t.TempDir() + "/teams.db"
	a, err := Build(cfg, nil, nil)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()
	require.NoError(t, a.Store.Register("T1", slack.srv.URL))

	code := postCommand(t, a.Server.Handler(), "/kebab", url.Values{"text": {"ユーザー登録"}, "team_id": {"T1"}})
	require.Equal(t, http.StatusOK, code)

	body := waitBody(t, slack.bodies)
	drain(t, a)
	text, _ := body["text"].(string)
	assert.Contains(t, text, "casing：kebab-case")
}
