package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelklabo/codic-slack/internal/casing"
	"github.com/joelklabo/codic-slack/internal/codic"
	"github.com/joelklabo/codic-slack/internal/compose"
)

type mockTranslator struct {
	mu    sync.Mutex
	tr    codic.Translation
	err   error
	calls []string
	block chan struct{}
}

func (m *mockTranslator) Translate(ctx context.Context, text string, c casing.Casing) (codic.Translation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text+"|"+c.Param())
	block := m.block
	m.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return codic.Translation{}, ctx.Err()
		}
	}
	return m.tr, m.err
}

func (m *mockTranslator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type delivery struct {
	msg    compose.Message
	target string
}

type mockSink struct {
	mu   sync.Mutex
	err  error
	sent []delivery
	done chan delivery
}

func (m *mockSink) Deliver(_ context.Context, msg compose.Message, target string) error {
	m.mu.Lock()
	m.sent = append(m.sent, delivery{msg: msg, target: target})
	done := m.done
	m.mu.Unlock()
	if done != nil {
		done <- delivery{msg: msg, target: target}
	}
	return m.err
}

func (m *mockSink) deliveries() []delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]delivery, len(m.sent))
	copy(out, m.sent)
	return out
}

type mapResolver map[string]string

func (r mapResolver) Resolve(_ context.Context, teamID string) (string, bool, error) {
	u, ok := r[teamID]
	return u, ok, nil
}

func strptr(s string) *string { return &s }

func registrationTranslation() codic.Translation {
	return codic.Translation{
		Text:           "ユーザー登録",
		TranslatedText: "userRegistration",
		Words: []codic.Word{
			{
				Text:           "ユーザー",
				Successful:     true,
				TranslatedText: "user",
				Candidates:     []codic.Candidate{{Text: strptr("user")}, {Text: strptr("member")}},
			},
			{
				Text:           "登録",
				Successful:     true,
				TranslatedText: "registration",
				Candidates:     []codic.Candidate{{Text: strptr("registration")}, {Text: nil}, {Text: strptr("register")}},
			},
		},
	}
}

func TestRunnerDeliversComposedResult(t *testing.T) {
	tr := &mockTranslator{tr: registrationTranslation()}
	sink := &mockSink{}
	r := NewRunner(tr, sink, nil)

	err := r.Run(context.Background(), Invocation{
		ID:          "inv-1",
		Text:        "ユーザー登録",
		Casing:      casing.Camel,
		Command:     "/camel",
		UserName:    "alice",
		ResponseURL: "https://hooks.slack.test/resp",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ユーザー登録|camel"}, tr.calls)
	sent := sink.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, "https://hooks.slack.test/resp", sent[0].target)

	msg := sent[0].msg
	assert.Regexp(t, "^「ユーザー登録」の命名候補\n\ncasing：camelCase", msg.Text)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "userRegistration", msg.Attachments[0].Fields[0].Value)

	words := msg.Attachments[1].Fields
	require.Len(t, words, 2)
	assert.Equal(t, "ユーザー", words[0].Title)
	assert.Equal(t, "*user* , member", words[0].Value)
	assert.Equal(t, "登録", words[1].Title)
	assert.Equal(t, "*registration* , register", words[1].Value)
}

func TestRunnerEmptyTextApologisesWithoutTranslating(t *testing.T) {
	tr := &mockTranslator{tr: registrationTranslation()}
	sink := &mockSink{}
	r := NewRunner(tr, sink, nil)

	err := r.Run(context.Background(), Invocation{ID: "inv-2", Casing: casing.Snake, ResponseURL: "https://hooks.slack.test/resp"})
	require.NoError(t, err)
	assert.Zero(t, tr.callCount(), "translator must not run for empty text")

	sent := sink.deliveries()
	require.Len(t, sent, 1)
	body, err := json.Marshal(sent[0].msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"何も変換出来ない:thinking_face:"}`, string(body))
}

func TestRunnerTranslateFailureSkipsDelivery(t *testing.T) {
	boom := errors.New("codic down")
	sink := &mockSink{}
	r := NewRunner(&mockTranslator{err: boom}, sink, nil)

	err := r.Run(context.Background(), Invocation{ID: "inv-3", Text: "削除", ResponseURL: "https://hooks.slack.test/resp"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, sink.deliveries())
}

func TestRunnerDeliveryFailureIsReturned(t *testing.T) {
	boom := errors.New("slack 500")
	sink := &mockSink{err: boom}
	r := NewRunner(&mockTranslator{tr: registrationTranslation()}, sink, nil)

	err := r.Run(context.Background(), Invocation{ID: "inv-4", Text: "ユーザー登録", ResponseURL: "https://hooks.slack.test/resp"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, sink.deliveries(), 1, "delivery is attempted exactly once")
}

func TestRunnerFallsBackToRegistry(t *testing.T) {
	sink := &mockSink{}
	r := NewRunner(&mockTranslator{tr: registrationTranslation()}, sink, nil,
		WithResolver(mapResolver{"T1": "https://hooks.slack.test/T1"}))

	require.NoError(t, r.Run(context.Background(), Invocation{ID: "inv-5", Text: "ユーザー登録", TeamID: "T1"}))
	sent := sink.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, "https://hooks.slack.test/T1", sent[0].target)
}

func TestRunnerResponseURLWinsOverRegistry(t *testing.T) {
	sink := &mockSink{}
	r := NewRunner(&mockTranslator{}, sink, nil, WithResolver(mapResolver{"T1": "https://hooks.slack.test/T1"}))

	require.NoError(t, r.Run(context.Background(), Invocation{TeamID: "T1", ResponseURL: "https://hooks.slack.test/resp"}))
	sent := sink.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, "https://hooks.slack.test/resp", sent[0].target)
}

func TestRunnerUnregisteredTeamIsDropped(t *testing.T) {
	tr := &mockTranslator{tr: registrationTranslation()}
	sink := &mockSink{}
	r := NewRunner(tr, sink, nil, WithResolver(mapResolver{}))

	require.NoError(t, r.Run(context.Background(), Invocation{ID: "inv-6", Text: "ユーザー登録", TeamID: "T404"}))
	assert.Zero(t, tr.callCount())
	assert.Empty(t, sink.deliveries())
}

func TestRunnerNoTargetWithoutRegistry(t *testing.T) {
	sink := &mockSink{}
	r := NewRunner(&mockTranslator{}, sink, nil)

	require.NoError(t, r.Run(context.Background(), Invocation{Text: "x", TeamID: "T1"}))
	assert.Empty(t, sink.deliveries())
}

func TestGoDispatcherRunsAfterReturn(t *testing.T) {
	release := make(chan struct{})
	tr := &mockTranslator{tr: registrationTranslation(), block: release}
	sink := &mockSink{done: make(chan delivery, 1)}
	d := NewGoDispatcher(NewRunner(tr, sink, nil), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, Invocation{ID: "inv-7", Text: "ユーザー登録", ResponseURL: "https://hooks.slack.test/resp"}))
	// The request context going away must not abort the job.
	cancel()
	assert.Empty(t, sink.deliveries(), "dispatch must not block on the pipeline")
	close(release)

	got := waitForChannel(t, sink.done, time.Second)
	assert.Equal(t, "https://hooks.slack.test/resp", got.target)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	assert.NoError(t, d.Wait(waitCtx))
}

func TestGoDispatcherTimeoutBoundsJob(t *testing.T) {
	sink := &mockSink{}
	d := NewGoDispatcher(NewRunner(&mockTranslator{block: make(chan struct{})}, sink, nil), 20*time.Millisecond)

	_ = d.Dispatch(context.Background(), Invocation{Text: "x", ResponseURL: "https://hooks.slack.test/resp"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx), "job should end at its timeout")
	assert.Empty(t, sink.deliveries())
}

func TestInvocationJSONRoundTrip(t *testing.T) {
	in := Invocation{ID: "a", Text: "ユーザー登録", Casing: casing.Kebab, Command: "/kebab", UserName: "bob", TeamID: "T1", ResponseURL: "https://x"}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out Invocation
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func waitForChannel[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.FailNow(t, "timed out waiting for channel")
	}
	var zero T
	return zero
}
