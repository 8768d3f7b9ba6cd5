package slackhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelklabo/codic-slack/internal/compose"
)

func TestDeliverPostsJSON(t *testing.T) {
	var body, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := New(Config{}).Deliver(context.Background(), compose.Apology(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"text":"何も変換出来ない:thinking_face:"}`, body)
}

func TestDeliverStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no_service")
	}))
	defer srv.Close()

	err := New(Config{}).Deliver(context.Background(), compose.Apology(), srv.URL)
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no_service", se.Body)
}

func TestDeliverEmptyTarget(t *testing.T) {
	require.Error(t, New(Config{}).Deliver(context.Background(), compose.Apology(), " "))
}
