package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/joelklabo/codic-slack/internal/app"
)

type handler struct {
	app          *app.App
	logger       *slog.Logger
	invoker      Invoker
	functionName string
	jobTimeout   time.Duration
}

type eventSource struct {
	Source string `json:"source"`
}

// handle routes the three event shapes this function receives: warmup
// pings, async jobs from Dispatcher, and function URL requests.
func (h *handler) handle(ctx context.Context, event json.RawMessage) (any, error) {
	var src eventSource
	_ = json.Unmarshal(event, &src)

	switch src.Source {
	case WarmupSource:
		warmup, _ := IsWarmupEvent(event)
		return HandleWarmup(ctx, h.invoker, h.functionName, warmup)
	case JobSource:
		h.runJob(ctx, event)
		return nil, nil
	}

	var req events.LambdaFunctionURLRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, errors.Wrap(err, "decode function url request")
	}
	return h.serveURL(ctx, req)
}

// runJob never returns an error: Lambda retries failed async invocations,
// and a retried job would post twice.
func (h *handler) runJob(ctx context.Context, event json.RawMessage) {
	var job JobEvent
	if err := json.Unmarshal(event, &job); err != nil {
		h.logger.Error("decode job", "err", err)
		return
	}
	if h.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.jobTimeout)
		defer cancel()
	}
	_ = h.app.Runner.Run(ctx, job.Invocation)
}

func (h *handler) serveURL(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	httpReq, err := toHTTPRequest(ctx, req)
	if err != nil {
		return events.LambdaFunctionURLResponse{StatusCode: http.StatusBadRequest}, nil
	}
	rw := newResponseBuffer()
	h.app.Server.Handler().ServeHTTP(rw, httpReq)
	return rw.toURLResponse(), nil
}

func toHTTPRequest(ctx context.Context, req events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, errors.Wrap(err, "decode base64 body")
		}
		body = string(raw)
	}

	method := req.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}
	path := req.RawPath
	if path == "" {
		path = "/"
	}
	u := "https://" + req.RequestContext.DomainName + path
	if req.RawQueryString != "" {
		u += "?" + req.RawQueryString
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", path)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	for _, c := range req.Cookies {
		httpReq.Header.Add("Cookie", c)
	}
	httpReq.RemoteAddr = req.RequestContext.HTTP.SourceIP
	return httpReq, nil
}

// responseBuffer collects a handler's response for the function URL
// reply.
type responseBuffer struct {
	header http.Header
	status int
	body   strings.Builder
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (r *responseBuffer) Header() http.Header { return r.header }

func (r *responseBuffer) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
}

func (r *responseBuffer) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *responseBuffer) toURLResponse() events.LambdaFunctionURLResponse {
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	headers := make(map[string]string, len(r.header))
	for k, v := range r.header {
		headers[k] = strings.Join(v, ",")
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       r.body.String(),
	}
}
