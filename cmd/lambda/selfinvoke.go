package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/joelklabo/codic-slack/internal/core"
)

const (
	// JobSource marks events carrying an accepted invocation.
	JobSource = "codic-slack.job"

	// WarmupSource identifies scheduled warmup pings.
	WarmupSource = "warmup"

	// WarmupDelay keeps warmed instances alive long enough to overlap.
	WarmupDelay = 75 * time.Millisecond
)

// Invoker is the slice of the Lambda client used here.
type Invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// JobEvent is the payload of the async self-invocation.
type JobEvent struct {
	Source     string          `json:"source"`
	Invocation core.Invocation `json:"invocation"`
}

// Dispatcher hands accepted invocations to a fresh async invocation of this
// function, so the URL request can return before Codic is called.
type Dispatcher struct {
	Invoker      Invoker
	FunctionName string
}

func (d *Dispatcher) Dispatch(ctx context.Context, inv core.Invocation) error {
	payload, err := json.Marshal(JobEvent{Source: JobSource, Invocation: inv})
	if err != nil {
		return errors.Wrap(err, "marshal job")
	}
	_, err = d.Invoker.Invoke(ctx, &lambdasdk.InvokeInput{
		FunctionName:   aws.String(d.FunctionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return errors.Wrapf(err, "invoke %s", d.FunctionName)
	}
	return nil
}

// WarmupEvent is a scheduled keep-warm ping. Concurrency asks the receiving
// instance to wake that many siblings.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse reports how many instances a ping kept warm.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// IsWarmupEvent decodes event as a warmup ping.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var w WarmupEvent
	if err := json.Unmarshal(event, &w); err != nil || w.Source != WarmupSource {
		return nil, false
	}
	return &w, true
}

// HandleWarmup answers a ping. Siblings are woken with concurrency 0 so the
// fan-out stops after one level; a failed wake only lowers the count.
func HandleWarmup(ctx context.Context, invoker Invoker, functionName string, warmup *WarmupEvent) (any, error) {
	warmed := 1
	if warmup != nil && warmup.Concurrency > 0 {
		warmed += wakeSiblings(ctx, invoker, functionName, warmup.Concurrency)
	}
	time.Sleep(WarmupDelay)
	return map[string]any{
		"statusCode": 200,
		"body":       WarmupResponse{Status: "warm", InstancesWarmed: warmed},
	}, nil
}

func wakeSiblings(ctx context.Context, invoker Invoker, functionName string, count int) int {
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return 0
	}
	var woken atomic.Int32
	var g errgroup.Group
	for i := 0; i < count; i++ {
		g.Go(func() error {
			_, err := invoker.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				return errors.Wrap(err, "wake sibling")
			}
			woken.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(woken.Load())
}
