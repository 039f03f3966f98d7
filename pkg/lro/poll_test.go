package lro_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/opsapi-client/pkg/lro"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/retry"
	"github.com/fivetwenty-io/opsapi-client/pkg/retry/retrytest"
	"github.com/fivetwenty-io/opsapi-client/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

const (
	testLocation = "test.Wait"
	testOpName   = "operations/op-1"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	return ctx
}

// pollOptions keeps both loops deterministic under a manual scheduler: polls
// are never retried internally (failures surface straight to the polling
// policy) and every wait is a fixed-delay timer.
func pollOptions(pollBudget int, extra ...retry.Option) *retry.Options {
	opts := []retry.Option{
		retry.WithRetryPolicy(retry.NewLimitedErrorCountRetryPolicy(1)),
		retry.WithBackoffPolicy(retry.NewFixedDelayBackoffPolicy(time.Second)),
		lro.WithPollingPolicy(lro.NewGenericPollingPolicy(
			retry.NewLimitedErrorCountRetryPolicy(pollBudget).
				WithClassifier(func(error) bool { return true }),
			retry.NewFixedDelayBackoffPolicy(time.Second),
		)),
	}

	return retry.NewOptions(append(opts, extra...)...)
}

// scriptedPoll returns one future per call, in order, then keeps returning
// the last one.
func scriptedPoll(calls *int32, results ...*retry.Future[*opsapi.Operation]) lro.PollFunc {
	return func(_ context.Context, _ retry.Scheduler, _ *retry.Options, req *opsapi.GetOperationRequest) *retry.Future[*opsapi.Operation] {
		n := int(atomic.AddInt32(calls, 1))
		if n > len(results) {
			n = len(results)
		}

		return results[n-1]
	}
}

func running() *opsapi.Operation {
	return &opsapi.Operation{Name: testOpName, Done: false}
}

func metadata(t *testing.T, err error, key string) string {
	t.Helper()

	value, ok := status.FromError(err).Metadata(key)
	require.True(t, ok, "metadata key %q missing from %v", key, err)

	return value
}

func TestStartPollsUntilDone(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	sched := retrytest.NewManualScheduler()

	done := &opsapi.Operation{Name: testOpName, Done: true, Response: []byte(`{"ok":true}`)}

	var polls int32

	poll := scriptedPoll(&polls,
		retry.Resolved(running()),
		retry.Resolved(done),
	)

	future := lro.Start(ctx, sched, pollOptions(10), retry.Resolved(running()), poll, nil, testLocation)

	// One wait per poll cycle: the first poll still reports running, the
	// second reports done.
	sched.NextTimer(t).Fire()
	sched.NextTimer(t).Fire()

	op, err := future.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Equal(t, testOpName, op.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
	assert.Equal(t, 2, sched.TimersCreated())
}

func TestStartResolvesImmediatelyCompletedOperation(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	sched := retrytest.NewManualScheduler()

	done := &opsapi.Operation{Name: testOpName, Done: true}

	var polls int32

	future := lro.Start(ctx, sched, pollOptions(10), retry.Resolved(done), scriptedPoll(&polls), nil, testLocation)

	op, err := future.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Equal(t, int32(0), atomic.LoadInt32(&polls))
	assert.Equal(t, 0, sched.TimersCreated())
}

func TestStartDeliversEmbeddedFailureAsResult(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	sched := retrytest.NewManualScheduler()

	failed := &opsapi.Operation{
		Name: testOpName,
		Done: true,
		Error: &opsapi.OperationError{
			Code:    int32(codes.FailedPrecondition),
			Message: "resource busy",
		},
	}

	var polls int32

	poll := scriptedPoll(&polls, retry.Resolved[*opsapi.Operation](failed))

	future := lro.Start(ctx, sched, pollOptions(10), retry.Resolved(running()), poll, nil, testLocation)

	sched.NextTimer(t).Fire()

	// The operation failed server-side but polling itself succeeded: the
	// future resolves to the terminal operation, whose Err carries the
	// embedded failure.
	op, err := future.Wait(ctx)
	require.NoError(t, err)
	require.NotNil(t, op)
	assert.Equal(t, codes.FailedPrecondition, status.Code(op.Err()))
}

func TestStartForwardsInitialFailureVerbatim(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	sched := retrytest.NewManualScheduler()

	initial := status.New(codes.PermissionDenied, "not allowed")
	started := retry.Rejected[*opsapi.Operation](initial)

	var polls int32

	future := lro.Start(ctx, sched, pollOptions(10), started, scriptedPoll(&polls), nil, testLocation)

	_, err := future.Wait(ctx)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	// The initiating call's failure passes through untouched; the polling
	// loop adds no diagnostic metadata of its own.
	_, ok := status.FromError(err).Metadata(retry.ReasonKey)
	assert.False(t, ok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&polls))
}

func TestStartKeepsPollingThroughTransientPollFailures(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	sched := retrytest.NewManualScheduler()

	done := &opsapi.Operation{Name: testOpName, Done: true}

	var polls int32

	poll := scriptedPoll(&polls,
		retry.Rejected[*opsapi.Operation](status.New(codes.Unavailable, "blip")),
		retry.Resolved(done),
	)

	future := lro.Start(ctx, sched, pollOptions(3), retry.Resolved(running()), poll, nil, testLocation)

	sched.NextTimer(t).Fire()
	sched.NextTimer(t).Fire()

	op, err := future.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
}

func TestStartGivesUpWhenPollingBudgetIsSpent(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	sched := retrytest.NewManualScheduler()

	var polls int32

	poll := scriptedPoll(&polls,
		retry.Rejected[*opsapi.Operation](status.New(codes.Unavailable, "blip")),
	)

	future := lro.Start(ctx, sched, pollOptions(1), retry.Resolved(running()), poll, nil, testLocation)

	sched.NextTimer(t).Fire()

	_, err := future.Wait(ctx)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, retry.ReasonPolicyExhausted, metadata(t, err, retry.ReasonKey))
	assert.Equal(t, "false", metadata(t, err, retry.OnEntryKey))
	assert.Equal(t, int32(1), atomic.LoadInt32(&polls))
}

func TestStartExhaustedBeforeFirstPoll(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	sched := retrytest.NewManualScheduler()

	var polls int32

	future := lro.Start(ctx, sched, pollOptions(0), retry.Resolved(running()), scriptedPoll(&polls), nil, testLocation)

	_, err := future.Wait(ctx)
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	assert.Equal(t, retry.ReasonPolicyExhausted, metadata(t, err, retry.ReasonKey))
	assert.Equal(t, "true", metadata(t, err, retry.OnEntryKey))
	assert.Equal(t, int32(0), atomic.LoadInt32(&polls))
	assert.Equal(t, 0, sched.TimersCreated())
}

func TestStartCancelDuringWaitStopsPolling(t *testing.T) {
	t.Parallel()

	sched := retrytest.NewManualScheduler()

	var (
		polls     int32
		cancelled int32
	)

	cancelOp := func(context.Context, retry.Scheduler, *retry.Options, *opsapi.CancelOperationRequest) *retry.Future[struct{}] {
		atomic.AddInt32(&cancelled, 1)

		return retry.Resolved(struct{}{})
	}

	future := lro.Start(context.Background(), sched, pollOptions(10), retry.Resolved(running()), scriptedPoll(&polls), cancelOp, testLocation)

	timer := sched.NextTimer(t)
	future.Cancel()

	_, err := future.Wait(context.Background())
	assert.Equal(t, codes.Canceled, status.Code(err))
	assert.Equal(t, retry.ReasonCancelled, metadata(t, err, retry.ReasonKey))
	assert.Equal(t, int32(0), atomic.LoadInt32(&polls), "no poll may start after cancellation")

	timer.Fire()
	assert.Equal(t, int32(0), atomic.LoadInt32(&polls))

	// Server-side cancel is off by default.
	assert.Equal(t, int32(0), atomic.LoadInt32(&cancelled))
}

func TestStartServerSideCancel(t *testing.T) {
	t.Parallel()

	sched := retrytest.NewManualScheduler()

	var polls int32

	cancelledName := make(chan string, 1)

	cancelOp := func(_ context.Context, _ retry.Scheduler, _ *retry.Options, req *opsapi.CancelOperationRequest) *retry.Future[struct{}] {
		cancelledName <- req.Name

		return retry.Resolved(struct{}{})
	}

	opts := pollOptions(10, lro.WithServerSideCancel(true))

	future := lro.Start(context.Background(), sched, opts, retry.Resolved(running()), scriptedPoll(&polls), cancelOp, testLocation)

	sched.NextTimer(t)
	future.Cancel()

	_, err := future.Wait(context.Background())
	assert.Equal(t, codes.Canceled, status.Code(err))

	select {
	case name := <-cancelledName:
		assert.Equal(t, testOpName, name)
	case <-time.After(5 * time.Second):
		t.Fatal("server-side cancel was not issued")
	}
}
