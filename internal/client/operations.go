package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/opsapi-client/internal/http"
	"github.com/fivetwenty-io/opsapi-client/pkg/lro"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/retry"
)

// OperationsClient implements opsapi.OperationsClient.
type OperationsClient struct {
	httpClient *internalhttp.Client
	config     *opsapi.Config
	cache      opsapi.Cache
	sched      retry.Scheduler
}

// NewOperationsClient creates a new operations client.
func NewOperationsClient(httpClient *internalhttp.Client, config *opsapi.Config, cache opsapi.Cache) *OperationsClient {
	if cache == nil {
		cache = opsapi.NewNoOpCache()
	}

	return &OperationsClient{
		httpClient: httpClient,
		config:     config,
		cache:      cache,
		sched:      retry.SystemScheduler(),
	}
}

// Get implements opsapi.OperationsClient.Get. Terminal operations are
// immutable server-side, so they are served from the cache when present.
func (c *OperationsClient) Get(ctx context.Context, name string) (*opsapi.Operation, error) {
	if name == "" {
		return nil, opsapi.ErrOperationNameMissing
	}

	if cached := c.cachedOperation(ctx, name); cached != nil {
		return cached, nil
	}

	resp, err := c.httpClient.Get(ctx, "/v1/"+name, nil)
	if err != nil {
		return nil, fmt.Errorf("getting operation: %w", err)
	}

	var op opsapi.Operation

	err = unmarshalResponse(resp, &op)
	if err != nil {
		return nil, fmt.Errorf("parsing operation: %w", err)
	}

	c.cacheOperation(ctx, &op)

	return &op, nil
}

// List implements opsapi.OperationsClient.List.
func (c *OperationsClient) List(ctx context.Context, opts *opsapi.ListOperationsOptions) (*opsapi.OperationList, error) {
	query := url.Values{}

	if opts != nil {
		if opts.Filter != "" {
			query.Set("filter", opts.Filter)
		}

		if opts.PageSize > 0 {
			query.Set("pageSize", strconv.Itoa(opts.PageSize))
		}

		if opts.PageToken != "" {
			query.Set("pageToken", opts.PageToken)
		}
	}

	resp, err := c.httpClient.Get(ctx, "/v1/operations", query)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	var list opsapi.OperationList

	err = unmarshalResponse(resp, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing operation list: %w", err)
	}

	return &list, nil
}

// Cancel implements opsapi.OperationsClient.Cancel.
func (c *OperationsClient) Cancel(ctx context.Context, name string) error {
	if name == "" {
		return opsapi.ErrOperationNameMissing
	}

	_, err := c.httpClient.Post(ctx, "/v1/"+name+":cancel", nil)
	if err != nil {
		return fmt.Errorf("cancelling operation: %w", err)
	}

	return nil
}

// Delete implements opsapi.OperationsClient.Delete.
func (c *OperationsClient) Delete(ctx context.Context, name string) error {
	if name == "" {
		return opsapi.ErrOperationNameMissing
	}

	_, err := c.httpClient.Delete(ctx, "/v1/"+name)
	if err != nil {
		return fmt.Errorf("deleting operation: %w", err)
	}

	// The cache is advisory; a stale entry only costs one extra GET.
	_ = c.cache.Delete(ctx, name)

	return nil
}

// Wait implements opsapi.OperationsClient.Wait: it fetches the operation
// once, then drives it through the polling loop until it is done or the
// polling budget runs out.
func (c *OperationsClient) Wait(ctx context.Context, name string) (*opsapi.Operation, error) {
	if name == "" {
		return nil, opsapi.ErrOperationNameMissing
	}

	opts := c.callOptions()

	started := retry.Start(
		ctx,
		c.sched,
		retry.Idempotent,
		opts,
		c.getOperation,
		&opsapi.GetOperationRequest{Name: name},
		"OperationsClient.Wait",
	)

	future := lro.Start(ctx, c.sched, opts, started, c.getOperation, c.cancelOperation, "OperationsClient.Wait")

	op, err := future.Wait(ctx)
	if err != nil {
		return nil, err
	}

	c.cacheOperation(ctx, op)

	if opErr := op.Err(); opErr != nil {
		return op, opErr
	}

	return op, nil
}

// getOperation adapts Get to the retry loop's call shape.
func (c *OperationsClient) getOperation(ctx context.Context, _ retry.Scheduler, _ *retry.Options, req *opsapi.GetOperationRequest) *retry.Future[*opsapi.Operation] {
	return retry.Go(func() (*opsapi.Operation, error) {
		return c.Get(ctx, req.Name)
	})
}

// cancelOperation adapts Cancel to the polling loop's call shape.
func (c *OperationsClient) cancelOperation(ctx context.Context, _ retry.Scheduler, _ *retry.Options, req *opsapi.CancelOperationRequest) *retry.Future[struct{}] {
	return retry.Go(func() (struct{}, error) {
		return struct{}{}, c.Cancel(ctx, req.Name)
	})
}

// callOptions builds the per-call options snapshot from the client config.
func (c *OperationsClient) callOptions() *retry.Options {
	maxFailures := constants.DefaultRetryMaxFailures
	if c.config.RetryMaxFailures > 0 {
		maxFailures = c.config.RetryMaxFailures
	}

	backoffInitial := constants.DefaultBackoffInitial
	if c.config.BackoffInitial > 0 {
		backoffInitial = c.config.BackoffInitial
	}

	backoffMax := constants.DefaultBackoffMax
	if c.config.BackoffMax > 0 {
		backoffMax = c.config.BackoffMax
	}

	pollInterval := constants.DefaultPollInterval
	if c.config.PollInterval > 0 {
		pollInterval = c.config.PollInterval
	}

	pollTimeout := constants.DefaultPollTimeout
	if c.config.PollTimeout > 0 {
		pollTimeout = c.config.PollTimeout
	}

	pollBudget := retry.NewLimitedTimeRetryPolicy(pollTimeout).
		WithClassifier(func(error) bool { return true })

	return retry.NewOptions(
		retry.WithRetryPolicy(retry.NewLimitedErrorCountRetryPolicy(maxFailures)),
		retry.WithBackoffPolicy(retry.NewExponentialBackoffPolicy(
			backoffInitial, backoffMax, constants.DefaultBackoffMultiplier)),
		retry.WithLogger(c.config.Logger),
		retry.WithTracing(c.config.EnableTracing),
		lro.WithPollingPolicy(lro.NewGenericPollingPolicy(
			pollBudget, retry.NewFixedDelayBackoffPolicy(pollInterval))),
		lro.WithServerSideCancel(c.config.CancelOnAbort),
	)
}

// cachedOperation returns a cached terminal operation, if any.
func (c *OperationsClient) cachedOperation(ctx context.Context, name string) *opsapi.Operation {
	entry, err := c.cache.Get(ctx, name)
	if err != nil {
		return nil
	}

	var op opsapi.Operation

	err = json.Unmarshal(entry.Value, &op)
	if err != nil || !op.Done {
		return nil
	}

	return &op
}

// cacheOperation stores a terminal operation. Running operations are never
// cached: their state is about to change.
func (c *OperationsClient) cacheOperation(ctx context.Context, op *opsapi.Operation) {
	if op == nil || !op.Done {
		return
	}

	data, err := json.Marshal(op)
	if err != nil {
		return
	}

	ttl := c.config.Cache.EntryTTL()

	_ = c.cache.Set(ctx, op.Name, &opsapi.CacheEntry{
		Value:     data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// unmarshalResponse decodes a JSON response body.
func unmarshalResponse(resp *internalhttp.Response, v interface{}) error {
	return json.Unmarshal(resp.Body, v)
}
