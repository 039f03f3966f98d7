// Package client holds the concrete implementation of the opsapi client
// interfaces: transport wiring plus the operations resource client.
package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/opsapi-client/internal/auth"
	internalhttp "github.com/fivetwenty-io/opsapi-client/internal/http"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
)

// Client implements opsapi.Client.
type Client struct {
	config     *opsapi.Config
	httpClient *internalhttp.Client
	operations *OperationsClient
}

// New creates a client from config. The config is expected to be validated
// and normalized by the opsclient package.
func New(_ context.Context, config *opsapi.Config) (*Client, error) {
	tokenManager := config.TokenManager
	if tokenManager == nil && config.AccessToken != "" {
		tokenManager = auth.NewStaticTokenManager(config.AccessToken)
	}

	httpClient := internalhttp.NewClientWithConfig(config.APIEndpoint, tokenManager, &internalhttp.Config{
		RetryMax:      config.RetryMax,
		RetryWaitMin:  config.RetryWaitMin,
		RetryWaitMax:  config.RetryWaitMax,
		Timeout:       config.HTTPTimeout,
		SkipTLSVerify: config.SkipTLSVerify,
		Logger:        config.Logger,
	})

	var (
		cache opsapi.Cache
		err   error
	)

	if config.Cache != nil {
		cache, err = opsapi.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("creating cache: %w", err)
		}
	} else {
		cache = opsapi.NewNoOpCache()
	}

	c := &Client{
		config:     config,
		httpClient: httpClient,
	}
	c.operations = NewOperationsClient(httpClient, config, cache)

	return c, nil
}

// Operations implements opsapi.Client.
func (c *Client) Operations() opsapi.OperationsClient {
	return c.operations
}

// GetInfo implements opsapi.Client.
func (c *Client) GetInfo(ctx context.Context) (*opsapi.Info, error) {
	resp, err := c.httpClient.Get(ctx, "/v1/info", nil)
	if err != nil {
		return nil, fmt.Errorf("getting info: %w", err)
	}

	var info opsapi.Info

	err = unmarshalResponse(resp, &info)
	if err != nil {
		return nil, fmt.Errorf("parsing info: %w", err)
	}

	return &info, nil
}
