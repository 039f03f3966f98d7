package opsclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/opsapi-client/internal/client"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
)

// New creates a new opsapi client.
func New(ctx context.Context, config *opsapi.Config) (opsapi.Client, error) {
	if config == nil {
		return nil, opsapi.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, opsapi.ErrAPIEndpointRequired
	}

	// Normalize API endpoint
	apiEndpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	if !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	config.APIEndpoint = apiEndpoint

	if config.SkipTLSVerify && !isDevelopmentEnvironment() {
		return nil, fmt.Errorf("%w (set OPSAPI_DEV_MODE=true)", opsapi.ErrSkipTLSOnlyInDev)
	}

	impl, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return impl, nil
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv("OPSAPI_DEV_MODE")

	return devMode == "true" || devMode == "1"
}
