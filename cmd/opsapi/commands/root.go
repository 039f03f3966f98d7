// Package commands implements the opsapi CLI commands.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/fivetwenty-io/opsapi-client/pkg/opsclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	NotAvailable = "N/A"
)

// Common static errors used throughout the commands package.
var (
	ErrAPIEndpointRequired = errors.New("API endpoint is required (use --api or 'opsapi login')")
	ErrTokenRequired       = errors.New("authentication token is required")
)

// CreateClientWithAPI creates an API client from the given endpoint,
// falling back to the configured one when the flag is empty.
func CreateClientWithAPI(apiEndpoint string) (opsapi.Client, error) {
	if apiEndpoint == "" {
		apiEndpoint = viper.GetString("api")
	}

	if apiEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	config := &opsapi.Config{
		APIEndpoint:   apiEndpoint,
		AccessToken:   viper.GetString("token"),
		SkipTLSVerify: viper.GetBool("skip_ssl_validation"),
	}

	client, err := opsclient.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// saveConfig writes the current viper settings to ~/.opsapi/config.yml.
func saveConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding home directory: %w", err)
	}

	configDir := filepath.Join(home, ".opsapi")

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configFile := filepath.Join(configDir, "config.yml")

	settings := map[string]interface{}{
		"api":   viper.GetString("api"),
		"token": viper.GetString("token"),
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// renderJSON writes v to stdout as indented JSON.
func renderJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding to JSON: %w", err)
	}

	return nil
}

// renderYAML writes v to stdout as YAML.
func renderYAML(v interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding to YAML: %w", err)
	}

	return nil
}

// outputOperation renders a single operation in the configured format.
func outputOperation(op *opsapi.Operation) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return renderJSON(op)
	case OutputFormatYAML:
		return renderYAML(op)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		_ = table.Append("Name", op.Name)
		_ = table.Append("Done", fmt.Sprintf("%t", op.Done))

		if op.Error != nil {
			_ = table.Append("Error", fmt.Sprintf("%d: %s", op.Error.Code, op.Error.Message))
		}

		if len(op.Metadata) > 0 {
			_ = table.Append("Metadata", compactJSON(op.Metadata))
		}

		if len(op.Response) > 0 {
			_ = table.Append("Response", compactJSON(op.Response))
		}

		return table.Render()
	}
}

// outputOperationList renders a page of operations in the configured format.
func outputOperationList(list *opsapi.OperationList) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return renderJSON(list)
	case OutputFormatYAML:
		return renderYAML(list)
	default:
		if len(list.Operations) == 0 {
			_, _ = os.Stdout.WriteString("No operations found\n")

			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Name", "Done", "Error")

		for _, op := range list.Operations {
			errText := NotAvailable
			if op.Error != nil {
				errText = fmt.Sprintf("%d: %s", op.Error.Code, op.Error.Message)
			}

			_ = table.Append(op.Name, fmt.Sprintf("%t", op.Done), errText)
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}

		if list.NextPageToken != "" {
			_, _ = fmt.Fprintf(os.Stdout, "\nNext page token: %s\n", list.NextPageToken)
		}

		return nil
	}
}

// compactJSON renders raw JSON on a single line for table cells.
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer

	err := json.Compact(&buf, raw)
	if err != nil {
		return string(raw)
	}

	return buf.String()
}

// commandContext returns the context used by CLI invocations.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.Background(), func() {}
	}

	return context.WithTimeout(context.Background(), timeout)
}
