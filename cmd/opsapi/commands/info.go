package commands

import (
	"fmt"
	"os"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show API endpoint information",
		Long:  "Display name and version information for the targeted API endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(constants.ShortHTTPTimeout)
			defer cancel()

			info, err := client.GetInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to get API info: %w", err)
			}

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return renderJSON(info)
			case OutputFormatYAML:
				return renderYAML(info)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")

				_ = table.Append("Name", info.Name)
				_ = table.Append("Version", info.Version)
				_ = table.Append("API Version", info.APIVersion)

				return table.Render()
			}
		},
	}
}
