package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fivetwenty-io/opsapi-client/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		apiEndpoint string
		token       string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to an Operations API",
		Long:  "Store the API endpoint and bearer token used by subsequent commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
			}

			if apiEndpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API endpoint: ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
			}

			if apiEndpoint == "" {
				return ErrAPIEndpointRequired
			}

			if token == "" {
				fmt.Print("Token: ")

				byteToken, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read token: %w", err)
				}

				token = string(byteToken)

				fmt.Println()
			}

			if token == "" {
				return ErrTokenRequired
			}

			viper.Set("api", apiEndpoint)
			viper.Set("token", token)

			// Verify the credentials before persisting them
			client, err := CreateClientWithAPI(apiEndpoint)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(constants.ShortHTTPTimeout)
			defer cancel()

			info, err := client.GetInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to connect to API: %w", err)
			}

			err = saveConfig()
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Successfully logged in to %s\n", apiEndpoint)
			fmt.Printf("API version: %s\n", info.Version)

			return nil
		},
	}

	cmd.Flags().StringVarP(&apiEndpoint, "api", "a", "", "API endpoint URL")
	cmd.Flags().StringVarP(&token, "token", "t", "", "bearer token")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the Operations API",
		Long:  "Clear the stored authentication token",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("token", "")

			err := saveConfig()
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}
