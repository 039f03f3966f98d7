package commands

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
	"github.com/spf13/cobra"
)

// NewOperationsCommand creates the operations command group.
func NewOperationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operations",
		Aliases: []string{"ops", "op"},
		Short:   "Manage long-running operations",
		Long:    "Inspect, wait on, cancel, and delete long-running operations",
	}

	cmd.AddCommand(newOperationsGetCommand())
	cmd.AddCommand(newOperationsListCommand())
	cmd.AddCommand(newOperationsWaitCommand())
	cmd.AddCommand(newOperationsCancelCommand())
	cmd.AddCommand(newOperationsDeleteCommand())

	return cmd
}

func newOperationsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get OPERATION_NAME",
		Short: "Get operation details",
		Long:  "Display the current state of a specific operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(0)
			defer cancel()

			op, err := client.Operations().Get(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to get operation: %w", err)
			}

			return outputOperation(op)
		},
	}
}

func newOperationsListCommand() *cobra.Command {
	var (
		filter    string
		pageSize  int
		pageToken string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operations",
		Long:  "List operations, optionally filtered server-side",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(0)
			defer cancel()

			list, err := client.Operations().List(ctx, &opsapi.ListOperationsOptions{
				Filter:    filter,
				PageSize:  pageSize,
				PageToken: pageToken,
			})
			if err != nil {
				return fmt.Errorf("failed to list operations: %w", err)
			}

			return outputOperationList(list)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "server-side filter expression")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "maximum operations per page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "token for the next page")

	return cmd
}

func newOperationsWaitCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait OPERATION_NAME",
		Short: "Wait for an operation to complete",
		Long:  "Poll an operation until it completes, fails, or the timeout elapses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(timeout)
			defer cancel()

			op, err := client.Operations().Wait(ctx, name)
			if err != nil && op == nil {
				return fmt.Errorf("failed to wait for operation: %w", err)
			}

			outputErr := outputOperation(op)
			if outputErr != nil {
				return outputErr
			}

			// An operation can complete with an embedded error; that is
			// still a command failure.
			if err != nil {
				return fmt.Errorf("operation completed with error: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "polling timeout")

	return cmd
}

func newOperationsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel OPERATION_NAME",
		Short: "Cancel an operation",
		Long:  "Ask the server to cancel a running operation (best-effort)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(0)
			defer cancel()

			err = client.Operations().Cancel(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to cancel operation: %w", err)
			}

			cmd.Printf("Cancellation requested for operation '%s'\n", name)

			return nil
		},
	}
}

func newOperationsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete OPERATION_NAME",
		Short: "Delete an operation record",
		Long:  "Delete the server-side record of an operation; the underlying work is unaffected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			client, err := CreateClientWithAPI(cmd.Flag("api").Value.String())
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(0)
			defer cancel()

			err = client.Operations().Delete(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to delete operation: %w", err)
			}

			cmd.Printf("Successfully deleted operation '%s'\n", name)

			return nil
		},
	}
}
