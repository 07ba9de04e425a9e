package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolback/tokenbridge/cmd/bridge/app"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bridge node",
	Long: `Start the bridge node with the specified configuration.

This command will:
1. Load configuration from the specified file
2. Initialize the ledger, registry and router
3. Start the HTTP API and metric servers
4. Handle graceful shutdown on interrupt`,
	PreRunE: validateStartFlags,
	RunE:    runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

// validateStartFlags checks if all required flags are provided
func validateStartFlags(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a := app.New(ctx)
	if err := a.Run(cfgFile, debugMode); err != nil {
		return fmt.Errorf("failed to start bridge node: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	return a.Shutdown()
}
