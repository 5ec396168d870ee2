package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plughub-io/plughub/cmd/plughub-server/app/options"
	"github.com/plughub-io/plughub/pkg/log"
)

const commandDesc = `The PlugHub server bridges a smart power socket to people doing laundry:
it tracks the socket's reports over MQTT, guards power switching behind
one-time verification codes delivered via DingTalk, and serves the status
API together with a live WebSocket feed.`

// NewHubCommand builds the plughub-server root command.
func NewHubCommand(ctx context.Context) *cobra.Command {
	opts := options.NewHubOptions()
	cmd := &cobra.Command{
		Use:   "plughub-server",
		Short: "Launch the socket hub server",
		Long:  commandDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Complete(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to load configuration file: %w", err)
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			log.Init(opts.Log)

			cfg, err := opts.Config()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			server, err := cfg.NewHubServer()
			if err != nil {
				return fmt.Errorf("failed to create hub server: %w", err)
			}

			return server.Run(ctx)
		},
		SilenceUsage: true,
	}

	opts.AddFlags(cmd.Flags())

	return cmd
}
