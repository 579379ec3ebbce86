package main

import (
	"context"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [campaign]",
	Short: "Walk a review in the terminal",
	Long: `Runs the review funnel interactively. Without a campaign the demo runs,
which never contacts the backend. Type :back to return to the previous step
and :quit to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := cli.RunOptions{CampaignID: domain.DemoCampaignID}
		if len(args) > 0 {
			opts.CampaignID = args[0]
		}
		opts.Token, _ = cmd.Flags().GetString("token")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Plain, _ = cmd.Flags().GetBool("plain")

		return withApp(cmd, cfg, true, func(ctx context.Context, app *cli.App) error {
			return cli.RunSession(ctx, app, opts)
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("token", "", "Customer bearer token for the privileged backend")
	runCmd.Flags().Bool("json", false, "Exchange JSON lines on stdin/stdout")
	runCmd.Flags().Bool("plain", false, "Disable markdown styling")
}
