package main

import (
	"context"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the funnel over HTTP. Customers land on /review/{campaign} and
the address bar always shows the step they are on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("redis") {
			cfg.Store.Driver = config.StoreRedis
			cfg.Store.RedisAddr, _ = cmd.Flags().GetString("redis")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return withApp(cmd, cfg, false, func(ctx context.Context, app *cli.App) error {
			return cli.Serve(ctx, app)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for shared sessions (e.g. localhost:6379)")
}
