package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"ics-egress/internal/auth"
	"ics-egress/internal/errors"
	"ics-egress/internal/logger"
	"ics-egress/internal/web"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the password-protected upload form",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetServerConfig()
		if err != nil {
			return err
		}
		defaults, err := GetJobDefaults()
		if err != nil {
			return err
		}
		gate, err := auth.NewGate(cfg.PasswordHash, cfg.Password)
		if err != nil {
			return err
		}
		if cfg.PasswordHash == "" {
			logger.Logger.Warnw("Using plain-text server.password; prefer server.password_hash")
		}

		srv := web.New(web.Options{
			BodyLimit:  cfg.BodyLimit,
			Production: cfg.Production,
			Gate:       gate,
			Defaults:   defaults,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Listen(cfg.Listen)
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case err := <-errCh:
			return errors.Wrapf(err, "listen on %s", cfg.Listen)
		case s := <-sig:
			logger.Logger.Infow("Shutting down", "signal", s.String())
			return srv.Shutdown()
		}
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (overrides server.listen)")
	serveCmd.Flags().Bool("production", false, "enable security headers")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("server.production", serveCmd.Flags().Lookup("production"))
}
