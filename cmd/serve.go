package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gnolang/qlint/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query checker over HTTP",
	Long: `Serve the query checker over HTTP.

Settings are read from flags or QLINT_ environment variables
(QLINT_ADDR, QLINT_MAX_BODY_BYTES, QLINT_SHUTDOWN_TIMEOUT).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServeConfig(cmd)
		if err != nil {
			return err
		}

		engine, err := newEngine("")
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		metrics := server.NewMetrics(prometheus.NewRegistry())
		handler := server.NewHandler(engine, metrics, logger, cfg.MaxBodyBytes)

		return server.ListenAndServe(ctx, cfg, handler.Routes(), logger)
	},
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().Int64("max-body-bytes", 64<<10, "Maximum request body size in bytes")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
}

// loadServeConfig resolves the server settings. Flags set on the command
// line win over QLINT_ environment variables, which win over defaults.
func loadServeConfig(cmd *cobra.Command) (server.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return server.Config{}, fmt.Errorf("error binding flags: %w", err)
	}

	cfg := server.Config{
		Addr:            v.GetString("addr"),
		MaxBodyBytes:    v.GetInt64("max-body-bytes"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
	}
	if cfg.Addr == "" {
		return server.Config{}, fmt.Errorf("listen address must not be empty")
	}
	return cfg, nil
}
