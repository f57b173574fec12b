package main

import (
	"github.com/clambin/gerald/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var (
	version    = "change-me"
	configFile string
	v          = config.New()

	rootCmd = &cobra.Command{
		Use:     "gerald",
		Short:   "Gerald, the lab's Slack bot",
		Version: version,
		RunE:    run,
	}
)

var flags = []struct {
	name  string
	key   string
	usage string
}{
	{name: "slack-bot-token", key: "slack.bot_token", usage: "Slack bot token (xoxb-...)"},
	{name: "slack-app-token", key: "slack.app_token", usage: "Slack app-level token for socket mode (xapp-...)"},
	{name: "ads-token", key: "ads.token", usage: "NASA/ADS API token. Without one, papers are looked up in the arXiv"},
	{name: "metrics-addr", key: "metrics.addr", usage: "address of the Prometheus metrics server. Blank disables it"},
	{name: "log-level", key: "log.level", usage: "log level (debug, info, warn, error)"},
	{name: "log-format", key: "log.format", usage: "log format (text or json)"},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "configuration file")
	for _, f := range flags {
		rootCmd.Flags().String(f.name, "", f.usage)
		if err := v.BindPFlag(f.key, rootCmd.Flags().Lookup(f.name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting gerald", "version", version)
	defer logger.Info("gerald stopped")
	return a.Run(ctx)
}
