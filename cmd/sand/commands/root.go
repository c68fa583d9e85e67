package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TheusHen/SANd/internal/config"
	"github.com/TheusHen/SANd/internal/logging"
)

var (
	configFile string
	cfg        config.Config
	logger     *logrus.Logger
)

func Execute() error {
	return newRootCmd().Execute()
}

// Keys are generated per process, so only a dialer can pin the fingerprint a
// running server prints.
const trustedPeersUsage = "hex fingerprints allowed to complete a handshake; keys are regenerated on every run, " +
	"so this only works on send/demo to pin the fingerprint printed by a running serve"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sand",
		Short:         "SANd secure point-to-point connections",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cmd, configFile)
			if err != nil {
				return err
			}
			l, err := logging.New(c.LogLevel, c.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, logger = c, l
			return nil
		},
	}

	d := config.Defaults()
	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default searches the user config dir and .)")
	pf.String("log-level", d["log-level"].(string), "log level: debug, info, warn, error")
	pf.String("log-format", d["log-format"].(string), "log format: text or json")
	pf.String("keying", d["keying"].(string), "keying mode: x25519 or local")
	pf.String("compression", d["compression"].(string), "lz4 compression: off, fast, default, best")
	pf.Int("compression-threshold", d["compression-threshold"].(int), "smallest message that is compressed")
	pf.Bool("require-segmentation", false, "refuse to send or receive before a segmentation tag is set")
	pf.Duration("timeout", cfgDuration(d["timeout"]), "network timeout for dial and each message")
	pf.StringSlice("trusted-peers", nil, trustedPeersUsage)
	pf.String("integration-command", "", "shell command run on integration")
	pf.Bool("hardware", false, "also run the isooptic and spintronic placeholders on integration")

	root.AddCommand(demoCmd(), serveCmd(), sendCmd(), integrateCmd(), configCmd())
	return root
}
