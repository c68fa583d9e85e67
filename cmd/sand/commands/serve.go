package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TheusHen/SANd/internal/config"
	"github.com/TheusHen/SANd/sand"
	"github.com/TheusHen/SANd/sand/identity"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer links on a QUIC address until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}
	cmd.Flags().String("listen", config.Defaults()["listen"].(string), "UDP address to listen on")
	cmd.Flags().String("segment", "", "segmentation tag of this endpoint")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, c config.Config) error {
	out := cmd.OutOrStdout()
	local, err := newConnection(c, "serve", out)
	if err != nil {
		return err
	}
	defer local.Close()

	node := sand.NewNode(local, linkOptions(c, map[string]string{"compression": c.Compression}))
	if err := node.Listen(c.Listen); err != nil {
		return err
	}
	defer node.Close()

	fmt.Fprintf(out, "Listening on %s (key %s, keying %s)\n",
		node.ListenAddr(), identity.FingerprintOf(local.KeyMaterial()), local.Keying())

	if len(c.TrustedPeers) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: --trusted-peers on serve rejects every client, since client keys are regenerated on each run")
	}

	err = node.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
