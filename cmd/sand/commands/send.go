package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheusHen/SANd/internal/config"
	"github.com/TheusHen/SANd/sand"
)

// send <message>: link to a serving peer and deliver one message.
func sendCmd() *cobra.Command {
	var integrate bool
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Link to a serving peer and send one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd, cfg, args[0], integrate)
		},
	}
	cmd.Flags().String("connect", config.Defaults()["connect"].(string), "address of the serving peer")
	cmd.Flags().String("segment", "", "segmentation tag of this endpoint")
	cmd.Flags().BoolVar(&integrate, "integrate", false, "run the integration hook after the handshake")
	return cmd
}

func runSend(ctx context.Context, cmd *cobra.Command, c config.Config, message string, integrate bool) error {
	out := cmd.OutOrStdout()
	local, err := newConnection(c, "send", out)
	if err != nil {
		return err
	}
	defer local.Close()

	node := sand.NewNode(local, linkOptions(c, map[string]string{"compression": c.Compression}))
	defer node.Close()

	remote, err := node.Dial(ctx, c.Connect)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Linked to %s (segment %q, key %s)\n", c.Connect, remote.PeerSegment(), remote.PeerFingerprint().Short())

	if integrate {
		if err := local.RequestIntegration(ctx); err != nil {
			fmt.Fprintln(out, "Integration failed:", err)
		}
	}

	received, err := local.Send(message, remote)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Peer received:", received)
	return nil
}
