package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// demo: two connections in one process, key exchange, tags, one message.
func demoCmd() *cobra.Command {
	var (
		message   string
		integrate bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Link two in-process connections and send one message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			a, err := newConnection(cfg, "A", out)
			if err != nil {
				return err
			}
			defer a.Close()
			b, err := newConnection(cfg, "B", out)
			if err != nil {
				return err
			}
			defer b.Close()

			keyForB, keyForA := a.KeyMaterial(), b.KeyMaterial()
			if !a.Handshake(keyForA) {
				return fmt.Errorf("connection A handshake failed: %w", a.LastHandshakeError())
			}
			fmt.Fprintln(out, "Connection A: handshake successful, peer authenticated.")
			if !b.Handshake(keyForB) {
				return fmt.Errorf("connection B handshake failed: %w", b.LastHandshakeError())
			}
			fmt.Fprintln(out, "Connection B: handshake successful, peer authenticated.")

			if err := a.SetSegmentation("Segment_A"); err != nil {
				return err
			}
			if err := b.SetSegmentation("Segment_B"); err != nil {
				return err
			}
			fmt.Fprintln(out, "Segmentation set to: Segment_A / Segment_B")

			if integrate {
				if err := a.RequestIntegration(cmd.Context()); err != nil {
					fmt.Fprintln(out, "Integration failed:", err)
				} else {
					fmt.Fprintln(out, "Integration successful.")
				}
			}

			received, err := a.Send(message, b)
			if err != nil {
				return fmt.Errorf("SANd simulation: %w", err)
			}
			fmt.Fprintln(out, "Connection B received:", received)
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "Hello from A", "message A sends to B")
	cmd.Flags().BoolVar(&integrate, "integrate", true, "run the integration hook on A before sending")
	return cmd
}
