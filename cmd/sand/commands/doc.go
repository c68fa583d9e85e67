// Package commands defines the sand CLI.
//
// Commands
//
//   - demo        Link two in-process connections and send one message
//   - serve       Answer links on a QUIC address
//   - send        Link to a serving peer and send one message
//   - integrate   Run the host integration hooks
//   - config      Show or write the effective configuration
//
// Settings come from internal/config: flags override SAND_* environment
// variables, which override sand.yaml, which overrides the defaults.
package commands
