// Package cli implements the statemon command-line interface.
//
// Each command is a cobra.Command declared at package level and registered
// in an init function. Commands load configuration through loadConfig, which
// applies flag overrides on top of the config file and validates the result.
//
// # Command Structure
//
// The root command "statemon" runs the dashboard. Subcommands:
//
//	statemon topics          - Scan the bus once and list estimator nodes
//	statemon reset <base>    - Reset one estimator and exit
//	statemon snapshot <base> - Record an estimator and save its plots as PNG
//	statemon simulate        - Publish a synthetic estimator
//	statemon init            - Create .statemon.yaml
//	statemon version         - Print version information
//	statemon completion      - Generate shell completion scripts
//
// # Flag Handling
//
// Global flags (--config, --no-color) live on the root command. Commands
// that talk to the broker take the bus flags (--broker, --client-id,
// --timeout) through AddBusFlags. Flags only override the config file when
// they are set explicitly.
//
// # Terminal Ownership
//
// While the dashboard runs it owns the terminal, so log output is redirected
// to the configured log file for the lifetime of the program.
package cli
