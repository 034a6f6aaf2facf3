package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeQuote     = "quote-service"
	ModePublisher = "outbox-publisher"
	ModeConsumer  = "notification-consumer"
	ModeSweeper   = "quote-sweeper"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeQuote, "quote", "quotes":
		return ModeQuote, true
	case ModePublisher, "publisher", "outbox":
		return ModePublisher, true
	case ModeConsumer, "consumer", "notifications":
		return ModeConsumer, true
	case ModeSweeper, "sweeper", "sweep":
		return ModeSweeper, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `quote-service --port=3000`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "--mode=") {
			mode = strings.TrimPrefix(arg, "--mode=")
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, nil
	}

	if m, ok := isKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage:
  ./policyflow --mode=<service> [flags]

Services (modes):
  quote-service              HTTP API for creating and accepting quotes
  outbox-publisher           Drains the outbox and publishes issuance events
  notification-consumer      Consumes issuance events and sends notifications
  quote-sweeper              Expires stale pending quotes

Examples:
  ./policyflow --mode=quote-service --port=3000 --max-concurrent=50
  ./policyflow --mode=outbox-publisher --interval=2s --batch-size=50
  ./policyflow --mode=notification-consumer --prefetch=10
  ./policyflow --mode=quote-sweeper --interval=1m --max-age=24h`)
}

func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./policyflow --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
