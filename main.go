package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"policyflow/cmd/notificationconsumer"
	"policyflow/cmd/outboxpublisher"
	"policyflow/cmd/quoteservice"
	"policyflow/cmd/quotesweeper"
	"policyflow/internal/cli"
)

func main() {
	// check for help flag first
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	if mode == "" {
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case cli.ModeQuote:
		fs := flag.NewFlagSet(cli.ModeQuote, flag.ContinueOnError)
		port := fs.Int("port", 3000, "HTTP port for the API")
		maxConc := fs.Int("max-concurrent", 50, "Maximum number of concurrent requests")
		cli.AttachUsage(fs, cli.ModeQuote)

		if err := fs.Parse(svcArgs); err != nil {
			exitOnFlagError(err)
		}

		if *port <= 0 || *port > 65535 {
			fmt.Fprintln(os.Stderr, "Error: --port must be between 1 and 65535")
			fs.Usage()
			os.Exit(2)
		}
		if *maxConc <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be > 0")
			fs.Usage()
			os.Exit(2)
		}

		if err := quoteservice.Run(ctx, *port, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModePublisher:
		fs := flag.NewFlagSet(cli.ModePublisher, flag.ContinueOnError)
		interval := fs.Duration("interval", 2*time.Second, "Delay between outbox drain cycles")
		batchSize := fs.Int("batch-size", 50, "Maximum outbox events per drain cycle")
		cli.AttachUsage(fs, cli.ModePublisher)

		if err := fs.Parse(svcArgs); err != nil {
			exitOnFlagError(err)
		}

		if *interval <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --interval must be > 0")
			fs.Usage()
			os.Exit(2)
		}
		if *batchSize <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --batch-size must be > 0")
			fs.Usage()
			os.Exit(2)
		}

		if err := outboxpublisher.Run(ctx, *interval, *batchSize); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeConsumer:
		fs := flag.NewFlagSet(cli.ModeConsumer, flag.ContinueOnError)
		prefetch := fs.Int("prefetch", 10, "RabbitMQ prefetch count")
		cli.AttachUsage(fs, cli.ModeConsumer)

		if err := fs.Parse(svcArgs); err != nil {
			exitOnFlagError(err)
		}

		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}

		if err := notificationconsumer.Run(ctx, *prefetch); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeSweeper:
		fs := flag.NewFlagSet(cli.ModeSweeper, flag.ContinueOnError)
		interval := fs.Duration("interval", time.Minute, "Delay between expiry sweeps")
		maxAge := fs.Duration("max-age", 24*time.Hour, "Age after which a pending quote expires")
		cli.AttachUsage(fs, cli.ModeSweeper)

		if err := fs.Parse(svcArgs); err != nil {
			exitOnFlagError(err)
		}

		if *interval <= 0 || *maxAge <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --interval and --max-age must be > 0")
			fs.Usage()
			os.Exit(2)
		}

		if err := quotesweeper.Run(ctx, *interval, *maxAge); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}
}

func exitOnFlagError(err error) {
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(2)
}
