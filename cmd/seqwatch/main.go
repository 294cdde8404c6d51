// seqwatch prints the chunk files of a running seqsplit as each one is
// finalized.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/AgResearch/tardis/internal/chunkwatch"
	"github.com/AgResearch/tardis/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		statsFile  string
		interval   time.Duration
		configFile string
		verbose    bool
		showHelp   bool
		showVer    bool
	)

	fs := pflag.NewFlagSet("seqwatch", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&statsFile, "stats", "", "stats file that ends the watch once written")
	fs.DurationVar(&interval, "interval", 0, "poll interval (default: config watch.poll_interval)")
	fs.StringVar(&configFile, "config", "", "YAML config file")
	fs.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	fs.BoolVarP(&showHelp, "help", "h", false, "show help")
	fs.BoolVar(&showVer, "version", false, "show version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, fs)
			return cli.ExitSuccess
		}
		return cli.Fail(stderr, err)
	}
	if showHelp {
		printHelp(stderr, fs)
		return cli.ExitSuccess
	}
	if showVer {
		fmt.Fprintf(stdout, "seqwatch version %s\n", version)
		return cli.ExitSuccess
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "error: expected exactly one chunk template")
		fmt.Fprintln(stderr, "run 'seqwatch --help' for usage")
		return cli.ExitError
	}

	cfg, err := cli.LoadConfig(configFile)
	if err != nil {
		return cli.Fail(stderr, err)
	}
	logger, err := cli.NewLogger(stderr, cfg.Logging.Level, verbose)
	if err != nil {
		return cli.Fail(stderr, err)
	}
	if !fs.Changed("interval") {
		if interval, err = cfg.PollInterval(); err != nil {
			return cli.Fail(stderr, err)
		}
	}
	if interval <= 0 {
		return cli.Fail(stderr, fmt.Errorf("interval must be positive, got %s", interval))
	}

	w := &chunkwatch.Watcher{
		Template:  fs.Arg(0),
		StatsPath: statsFile,
		Interval:  interval,
		Logger:    logger,
	}
	n, err := w.Watch(ctx, func(_ int, path string) error {
		_, err := fmt.Fprintln(stdout, path)
		return err
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("watch interrupted", "chunks", n)
		return cli.ExitSuccess
	}
	if err != nil {
		return cli.Fail(stderr, err)
	}
	logger.Info("watch complete", "chunks", n)
	return cli.ExitSuccess
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `seqwatch - follow chunk files as seqsplit finalizes them

Usage:
  seqwatch [options] <template>

Prints the path of chunk 1, 2, ... as each appears under its final name.
In-progress files (ending in _) are never reported. With --stats the
watch ends once the stats file names the last chunk; otherwise it runs
until interrupted.

Options:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  seqwatch --stats 'chunks/reads.fq.chunk_stats$' 'chunks/reads.%%05d.fq'
`)
}
