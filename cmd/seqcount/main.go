// seqcount counts the records in FASTA/FASTQ files, exactly or by
// extrapolating from a compressed preview of the first records.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/AgResearch/tardis/internal/cli"
	"github.com/AgResearch/tardis/internal/count"
	"github.com/AgResearch/tardis/internal/input"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		approximate bool
		listFiles   bool
		configFile  string
		workers     int
		verbose     bool
		showHelp    bool
		showVer     bool
	)

	fs := pflag.NewFlagSet("seqcount", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&approximate, "approximate", "a", false, "estimate from a preview of the first records")
	fs.BoolVarP(&listFiles, "list", "l", false, "inputs are files listing input paths, one per line")
	fs.StringVar(&configFile, "config", "", "YAML config file")
	fs.IntVarP(&workers, "jobs", "j", 0, "files counted concurrently (default: config count.workers, 0 = NumCPU)")
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
		fmt.Fprintf(stdout, "seqcount version %s\n", version)
		return cli.ExitSuccess
	}

	cfg, err := cli.LoadConfig(configFile)
	if err != nil {
		return cli.Fail(stderr, err)
	}
	logger, err := cli.NewLogger(stderr, cfg.Logging.Level, verbose)
	if err != nil {
		return cli.Fail(stderr, err)
	}
	if !fs.Changed("jobs") {
		workers = cfg.Count.Workers
	}
	if workers < 0 {
		return cli.Fail(stderr, fmt.Errorf("jobs must not be negative, got %d", workers))
	}

	paths, err := collectInputs(fs.Args(), listFiles)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintln(stderr, "run 'seqcount --help' for usage")
		return cli.ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	total, err := count.Files(ctx, paths, count.Options{
		Approximate: approximate,
		SampleSize:  cfg.Count.SampleSize,
		TempDir:     cfg.Count.TempDir,
		Workers:     workers,
		Logger:      logger,
	})
	if err != nil {
		return cli.Fail(stderr, err)
	}

	fmt.Fprintln(stdout, total)
	return cli.ExitSuccess
}

// collectInputs expands list files and rejects reading stdin more than once.
func collectInputs(args []string, listFiles bool) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("no input files")
	}

	var paths []string
	for _, arg := range args {
		if !listFiles {
			paths = append(paths, arg)
			continue
		}
		listed, err := count.ReadListFile(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return nil, errors.New("list files name no inputs")
	}

	for _, p := range paths {
		if input.IsStdin(p) && len(paths) > 1 {
			return nil, errors.New("stdin can only be counted on its own")
		}
	}
	return paths, nil
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `seqcount - count FASTA/FASTQ records

Usage:
  seqcount [options] <input>...

Prints the total number of records across all inputs. Inputs may be
plain, gzip, bzip2, xz or zip compressed; "-" reads stdin.

With -a the first records are re-written to a temporary preview and the
count is extrapolated from the preview's size relative to the input.
Files smaller than the preview are counted exactly. Stdin cannot be
estimated.

Options:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  seqcount reads.fq.gz
  seqcount -a lane1.fq.gz lane2.fq.gz
  seqcount -l -j 4 inputs.txt
  zcat reads.fq.gz | seqcount -
`)
}
