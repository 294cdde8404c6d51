// seqsplit splits a FASTA/FASTQ file into numbered chunk files, optionally
// keeping a random sample of the records.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/AgResearch/tardis/internal/cli"
	"github.com/AgResearch/tardis/internal/count"
	"github.com/AgResearch/tardis/internal/format"
	"github.com/AgResearch/tardis/internal/input"
	"github.com/AgResearch/tardis/internal/parser"
	"github.com/AgResearch/tardis/internal/split"
	"github.com/AgResearch/tardis/internal/stats"
)

var version = "dev"

type options struct {
	inputFile  string
	chunkSize  int64
	template   string
	shape      format.Shape
	sampling   bool
	proportion float64
	statsFile  string
	outDir     string
	validate   bool
	derived    bool // template derived from the input name
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		formatName string
		statsFile  string
		outDir     string
		configFile string
		proportion float64
		validate   bool
		verbose    bool
		showHelp   bool
		showVer    bool
	)

	fs := pflag.NewFlagSet("seqsplit", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&formatName, "format", "o", "", "output format: fasta or fastq (required)")
	fs.Float64VarP(&proportion, "sample", "s", 0, "keep each record with probability `p` in [0,1]")
	fs.StringVarP(&statsFile, "stats", "f", "", "write chunk stats to this file")
	fs.StringVarP(&outDir, "outdir", "d", "", "directory for derived chunk names (default: config split.out_dir)")
	fs.BoolVar(&validate, "validate", false, "only parse the input and print its record count")
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
		fmt.Fprintf(stdout, "seqsplit version %s\n", version)
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

	if !fs.Changed("format") {
		formatName = cfg.Split.OutputFormat
	}
	if !fs.Changed("outdir") {
		outDir = cfg.Split.OutDir
	}
	opts, err := resolveOptions(fs.Args(), formatName, fs.Changed("sample"), proportion, statsFile, outDir, validate)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintln(stderr, "run 'seqsplit --help' for usage")
		return cli.ExitError
	}

	if err := execute(opts, stdout, logger); err != nil {
		return cli.Fail(stderr, err)
	}
	return cli.ExitSuccess
}

// resolveOptions checks every argument before any file is touched.
func resolveOptions(args []string, formatName string, sampling bool, proportion float64, statsFile, outDir string, validate bool) (options, error) {
	opts := options{
		sampling:   sampling,
		proportion: proportion,
		statsFile:  statsFile,
		outDir:     outDir,
		validate:   validate,
	}
	if len(args) < 2 || len(args) > 3 {
		return opts, fmt.Errorf("expected <input> <chunksize> [template], got %d arguments", len(args))
	}
	opts.inputFile = args[0]

	n, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || n < 1 {
		return opts, fmt.Errorf("chunk size must be a positive integer, got %q", args[1])
	}
	opts.chunkSize = n

	if formatName == "" {
		return opts, errors.New("output format is required: use -o fasta or -o fastq")
	}
	if opts.shape, err = format.ParseShape(formatName); err != nil {
		return opts, err
	}
	if sampling && (proportion < 0 || proportion > 1) {
		return opts, fmt.Errorf("sampling proportion must be in [0,1], got %v", proportion)
	}

	if len(args) == 3 {
		opts.template = args[2]
	} else {
		if input.IsStdin(opts.inputFile) {
			return opts, errors.New("a chunk template is required when reading stdin")
		}
		opts.template = split.TemplateFor(opts.inputFile, outDir)
		opts.derived = true
		if opts.statsFile == "" {
			opts.statsFile = split.StatsPathFor(opts.inputFile, outDir)
		}
	}
	if err := split.ValidateTemplate(opts.template); err != nil {
		return opts, err
	}

	if sampling && proportion > 0 {
		opts.chunkSize = split.ScaleChunkSize(opts.chunkSize, proportion)
	}
	return opts, nil
}

func execute(opts options, stdout io.Writer, logger *slog.Logger) error {
	splitter, err := split.New(split.Options{
		ChunkSize:  opts.chunkSize,
		Template:   opts.template,
		Shape:      opts.shape,
		Sampling:   opts.sampling,
		Proportion: opts.proportion,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	in, err := input.Open(opts.inputFile)
	if err != nil {
		return fmt.Errorf("cannot open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	detected, err := format.DetectShape(in.Reader)
	if err != nil {
		return fmt.Errorf("cannot inspect input: %w", err)
	}
	if detected == format.FASTA && opts.shape == format.FASTQ {
		return errors.New("cannot write FASTA input as fastq: records have no quality")
	}

	src := parser.New(in.Reader)
	if opts.validate {
		n, err := count.Exact(src)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, n)
		return nil
	}

	if opts.derived {
		if err := os.MkdirAll(opts.outDir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	res, err := splitter.Run(src)
	if err != nil {
		return err
	}
	logger.Info("split complete", "input", opts.inputFile, "chunks", res.Chunks, "records", res.Records)

	if opts.statsFile != "" {
		if err := stats.Write(opts.statsFile, stats.Stats{Chunks: res.Chunks, Records: res.Records}); err != nil {
			return err
		}
	}
	return nil
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `seqsplit - split FASTA/FASTQ into chunk files

Usage:
  seqsplit -o fasta|fastq [options] <input> <chunksize> [template]

The template holds one integer verb, e.g. reads.%%05d.fq. Chunks are
written as <name>_ and renamed to <name> once complete. Without a
template, chunks are named <outdir>/<base>.%%05d<ext> and stats go to
<outdir>/<base><ext>.chunk_stats$ unless -f is given. With -s the chunk
size counts input records and is scaled by the sampling proportion.

Exit status is 0 on success, 1 on configuration or I/O errors and 2
on malformed input.

Options:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  seqsplit -o fastq reads.fq.gz 1000000
  seqsplit -o fasta -s 0.01 -d /scratch/chunks reads.fq.gz 1000000
  zcat reads.fq.gz | seqsplit -o fastq -f reads.stats - 500000 chunk.%%04d.fq
`)
}
