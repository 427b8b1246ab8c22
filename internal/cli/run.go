package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coreutils/goshred/internal/config"
	"github.com/coreutils/goshred/internal/isaac"
	"github.com/coreutils/goshred/internal/shred"
	"github.com/coreutils/goshred/internal/wipefs"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns the process exit code: 0 if every
// target was processed to completion, 1 if any target failed or the
// arguments themselves were invalid, 130 if a signal arrived on sigCh before
// the targets were done. sigCh can be nil if signal handling is
// not needed (e.g., in tests).
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env []string, sigCh <-chan os.Signal) int {
	cmdIO := NewIO(out, errOut)

	flags := flag.NewFlagSet("shred", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flagHelp := flags.BoolP("help", "h", false, "Show help")
	flagForce := flags.BoolP("force", "f", false, "Change permissions to allow writing if necessary")
	flagIterations := flags.IntP("iterations", "n", 0, "Overwrite N times instead of the default")
	flagSize := flags.StringP("size", "s", "", "Shred this many bytes (suffixes like K, M, G accepted)")
	flagRemove := flags.BoolP("remove", "u", false, "Truncate and remove the file after overwriting")
	flagVerbose := flags.BoolP("verbose", "v", false, "Show progress")
	flagExact := flags.BoolP("exact", "x", false, "Do not round file sizes up to the next full block")
	flagZero := flags.BoolP("zero", "z", false, "Add a final overwrite with zeros to hide shredding")
	flagCwd := flags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := flags.StringP("config", "c", "", "Use specified config `file`")

	if err := flags.Parse(args[1:]); err != nil {
		cmdIO.ErrPrintln("error:", err)
		printUsage(errOut)

		return 1
	}

	if *flagHelp {
		printUsage(out)

		return 0
	}

	targets := flags.Args()
	if len(targets) == 0 {
		cmdIO.ErrPrintln("error:", errNoTargets)
		printUsage(errOut)

		return 1
	}

	workDir := *flagCwd
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		}
	}

	cliOverrides := config.Config{
		Passes:        *flagIterations,
		Verbose:       *flagVerbose,
		ExactSize:     *flagExact,
		ForceWritable: *flagForce,
	}

	overrides := config.Overrides{
		Passes:        flags.Changed("iterations"),
		Verbose:       flags.Changed("verbose"),
		ExactSize:     flags.Changed("exact"),
		ForceWritable: flags.Changed("force"),
	}

	cfg, _, err := config.Load(workDir, *flagConfig, cliOverrides, overrides, env)
	if err != nil {
		cmdIO.ErrPrintln("error:", err)

		return 1
	}

	var size *int64

	if flags.Changed("size") {
		n, err := parseSize(*flagSize)
		if err != nil {
			cmdIO.ErrPrintln("error:", err)

			return 1
		}

		size = &n
	}

	opts := shred.Options{
		Passes:         cfg.Passes,
		Size:           size,
		RemoveAfter:    *flagRemove,
		Verbose:        cfg.Verbose,
		ExactSize:      cfg.ExactSize,
		AppendZeroPass: *flagZero,
		ForceWritable:  cfg.ForceWritable,
	}

	entropy := isaac.EntropySources{URandomPath: cfg.URandomPath, RandomPath: cfg.RandomPath}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		done <- wipeAll(ctx, wipefs.NewReal(), entropy, targets, opts, ioDiag{io: cmdIO})
	}()

	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		cmdIO.ErrPrintln("shutting down with 5s timeout...")
		cancel()
	}

	select {
	case <-done:
		cmdIO.ErrPrintln("graceful shutdown ok (130)")

		return 130
	case <-time.After(5 * time.Second):
		cmdIO.ErrPrintln("graceful shutdown timed out, forced exit (130)")

		return 130
	case <-sigCh:
		cmdIO.ErrPrintln("graceful shutdown interrupted, forced exit (130)")

		return 130
	}
}

// wipeAll processes every target in order, continuing past a failed target
// so one bad target doesn't prevent the rest from being wiped. It returns 1
// if any target failed, 0 if all succeeded, and 130 if ctx is cancelled
// before the next target starts.
func wipeAll(ctx context.Context, wfs wipefs.FS, entropy isaac.EntropySources, targets []string, opts shred.Options, diag shred.Diag) int {
	exitCode := 0

	for _, target := range targets {
		if ctx.Err() != nil {
			return 130
		}

		if err := shred.WipeTarget(wfs, entropy, target, opts, diag); err != nil {
			exitCode = 1
		}
	}

	return exitCode
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const usageText = `Usage: shred [OPTION]... FILE...
Overwrite FILE(s) to hide their contents, and optionally delete them.

  -f, --force            change permissions to allow writing if necessary
  -n, --iterations=N     overwrite N times instead of the default
  -s, --size=BYTES       shred this many bytes (suffixes like K, M, G accepted)
  -u, --remove           truncate and remove the file after overwriting
  -v, --verbose          show progress
  -x, --exact            do not round file sizes up to the next full block
  -z, --zero             add a final overwrite with zeros to hide shredding
  -C, --cwd=DIR          run as if started in DIR
  -c, --config=FILE      use specified config file
  -h, --help             show this help

If FILE is -, standard output is shredded. If FILE is of the form
/dev/fd/N, descriptor N is shredded directly.`

func printUsage(w io.Writer) {
	fprintln(w, usageText)
}
