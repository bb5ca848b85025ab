package main

import (
	"fmt"
	"os"

	"github.com/mjwhitta/cli"
	"github.com/rs/zerolog"
)

// Version info
var version = "0.1.0"

// Exit codes
const (
	ExitSuccess = iota
	ExitError
	ExitMissingArg
)

// Global flags
var flags struct {
	outfile string
	format  string
	cacheV  int
	limit   int
	verbose bool
}

// Command to run
var command string
var cmdArgs []string

var log zerolog.Logger

func init() {
	// Configure cli
	cli.Align = true
	cli.Authors = []string{"krbcred authors"}
	cli.Banner = fmt.Sprintf("%s [OPTIONS] <command> [args...]", os.Args[0])
	cli.Info(
		"krbcred - Kerberos credential cache toolkit",
		"",
		"Inspect, convert, and merge MIT credential caches (v3/v4)",
		"and .kirbi (KRB-CRED) ticket files.",
	)
	cli.ExitStatus(
		"0 - Success",
		"1 - Error",
	)

	// Define flags (short, long, default, description)
	cli.Flag(&flags.outfile, "o", "out", "", "Output file")
	cli.Flag(&flags.format, "f", "format", "", "Output format (ccache, kirbi, base64)")
	cli.Flag(&flags.cacheV, "c", "cache-version", 4, "Cache format version to write (3 or 4)")
	cli.Flag(&flags.limit, "l", "limit", 0, "Max decoded field length in bytes (0 = default)")
	cli.Flag(&flags.verbose, "v", "verbose", false, "Verbose output")

	// Commands section
	cli.Section("Commands",
		"  describe  Show cache or kirbi contents (klist style)\n",
		"  convert   Convert between ccache and kirbi\n",
		"  export    Extract credentials to a headerless record file\n",
		"  import    Append exported records to a cache\n",
		"  merge     Merge caches into one",
	)

	cli.Parse()

	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
	if flags.verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	// Get command from args
	if cli.NArg() == 0 {
		cli.Usage(ExitMissingArg)
	}

	command = cli.Arg(0)
	if cli.NArg() > 1 {
		cmdArgs = cli.Args()[1:]
	}
}

func main() {
	var err error
	switch command {
	case "describe", "klist":
		err = cmdDescribe(cmdArgs)
	case "convert":
		err = cmdConvert(cmdArgs)
	case "export":
		err = cmdExport(cmdArgs)
	case "import":
		err = cmdImport(cmdArgs)
	case "merge":
		err = cmdMerge(cmdArgs)
	case "version":
		fmt.Println(version)
	case "help":
		cli.Usage(ExitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.Usage(ExitError)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
