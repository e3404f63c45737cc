package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/labstack/gommon/log"
	flag "github.com/spf13/pflag"
)

// version is set at build time via ldflags.
var version = "dev"

// errUsage marks errors already reported alongside the usage text.
var errUsage = errors.New("usage error")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		return runServe(rest, stderr)
	case "render":
		return runRender(rest, stdin, stdout, stderr)
	case "import":
		return runImport(rest, stdout, stderr)
	case "init":
		return runInit(rest, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "marginalia %s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printUsage(stderr)
		return errUsage
	}
}

// newLogger returns a CLI logger writing plain leveled lines to w.
func newLogger(w io.Writer) *log.Logger {
	l := log.New("marginalia")
	l.SetOutput(w)
	l.SetHeader("${level} ${prefix}:")
	l.SetLevel(log.INFO)
	return l
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	return fs
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `marginalia - a markdown blog engine with sidenotes

Usage:
  marginalia <command> [flags] [arguments]

Commands:
  serve           Run the blog server
  render [file]   Render markdown from a file or stdin to HTML
  import <path>   Import markdown files with frontmatter into the snapshot
  init <dir>      Create a new site directory
  version         Print the marginalia version
  help            Show this help message

Examples:
  marginalia init myblog
  marginalia serve --config myblog/config.yaml
  marginalia render --sidenotes --page --title "Draft" draft.md > draft.html
  marginalia import --config config.yaml posts/`)
}
