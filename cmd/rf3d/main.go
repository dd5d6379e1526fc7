// Command rf3d resolves field type tags and inspects radiation field files.
//
//	rf3d dtype <tag>...     classify type tags
//	rf3d inspect <file>...  print file and layer headers
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wzqhbustb/radfield/radfield"
)

const usage = `usage: rf3d [flags] <command> [args]

commands:
  dtype <tag>...      resolve type tags to element kinds and sizes
  inspect <file>...   print the headers of field files

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("rf3d", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	noColor := flags.BoolP("no-color", "n", false, "disable colored output")
	verbose := flags.BoolP("verbose", "v", false, "log debug events to stderr")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if *noColor {
		color.NoColor = true
	}
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			radfield.SetLogger(logger)
			defer logger.Sync()
		}
	}

	rest := flags.Args()
	if len(rest) < 2 {
		flags.Usage()
		return 2
	}

	switch rest[0] {
	case "dtype":
		return runDType(rest[1:], stdout, stderr)
	case "inspect":
		return runInspect(rest[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		flags.Usage()
		return 2
	}
}

func runDType(tags []string, stdout, stderr io.Writer) int {
	status := 0
	for _, tag := range tags {
		if err := displayDType(stdout, tag); err != nil {
			printError(stderr, err)
			status = 1
		}
	}
	return status
}

func runInspect(paths []string, stdout, stderr io.Writer) int {
	status := 0
	for _, path := range paths {
		info, err := radfield.InspectFile(path)
		if err != nil {
			printError(stderr, err)
			status = 1
			continue
		}
		displayFileInfo(stdout, path, info)
	}
	return status
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.RedString("ERROR:"), err)
}
