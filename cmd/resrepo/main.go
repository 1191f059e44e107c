// Command resrepo loads Android resource libraries into frozen repositories,
// maintains their binary snapshot cache, and inspects the result.
//
// Commands:
//   - load     : load a library (cache-aware) and print a summary
//   - dump     : print every item, or the style inheritance graph
//   - diff     : compare two libraries item by item
//   - pack     : write a prebuilt snapshot bundle
//   - validate : report definitions that would break a build
//   - version  : print build information
package main

import (
	"os"

	"github.com/fatih/color"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
