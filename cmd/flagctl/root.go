package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/upkflags/editor"
	"github.com/joshuapare/upkflags/internal/format"
	"github.com/joshuapare/upkflags/internal/logger"
	"github.com/joshuapare/upkflags/internal/mmfile"
	"github.com/joshuapare/upkflags/upk"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	eagerStats bool
	buildName  string
)

var rootCmd = &cobra.Command{
	Use:   "flagctl",
	Short: "Inspect and edit flags of Unreal package files",
	Long: `flagctl reads Unreal Engine 1-3 package files and edits the flag
words of the package, its exports and their bodies in place. Edits can be
made one at a time or applied in bulk from an instruction file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.Options{Enabled: verbose, Debug: verbose, NoColor: noColor})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&eagerStats, "eager-stats", false, "Recount pending changes after every edit")
	rootCmd.PersistentFlags().StringVar(&buildName, "build", "", "Force a licensee build instead of detecting it")
}

// exitError carries a process exit code without a message of its own.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		printError("%v\n", err)
		os.Exit(1)
	}
}

// parseBuild resolves --build. An empty name leaves detection on.
func parseBuild() (format.Build, error) {
	if buildName == "" {
		return format.BuildDefault, nil
	}
	b, ok := format.ParseBuild(buildName)
	if !ok {
		return format.BuildDefault, errors.Errorf("unknown build %q", buildName)
	}
	return b, nil
}

// engineOptions turns the global flags into editor options.
func engineOptions() ([]editor.Option, error) {
	b, err := parseBuild()
	if err != nil {
		return nil, err
	}
	opts := []editor.Option{editor.WithBuild(b)}
	if eagerStats {
		opts = append(opts, editor.WithStatsPolicy(editor.StatsEager))
	}
	return opts, nil
}

// openEngine loads path into a new engine built from base and the global
// flags.
func openEngine(path string, base editor.Options, extra ...editor.Option) (*editor.Engine, error) {
	opts, err := engineOptions()
	if err != nil {
		return nil, err
	}
	e := editor.New(base, append(opts, extra...)...)
	printVerbose("Opening package: %s\n", path)
	if err := e.LoadPackage(path); err != nil {
		if msg := editor.FriendlyFileError(path, "package", err); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, err
	}
	return e, nil
}

// openMapped opens package files read-only through a memory mapping. The
// inspection commands use it so they work on files they cannot write.
func openMapped(name string, flag int, perm os.FileMode) (upk.File, error) {
	return mmfile.Open(name)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
