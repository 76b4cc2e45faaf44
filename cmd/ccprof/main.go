// Command ccprof correlates a sampled call-path profile against a
// program's static structure, producing an experiment database a
// viewer can render as calling-context trees with loops and inlined
// frames reconstructed (spec.md §6).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/viant/ccprof/internal/rlog"
)

var version = "dev"

func main() {
	os.Exit(newRootCmd().run(os.Args[1:]))
}

type rootCmd struct {
	cmd        *cobra.Command
	verbosity  verbosityFlag
	showVer    bool
	searchDirs []string
	structFile []string
	outDir     string
}

func newRootCmd() *rootCmd {
	rc := &rootCmd{}
	cmd := &cobra.Command{
		Use:           "ccprof <executable> <profile-file>...",
		Short:         "Correlate sampled call-path profiles against static program structure",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if rc.showVer {
				return nil
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if rc.showVer {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
			log := rlog.Default()
			if rc.verbosity.set {
				log.SetLevel(rc.verbosity.level)
			}
			cfg := config{
				executable:   args[0],
				profilePaths: args[1:],
				searchPaths:  rc.searchDirs,
				structFiles:  rc.structFile,
				outDir:       rc.outDir,
				logger:       log,
			}
			code := runCorrelator(context.Background(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != exitOK {
				return exitCodeError(code)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.VarP(&rc.verbosity, "verbose", "v", "enable diagnostic logging; an optional numeric level raises it further")
	flags.Lookup("verbose").NoOptDefVal = ""
	flags.BoolVarP(&rc.showVer, "version", "V", false, "print the version and exit")
	flags.StringArrayVarP(&rc.searchDirs, "include", "I", nil, "source search path for mirroring into the experiment database (repeatable)")
	flags.StringArrayVarP(&rc.structFile, "structure", "S", nil, "precomputed structure file for a load module (repeatable)")
	flags.StringVarP(&rc.outDir, "output", "o", "./experiment-db", "experiment database output directory")

	rc.cmd = cmd
	return rc
}

// exitCodeError carries a process exit code through cobra's error-return
// convention; run translates it back into os.Exit's argument instead of
// letting cobra print it as a user-facing error message.
type exitCodeError int

func (e exitCodeError) Error() string { return "" }

func (rc *rootCmd) run(args []string) int {
	rc.cmd.SetArgs(args)
	err := rc.cmd.Execute()
	if err == nil {
		return exitOK
	}
	if code, ok := err.(exitCodeError); ok {
		return int(code)
	}
	fmt.Fprintf(os.Stderr, "ccprof: %v\n", err)
	return exitUsage
}
