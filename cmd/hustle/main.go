// Command hustle is the CLI front end for the interpreter: it lexes,
// parses, and evaluates a source file and reports the result the way the
// core's top-level driver is specified to.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/hustle/internal/eval"
	"github.com/aledsdavies/hustle/internal/interp"
)

var (
	noColor  bool
	debug    bool
	maxDepth int
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hustle",
		Short:         "Run hustle scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error: expected a subcommand")
			_ = cmd.Usage()
			return errSilent
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored diagnostic output")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "trace the evaluator's function calls")
	root.PersistentFlags().IntVar(&maxDepth, "max-depth", eval.DefaultMaxDepth, "maximum function call recursion depth")

	root.AddCommand(runCmd(), comCmd())
	return root
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <path> [script args...]",
		Short: "Evaluate a .hsle source file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			ip := interp.New(append([]string{"hustle", "run"}, args...))
			if debug {
				ip.Config.Debug = eval.DebugPaths
				ip.Trace = cmd.ErrOrStderr()
			}
			ip.Config.MaxDepth = maxDepth

			_, err := ip.Run(path)
			if err != nil {
				printError(cmd, err)
				return errSilent
			}
			return nil
		},
	}
}

// comCmd is a placeholder for the (out-of-scope) compiler front end; the
// core's compile-to-assembly path is explicitly not part of this
// specification.
func comCmd() *cobra.Command {
	var resolve bool
	cmd := &cobra.Command{
		Use:   "com <path>",
		Short: "Compile a .hsle source file (not implemented)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = resolve
			fmt.Fprintln(cmd.ErrOrStderr(), "Error: compilation is not implemented")
			return errSilent
		},
	}
	cmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "resolve includes before compiling")
	return cmd
}

// errSilent lets RunE signal a non-zero exit without cobra printing its own
// redundant error line; printError above has already written the
// user-facing diagnostic.
var errSilent = fmt.Errorf("")

func printError(cmd *cobra.Command, err error) {
	if fe, ok := err.(interp.FormatError); ok {
		fmt.Fprintln(cmd.ErrOrStderr(), colorize(fe.FormatString()))
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}

func colorize(msg string) string {
	if noColor {
		return msg
	}
	return "\033[31m" + msg + "\033[0m"
}
