package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnolang/qlint/formatter"
	"github.com/gnolang/qlint/internal"
	tt "github.com/gnolang/qlint/internal/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-check query files whenever they change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, err := newEngine("")
		if err != nil {
			return err
		}
		applyIgnores(engine, ignoreRules, ignorePaths)

		if len(args) == 0 {
			args = []string{"."}
		}
		return engine.Watch(ctx, args, newWatchReporter(cmd.OutOrStdout()))
	},
}

func init() {
	watchCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of lint rules to ignore")
	watchCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
}

// newWatchReporter prints the issues of each changed file, or a short
// confirmation when the file is clean.
func newWatchReporter(out io.Writer) internal.ReportFunc {
	var mu sync.Mutex
	return func(filename string, issues []tt.Issue) {
		mu.Lock()
		defer mu.Unlock()

		if len(issues) == 0 {
			fmt.Fprintf(out, "%s: ok\n", filename)
			return
		}
		source, err := internal.ReadSourceCode(filename)
		if err != nil {
			source = nil
		}
		fmt.Fprintln(out, formatter.GenerateFormattedIssue(issues, source))
	}
}
