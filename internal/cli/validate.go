package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/fitzies/pulseflow"
	"github.com/fitzies/pulseflow/internal/presentation/tui"
)

// Validate loads a workflow file and checks its structure. When stdout is a
// terminal it also renders a summary of the graph.
func Validate(path string) error {
	def, err := LoadDefinition(path)
	if err != nil {
		return err
	}

	if err := pulseflow.ValidateGraph(&def.Workflow); err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		summary, err := tui.RenderSummary(&def.Workflow)
		if err == nil {
			fmt.Print(summary)
		}
	}
	return nil
}
