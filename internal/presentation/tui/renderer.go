package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/fitzies/pulseflow/pkg/domain"
)

// Printer renders run progress as colored terminal lines.
type Printer struct {
	out     io.Writer
	profile termenv.Profile
}

// NewPrinter creates a printer for the given writer, detecting the terminal
// color profile.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:     out,
		profile: termenv.ColorProfile(),
	}
}

func (p *Printer) colored(s, hex string) string {
	return termenv.String(s).Foreground(p.profile.Color(hex)).String()
}

// Hooks returns engine callbacks that print one line per event.
func (p *Printer) Hooks() domain.RunHooks {
	return domain.RunHooks{
		OnNodeStart: func(_ context.Context, ev *domain.ProgressEvent) {
			fmt.Fprintf(p.out, "%s %s (%s)\n", p.colored("▶", "#818cf8"), ev.NodeID, ev.NodeType)
		},
		OnNodeComplete: func(_ context.Context, ev *domain.ProgressEvent) {
			fmt.Fprintf(p.out, "%s %s %s\n", p.colored("✔", "#34d399"), ev.NodeID, summarizeOutput(ev.Output))
		},
		OnNodeError: func(_ context.Context, ev *domain.ProgressEvent) {
			msg := ""
			if ev.Error != nil {
				msg = fmt.Sprintf("[%s] %s", ev.Error.Category, ev.Error.Message)
			}
			fmt.Fprintf(p.out, "%s %s %s\n", p.colored("✘", "#fb7185"), ev.NodeID, msg)
		},
		OnBranchTaken: func(_ context.Context, ev *domain.ProgressEvent) {
			fmt.Fprintf(p.out, "%s %s took the %q branch\n", p.colored("⎇", "#c084fc"), ev.NodeID, ev.Branch)
		},
		OnCancelled: func(_ context.Context, ev *domain.ProgressEvent) {
			fmt.Fprintf(p.out, "%s run cancelled before %s\n", p.colored("■", "#fbbf24"), ev.NodeID)
		},
	}
}

func summarizeOutput(out domain.NodeOutput) string {
	if len(out) == 0 {
		return ""
	}
	parts := make([]string, 0, len(out))
	for _, key := range []string{"balance", "amountOut", "amountIn", "liquidity", "branch", "iterations", "value"} {
		if v, ok := out[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// RenderSummary renders a markdown description of a workflow definition for
// terminal display.
func RenderSummary(wf *domain.Workflow) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title(wf))
	fmt.Fprintf(&b, "Wallet: `%s`\n\n", wf.Wallet)
	b.WriteString("| Step | Type |\n|------|------|\n")
	for _, node := range wf.Nodes {
		fmt.Fprintf(&b, "| %s | %s |\n", node.ID, node.Type)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return "", err
	}
	return r.Render(b.String())
}

func title(wf *domain.Workflow) string {
	if wf.Name != "" {
		return wf.Name
	}
	return wf.ID
}
