package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/fitzies/pulseflow"
	"github.com/fitzies/pulseflow/internal/logging"
	"github.com/fitzies/pulseflow/internal/presentation/tui"
	"github.com/fitzies/pulseflow/pkg/adapters/memory"
	"github.com/fitzies/pulseflow/pkg/domain"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	File  string
	JSON  bool
	Debug bool
}

// Execute handles the 'run' command logic: load the definition, seed the
// simulated chain and walk the graph, reporting progress to the terminal
// or as NDJSON.
func Execute(opts RunOptions) error {
	def, err := LoadDefinition(opts.File)
	if err != nil {
		return err
	}

	chain, err := SeedChain(def)
	if err != nil {
		return err
	}

	store := memory.NewStore()
	store.Put(&def.Workflow)

	logger := logging.NewNop()
	if opts.Debug {
		logger = logging.New(slog.LevelDebug)
	}

	var hooks domain.RunHooks
	interactive := !opts.JSON && term.IsTerminal(int(os.Stdout.Fd()))
	switch {
	case opts.JSON:
		hooks = ndjsonHooks(os.Stdout)
	case interactive:
		hooks = tui.NewPrinter(os.Stdout).Hooks()
	}

	engine, err := pulseflow.New(chain, store,
		pulseflow.WithLogger(logger),
		pulseflow.WithHooks(hooks),
	)
	if err != nil {
		return err
	}

	outcome, err := engine.Run(context.Background(), def.Workflow.ID)
	if err != nil {
		return err
	}

	return report(outcome, opts.JSON)
}

func report(outcome domain.RunOutcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		if err := enc.Encode(map[string]any{
			"run_id": outcome.RunID,
			"status": outcome.Status,
			"error":  errString(outcome.Err),
		}); err != nil {
			return err
		}
	} else {
		fmt.Printf("\nRun %s finished: %s\n", outcome.RunID, outcome.Status)
	}

	switch outcome.Status {
	case domain.StatusFailed:
		return fmt.Errorf("run failed at node %s: %w", outcome.FailedNodeID, outcome.Err)
	case domain.StatusCancelled:
		return fmt.Errorf("run was cancelled")
	}
	return nil
}

func errString(err *domain.ParsedError) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ndjsonHooks streams every progress event to the writer as one JSON line.
func ndjsonHooks(out io.Writer) domain.RunHooks {
	var mu sync.Mutex
	emit := func(_ context.Context, ev *domain.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		_ = json.NewEncoder(out).Encode(ev)
	}
	return domain.RunHooks{
		OnNodeStart:    emit,
		OnNodeComplete: emit,
		OnNodeError:    emit,
		OnBranchTaken:  emit,
		OnCancelled:    emit,
	}
}
