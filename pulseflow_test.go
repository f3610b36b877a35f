package pulseflow_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/fitzies/pulseflow"
	"github.com/fitzies/pulseflow/pkg/adapters/memory"
	"github.com/fitzies/pulseflow/pkg/domain"
	"github.com/fitzies/pulseflow/pkg/ports"
)

const (
	wallet = "0x1111111111111111111111111111111111111111"
	usdc   = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	friend = "0x2222222222222222222222222222222222222222"
)

func amount(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := domain.ParseAmount(s)
	if err != nil {
		t.Fatalf("ParseAmount(%q): %v", s, err)
	}
	return v
}

// Swap the full balance into a token, then transfer everything the swap
// produced.
func TestEngine_EndToEnd_SwapThenTransfer(t *testing.T) {
	chain := memory.NewChain()
	chain.SetBalance(wallet, domain.NativeToken, amount(t, "1"))
	// Deep pool so the quote stays close to the spot ratio of 1:2000.
	chain.AddPool(domain.NativeToken, usdc, amount(t, "1000000"), amount(t, "2000000000"))

	store := memory.NewStore()
	store.Put(&domain.Workflow{
		ID:     "swap-transfer",
		Wallet: wallet,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "swap", Type: domain.NodeTypeSwap, Config: map[string]any{
				"tokenIn":  domain.NativeToken,
				"tokenOut": usdc,
				"amountIn": map[string]any{"type": "static", "value": "1"},
				"slippage": 0.01,
			}},
			{ID: "send", Type: domain.NodeTypeTransfer, Config: map[string]any{
				"token": usdc,
				"to":    friend,
				"amount": map[string]any{
					"type":  "previous_output",
					"field": "amountOut",
				},
			}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "swap"},
			{ID: "e2", Source: "swap", Target: "send"},
		},
	})

	sink := memory.NewEventLog()
	engine, err := pulseflow.New(chain, store, pulseflow.WithSink(sink))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	outcome, err := engine.Run(context.Background(), "swap-transfer")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("Status = %s, err = %+v", outcome.Status, outcome.Err)
	}

	// The whole swap output moved on; the wallet keeps none of it.
	held, err := chain.TokenBalance(context.Background(), wallet, usdc)
	if err != nil {
		t.Fatal(err)
	}
	if held.Sign() != 0 {
		t.Errorf("Wallet still holds %s of the swapped token", held)
	}
	received, err := chain.TokenBalance(context.Background(), friend, usdc)
	if err != nil {
		t.Fatal(err)
	}
	// Just under 2000 because of pool impact.
	if received.Cmp(amount(t, "1990")) < 0 || received.Cmp(amount(t, "2000")) > 0 {
		t.Errorf("Friend received %s, expected just under 2000", domain.FormatAmount(received))
	}

	events, err := sink.Events(context.Background(), outcome.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 4 {
		t.Errorf("Expected 4 events (start+complete per dispatched node), got %d", len(events))
	}
}

func TestEngine_Run_UnknownWorkflow(t *testing.T) {
	engine, err := pulseflow.New(memory.NewChain(), memory.NewStore())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = engine.Run(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected an error for an unknown workflow")
	}
}

func TestEngine_WithSleep_SkipsRealDelay(t *testing.T) {
	chain := memory.NewChain()
	store := memory.NewStore()
	store.Put(&domain.Workflow{
		ID:     "delayed",
		Wallet: wallet,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "wait", Type: domain.NodeTypeDelay, Config: map[string]any{"seconds": 60}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "start", Target: "wait"}},
	})

	var slept time.Duration
	engine, err := pulseflow.New(chain, store,
		pulseflow.WithSleep(func(_ context.Context, d time.Duration) error {
			slept = d
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	began := time.Now()
	outcome, err := engine.Run(context.Background(), "delayed")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("Status = %s", outcome.Status)
	}
	if slept != 60*time.Second {
		t.Errorf("Recorded sleep %v, want 60s", slept)
	}
	if time.Since(began) > time.Second {
		t.Error("Run took wall-clock time despite the injected sleeper")
	}
}

type countingLocker struct {
	mu    sync.Mutex
	locks int
	frees int
}

func (l *countingLocker) Lock(ctx context.Context, workflowID string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locks++
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.frees++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestEngine_LockerWrapsRun(t *testing.T) {
	chain := memory.NewChain()
	store := memory.NewStore()
	store.Put(&domain.Workflow{
		ID:     "locked",
		Wallet: wallet,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "check", Type: domain.NodeTypeBalanceCheck},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "start", Target: "check"}},
	})

	locker := &countingLocker{}
	engine, err := pulseflow.New(chain, store, pulseflow.WithLocker(locker))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := engine.Run(context.Background(), "locked"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if locker.locks != 1 || locker.frees != 1 {
		t.Errorf("locks=%d frees=%d, want 1/1", locker.locks, locker.frees)
	}
}

func TestValidateGraph(t *testing.T) {
	ok := &domain.Workflow{
		Wallet: wallet,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
		},
	}
	if err := pulseflow.ValidateGraph(ok); err != nil {
		t.Errorf("Valid workflow rejected: %v", err)
	}

	bad := &domain.Workflow{Wallet: wallet}
	if err := pulseflow.ValidateGraph(bad); err == nil {
		t.Error("Workflow without a start node accepted")
	}
}
