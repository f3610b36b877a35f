package domain_test

import (
	"math/big"
	"testing"

	"github.com/fitzies/pulseflow/pkg/domain"
)

func TestExecutionContext_WithOutput_Immutable(t *testing.T) {
	base := domain.NewExecutionContext()

	next := base.WithOutput("n1", domain.NodeTypeBalanceCheck, domain.NodeOutput{
		"balance": big.NewInt(100),
	})

	if len(base.NodeOutputs) != 0 {
		t.Errorf("Base context was mutated: %d outputs", len(base.NodeOutputs))
	}
	if base.PreviousNodeID != "" {
		t.Errorf("Base previous node changed to %q", base.PreviousNodeID)
	}

	if next.PreviousNodeID != "n1" {
		t.Errorf("Expected previous node 'n1', got %q", next.PreviousNodeID)
	}
	if next.PreviousNodeType != domain.NodeTypeBalanceCheck {
		t.Errorf("Unexpected previous node type %q", next.PreviousNodeType)
	}
	out := next.PreviousOutput()
	if out == nil {
		t.Fatal("Expected previous output, got nil")
	}
	if out["balance"].(*big.Int).Cmp(big.NewInt(100)) != 0 {
		t.Errorf("Unexpected balance in output: %v", out["balance"])
	}
}

func TestExecutionContext_WithVariable_Immutable(t *testing.T) {
	base := domain.NewExecutionContext()
	next := base.WithVariable("target", big.NewInt(42))

	if _, ok := base.Variables["target"]; ok {
		t.Error("Base context gained a variable")
	}
	if v := next.Variables["target"]; v == nil || v.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("Expected variable 42, got %v", v)
	}

	// A second derivation must not touch the first.
	third := next.WithVariable("target", big.NewInt(7))
	if v := next.Variables["target"]; v.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("Sibling context mutated earlier value: %v", v)
	}
	if v := third.Variables["target"]; v.Cmp(big.NewInt(7)) != 0 {
		t.Errorf("Expected rebinding to 7, got %v", v)
	}
}

func TestExecutionContext_NextIteration(t *testing.T) {
	ctx := domain.NewExecutionContext()
	ctx = ctx.WithOutput("n1", domain.NodeTypeSwap, domain.NodeOutput{"amountOut": big.NewInt(5)})
	ctx = ctx.WithVariable("kept", big.NewInt(9))

	next := ctx.NextIteration()

	if len(next.NodeOutputs) != 0 {
		t.Errorf("Outputs should reset on a new iteration, got %d", len(next.NodeOutputs))
	}
	if next.PreviousOutput() != nil {
		t.Error("Previous output should be nil after iteration reset")
	}
	if v := next.Variables["kept"]; v == nil || v.Cmp(big.NewInt(9)) != 0 {
		t.Errorf("Variables must survive iterations, got %v", v)
	}
	if next.CurrentIteration != ctx.CurrentIteration+1 {
		t.Errorf("Expected iteration %d, got %d", ctx.CurrentIteration+1, next.CurrentIteration)
	}
}

func TestExecutionContext_PreviousOutput_Empty(t *testing.T) {
	ctx := domain.NewExecutionContext()
	if out := ctx.PreviousOutput(); out != nil {
		t.Errorf("Expected nil previous output on a fresh context, got %v", out)
	}
}
