/*
Package pulseflow is a deterministic execution engine for user-authored
workflows of on-chain financial operations (swaps, liquidity changes,
transfers, balance checks, conditional branches, delays, loops).

A workflow is a node graph produced by an external visual editor. The engine
walks that graph strictly sequentially against a dedicated per-workflow
wallet: it resolves declarative amounts (static values, percentages of prior
results, pool-proportional quantities, named variables) into fixed-point
integers, dispatches each node to its chain operation, classifies failures
into user-facing categories, and supports branching, bounded looping, and
cooperative cancellation.

# Concept

The engine owns WHAT happens in which order; everything chain-specific
(signing, gas estimation, ABI encoding) lives behind the ChainAdapter port,
and everything host-specific (definition storage, event persistence) behind
its own narrow interface. This Hexagonal Architecture lets the same core run
inside a CLI dry-run, an HTTP service, or a test harness with a simulated
chain.

# Key Properties

  - Deterministic Execution: Branch selection and loop admission are reproducible given the same inputs and chain state.
  - Immutable Context: Each node completion produces a new context value; abandoned branches can never leak state forward.
  - Fail-Fast: The first failing node aborts the run with a classified, user-facing error. The engine never retries on its own.
  - Cooperative Cancellation: Polled before each node; a dispatched node always runs to completion.

# Usage

	package main

	import (
		"context"
		"log"
		"math/big"

		"github.com/fitzies/pulseflow"
		"github.com/fitzies/pulseflow/pkg/adapters/memory"
		"github.com/fitzies/pulseflow/pkg/domain"
	)

	func main() {
		chain := memory.NewChain()
		chain.SetBalance("0xwallet", domain.NativeToken, big.NewInt(1e18))

		store := memory.NewStore()
		store.Put(&domain.Workflow{
			ID:     "wf-1",
			Wallet: "0xwallet",
			Nodes: []domain.Node{
				{ID: "start", Type: domain.NodeTypeStart},
				{ID: "check", Type: domain.NodeTypeBalanceCheck, Config: map[string]any{}},
			},
			Edges: []domain.Edge{{ID: "e1", Source: "start", Target: "check"}},
		})

		eng, err := pulseflow.New(chain, store)
		if err != nil {
			log.Fatal(err)
		}

		outcome, err := eng.Run(context.Background(), "wf-1")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("run %s finished: %s", outcome.RunID, outcome.Status)
	}
*/
package pulseflow
