/*
Package domain contains the core domain models for the Pulseflow engine.

It defines the fundamental entities of a workflow run: the graph itself
(Workflow, Node, Edge), the immutable execution context threaded through the
run, the declarative amount descriptors that the engine resolves into
fixed-point integer quantities, and the progress events and classified errors
surfaced to the host. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Workflow: A user-authored graph of on-chain operations with a dedicated wallet.
  - Node / Edge: One step in the workflow and the directed, optionally labeled links between steps.
  - ExecutionContext: The immutable-update snapshot of per-node outputs and named variables.
  - AmountDescriptor: A declarative token quantity (static, derived, or pool-proportional).
  - ProgressEvent: What the engine reports to the host while a run advances.
  - ParsedError: A categorized, user-facing failure with a retryability hint.
*/
package domain
