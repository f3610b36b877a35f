/*
Package ports defines the driven ports (interfaces) for the Pulseflow engine.

These interfaces decouple the traversal core from external implementations:
the blockchain itself, workflow definition storage, execution-log persistence,
and wallet serialization.

# Key Interfaces

  - ChainAdapter: Performs the actual on-chain reads and writes for each node type.
  - WorkflowStore: Read access to workflow definitions authored by the external editor.
  - EventSink: Receives progress events for persistence or streaming.
  - WalletLocker: Serializes access to a workflow's dedicated signing wallet across runs.
*/
package ports
