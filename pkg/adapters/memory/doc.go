/*
Package memory provides in-memory adapter implementations: a workflow store,
an execution-log sink, and a deterministic simulated chain.

The simulated chain models constant-product pools and per-wallet balances
without any network I/O. It backs tests, examples, and the CLI's dry-run
mode; it is not a stand-in for a real chain adapter in production.
*/
package memory
