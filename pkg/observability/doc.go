/*
Package observability provides Prometheus instrumentation for workflow runs.

Metrics attach to the engine through domain.RunHooks, so the traversal core
stays free of any metrics dependency.
*/
package observability
