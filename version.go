package pulseflow

// Version is the release version of the library, stamped by the release
// workflow.
var Version = "0.3.0"
