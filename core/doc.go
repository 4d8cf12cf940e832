// Package core defines the shared data model of the OllieBot orchestration
// engine: agent identity and capabilities, mutable agent state with snapshot
// semantics, typed inter-agent communications, citation provenance records
// and specialist templates.
//
// The package is deliberately free of behavior beyond construction, cloning
// and small accessors so that every other package (agent, registry, tool,
// model) can depend on it without cycles.
package core
