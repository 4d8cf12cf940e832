// Package testutil provides fluent builders for constructing agent configs
// and inter-agent communications in tests. Chain only the parts you need;
// sensible defaults are applied.
package testutil
