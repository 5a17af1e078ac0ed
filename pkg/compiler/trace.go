package compiler

import (
	"sync"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

var installTracer sync.Once

// T traces to the global syntax tracer, installing a log-backed tracer at
// error level if none has been configured.
func T() tracing.Trace {
	installTracer.Do(func() {
		if gtrace.SyntaxTracer == nil {
			gtrace.SyntaxTracer = gologadapter.New()
			gtrace.SyntaxTracer.SetTraceLevel(tracing.LevelError)
		}
	})
	return gtrace.SyntaxTracer
}

// SetTraceLevel adjusts the syntax tracer; unknown names select error level.
func SetTraceLevel(name string) {
	T().SetTraceLevel(ParseTraceLevel(name))
}

// ParseTraceLevel maps "debug", "info" and "error" to tracing levels.
func ParseTraceLevel(name string) tracing.TraceLevel {
	switch name {
	case "debug":
		return tracing.LevelDebug
	case "info":
		return tracing.LevelInfo
	}
	return tracing.LevelError
}
