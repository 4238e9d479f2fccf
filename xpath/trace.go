package xpath

import (
	"io"
	"log/slog"
	"os"
)

// Tracer is an optional step-by-step debugging hook threaded through
// evaluation; the evaluator reports each function call as it enters
// and leaves it.
type Tracer interface {
	Enter(rule string, ctx *Context)
	Leave(rule string, v Value, err error)
}

type discardTracer struct{}

func (discardTracer) Enter(string, *Context) {}
func (discardTracer) Leave(string, Value, error) {}

type stdioTracer struct {
	logger *slog.Logger
	depth  int
}

func TraceStdout() Tracer { return &stdioTracer{logger: stdioLogger(os.Stdout)} }
func TraceStderr() Tracer { return &stdioTracer{logger: stdioLogger(os.Stderr)} }

func stdioLogger(w io.Writer) *slog.Logger {
	opts := slog.HandlerOptions{Level: slog.LevelDebug}
	return slog.New(slog.NewTextHandler(w, &opts))
}

func (t *stdioTracer) Enter(rule string, ctx *Context) {
	t.depth++
	t.logger.Debug("enter", "rule", rule, "depth", t.depth, "node", ctx.Node.LocalName())
}

func (t *stdioTracer) Leave(rule string, v Value, err error) {
	t.depth--
	if err != nil {
		t.logger.Debug("leave", "rule", rule, "depth", t.depth, "error", err)
		return
	}
	t.logger.Debug("leave", "rule", rule, "depth", t.depth, "kind", v.Kind().String())
}
