package tool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tmatup/olliebot/core"
	"github.com/tmatup/olliebot/logging"
)

// RuntimeOptions configures the in-process tool runtime.
type RuntimeOptions struct {
	// MaxParallel bounds concurrent tool executions within one batch.
	// Values < 1 mean no explicit limit.
	MaxParallel int
	// Logger receives per-call execution records.
	Logger logging.Logger
}

// Runtime is an in-process Executor backed by registered Tool
// implementations. Tools may be registered at any time, including while
// batches are in flight; Definitions reflects the current set on every call.
//
// Execution invariants:
//   - Exactly one Result per Request, in the original request order
//   - A panicking tool becomes a failed Result, never a crashed batch
//   - Citation sources recorded through the call Context are collected into
//     the Batch in request order
type Runtime struct {
	mu          sync.RWMutex
	tools       map[string]Tool
	maxParallel int
	logger      logging.Logger
}

// NewRuntime constructs an empty runtime with optional overrides.
func NewRuntime(optFns ...func(o *RuntimeOptions)) *Runtime {
	opts := RuntimeOptions{
		MaxParallel: 4,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runtime{
		tools:       make(map[string]Tool),
		maxParallel: opts.MaxParallel,
		logger:      opts.Logger,
	}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Runtime) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// RegisterAll registers multiple tools.
func (r *Runtime) RegisterAll(tools ...Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Lookup returns the named tool and whether it is registered.
func (r *Runtime) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions implements Executor. Results are sorted by name so prompt
// summaries and model tool lists are deterministic.
func (r *Runtime) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// NewRequest implements Executor.
func (r *Runtime) NewRequest(id, name string, input map[string]any) Request {
	if id == "" {
		id = core.NewID()
	}
	if input == nil {
		input = map[string]any{}
	}
	return Request{ID: id, Name: name, Input: input}
}

// Execute implements Executor. The batch runs with bounded parallelism; the
// returned error is non-nil only when the context is cancelled before the
// batch completes.
func (r *Runtime) Execute(ctx context.Context, requests []Request) (*Batch, error) {
	n := len(requests)
	if n == 0 {
		return &Batch{}, nil
	}

	results := make([]Result, n)
	citations := make([][]core.CitationSource, n)

	g, gctx := errgroup.WithContext(ctx)
	if r.maxParallel > 0 {
		g.SetLimit(r.maxParallel)
	}

	batchStart := time.Now()
	for i, req := range requests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = failedResult(req, err)
				return nil
			}
			toolCtx := NewContext(gctx, req.ID, r.logger)
			results[i] = r.executeOne(toolCtx, req)
			citations[i] = toolCtx.Citations()
			return nil
		})
	}
	_ = g.Wait() // workers fold failures into their result slots

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{Results: results}
	for _, cs := range citations {
		batch.Citations = append(batch.Citations, cs...)
	}

	r.logger.Debug(
		"tool.batch.complete",
		"count", n,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return batch, nil
}

// executeOne runs a single request with panic containment.
func (r *Runtime) executeOne(toolCtx *Context, req Request) Result {
	impl, ok := r.Lookup(req.Name)
	if !ok {
		return failedResult(req, fmt.Errorf("tool %s not found", req.Name))
	}

	start := time.Now()
	var (
		output any
		err    error
	)
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("tool %s panicked: %v", req.Name, rec)
				r.logger.Error("tool.call.panic", "tool", req.Name, "recover", rec, "stack", string(debug.Stack()))
			}
		}()
		output, err = impl.Call(toolCtx, req.Input)
	}()
	dur := time.Since(start)

	r.logger.Info(
		"tool.call.executed",
		"tool", req.Name,
		"request_id", req.ID,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		return Result{ID: req.ID, Name: req.Name, Success: false, Error: err.Error(), Duration: dur}
	}
	return Result{ID: req.ID, Name: req.Name, Success: true, Output: output, Duration: dur}
}

func failedResult(req Request, err error) Result {
	return Result{ID: req.ID, Name: req.Name, Success: false, Error: err.Error()}
}
