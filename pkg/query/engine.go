package query

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/cerberus/pkg/codec"
)

// Outcome describes one chain execution.
type Outcome struct {
	// Result is the result of the last step that ran.
	Result QueryResult
	// Value is the value under the cursor when execution stopped.
	Value codec.Value
	// Path is the cursor path when execution stopped.
	Path string
	// Steps is the number of steps that ran, including a failed one.
	Steps int
	// FailedAt is the position of the failed step, or -1.
	FailedAt int
	// FailedKind is the kind of the failed step, or 0.
	FailedKind Kind
}

// Job is one chain to run against one root value.
type Job struct {
	Root codec.Value
	Head Node
}

// Engine runs trace chains. Steps within a chain always run in order;
// ExecuteAll runs separate chains concurrently.
type Engine struct {
	log         zerolog.Logger
	metrics     *Metrics
	parallelism int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the collectors updated per step and per chain.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithParallelism caps the chains ExecuteAll runs at once. Zero or less
// means no cap.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) { e.parallelism = n }
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute applies the chain starting at head to root. It stops at the
// first failed step; a failed step is reported in the Outcome, not as an
// error. Errors are returned only for an empty chain or a done context.
func (e *Engine) Execute(ctx context.Context, root codec.Value, head Node) (Outcome, error) {
	if codec.IsAbsent(head) {
		return Outcome{FailedAt: -1}, ErrEmptyChain
	}

	start := time.Now()
	cursor := NewCursor(root)
	out := Outcome{FailedAt: -1}

	for i, n := 0, head; n != nil; i, n = i+1, Next(n) {
		if err := ctx.Err(); err != nil {
			out.Value, out.Path = cursor.Value(), cursor.Path()
			return out, errors.Wrapf(err, "chain interrupted before step %d", i)
		}

		out.Result = n.Apply(cursor)
		out.Steps++
		e.metrics.recordStep(n.Kind(), out.Result)

		if !out.Result.OK {
			out.FailedAt, out.FailedKind = i, n.Kind()
			e.log.Debug().
				Int("step", i).
				Str("kind", n.Kind().String()).
				Str("path", cursor.Path()).
				Msg("trace step not applicable")
			break
		}
	}

	out.Value, out.Path = cursor.Value(), cursor.Path()
	e.metrics.recordChain(out.Result, time.Since(start).Seconds())
	e.log.Debug().
		Int("steps", out.Steps).
		Bool("ok", out.Result.OK).
		Dur("elapsed", time.Since(start)).
		Msg("trace chain executed")
	return out, nil
}

// ExecuteAll runs every job and returns the outcomes in job order. Jobs
// must not share mutable document values. The first error cancels the
// remaining jobs.
func (e *Engine) ExecuteAll(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if e.parallelism > 0 {
		g.SetLimit(e.parallelism)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			out, err := e.Execute(ctx, job.Root, job.Head)
			outcomes[i] = out
			if err != nil {
				return errors.Wrapf(err, "job %d", i)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
