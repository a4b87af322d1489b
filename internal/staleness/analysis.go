package staleness

import (
	"context"
	"log/slog"

	"github.com/roach88/staleness/internal/sourcemap"
	"github.com/roach88/staleness/internal/trace"
)

// Analysis is the streaming staleness analysis. It implements trace.Handler.
//
// Events irrelevant to staleness (declare, putField, write, addToChildSet,
// removeFromChildSet, scriptEnter, scriptExit, topLevelFlush, debug,
// returnStmt, unreachableContext) fall through to the embedded NopHandler.
//
// An Analysis must be driven by exactly one goroutine.
type Analysis struct {
	trace.NopHandler

	global   ObjectID
	observer Observer

	stack    *CallStack
	usage    *LastUseTable
	lifetime *LifetimeTable
	dom      *DOMGraph
	emitter  *Emitter

	emitted int
}

var _ trace.Handler = (*Analysis)(nil)

// AnalysisOption configures an Analysis.
type AnalysisOption func(*analysisConfig)

type analysisConfig struct {
	global    ObjectID
	formatter sourcemap.Formatter
	observer  Observer
}

// WithGlobalObjectID overrides the reserved global object id.
//
// Default: DefaultGlobalObjectID.
func WithGlobalObjectID(id ObjectID) AnalysisOption {
	return func(c *analysisConfig) {
		c.global = id
	}
}

// WithFormatter sets the formatter used to render sites in records.
//
// Default: sourcemap.Raw.
func WithFormatter(f sourcemap.Formatter) AnalysisOption {
	return func(c *analysisConfig) {
		c.formatter = f
	}
}

// WithObserver registers an observer for analysis notifications.
func WithObserver(o Observer) AnalysisOption {
	return func(c *analysisConfig) {
		c.observer = o
	}
}

// New creates an Analysis writing records to sink. The sink is owned by the
// caller, who closes it after EndExecution.
func New(sink RecordSink, opts ...AnalysisOption) *Analysis {
	cfg := &analysisConfig{
		global:    DefaultGlobalObjectID,
		formatter: sourcemap.Raw,
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	stack := NewCallStack()
	usage := NewLastUseTable(cfg.global)
	lifetime := NewLifetimeTable(cfg.global, stack, usage, cfg.observer)

	return &Analysis{
		global:   cfg.global,
		observer: cfg.observer,
		stack:    stack,
		usage:    usage,
		lifetime: lifetime,
		dom:      NewDOMGraph(cfg.global, lifetime, usage),
		emitter:  NewEmitter(lifetime, usage, cfg.formatter, sink, cfg.observer),
	}
}

// Create records a plain object or DOM node allocation.
func (a *Analysis) Create(site sourcemap.LocID, id ObjectID, time int64, isDOM bool) error {
	typ := TypeObject
	if isDOM {
		typ = TypeDOM
	}
	a.lifetime.RecordCreation(id, typ, site, time)
	return nil
}

// CreateFunction records a function and its prototype object.
func (a *Analysis) CreateFunction(site sourcemap.LocID, id, prototypeID ObjectID, _ sourcemap.LocID, _ []string, _ trace.ContextID, time int64) error {
	a.lifetime.RecordFunctionCreation(id, prototypeID, site, time)
	return nil
}

// LastUse stamps the most recent use of id.
func (a *Analysis) LastUse(id ObjectID, site sourcemap.LocID, time int64) error {
	a.usage.RecordLastUse(id, site, time)
	return nil
}

// FunctionEnter pushes the call site.
func (a *Analysis) FunctionEnter(_ sourcemap.LocID, _ ObjectID, callSite sourcemap.LocID, _ trace.ContextID, _ int64) error {
	a.stack.Enter(callSite)
	return nil
}

// FunctionExit pops the call stack.
func (a *Analysis) FunctionExit(sourcemap.LocID, trace.ContextID, []string, int64) error {
	return a.stack.Exit()
}

// CorrectAllocationSite fixes the allocation site of a live object.
func (a *Analysis) CorrectAllocationSite(id ObjectID, site sourcemap.LocID) error {
	return a.lifetime.CorrectAllocationSite(id, site)
}

// AddDOMChild records a containment edge.
func (a *Analysis) AddDOMChild(parentID, childID ObjectID, time int64) error {
	a.dom.AddChild(parentID, childID, time)
	return nil
}

// RemoveDOMChild detaches a subtree.
func (a *Analysis) RemoveDOMChild(parentID, childID ObjectID, time int64) error {
	a.dom.RemoveChild(parentID, childID, time)
	return nil
}

// DeclareRoot registers a containment root.
func (a *Analysis) DeclareRoot(id ObjectID) error {
	a.dom.DeclareRoot(id)
	return nil
}

// UnreachableObject moves id to pending-unreachable. The shallow size is
// not used.
func (a *Analysis) UnreachableObject(site sourcemap.LocID, id ObjectID, time int64, _ int64) error {
	a.lifetime.MarkUnreachable(id, time, site)
	return nil
}

// EndLastUse flushes every pending record.
func (a *Analysis) EndLastUse(ctx context.Context) error {
	return a.flush(ctx, "end_last_use")
}

// EndExecution checks that every object was reported unreachable, then
// flushes. It is the terminal event.
func (a *Analysis) EndExecution(ctx context.Context, time int64) error {
	if err := a.lifetime.AssertFullyDrained(); err != nil {
		slog.Error("live objects remain at end of execution", "live", a.lifetime.LiveCount(), "time", time)
		return err
	}
	return a.flush(ctx, "end_execution")
}

func (a *Analysis) flush(ctx context.Context, phase string) error {
	n, err := a.emitter.Flush(ctx)
	a.emitted += n
	if err != nil {
		return err
	}

	sizes := a.Sizes()
	a.observer.Flushed(n, sizes)
	slog.Info("flushed unreachable records",
		"phase", phase,
		"records", n,
		"live", sizes.Live,
		"dom_nodes", sizes.DOMNodes,
	)
	return nil
}

// Sizes reports the current table sizes.
func (a *Analysis) Sizes() Sizes {
	return Sizes{
		Live:     a.lifetime.LiveCount(),
		Pending:  a.lifetime.PendingCount(),
		DOMNodes: a.dom.Len(),
		Usage:    a.usage.Len(),
	}
}

// Emitted returns the number of records written so far.
func (a *Analysis) Emitted() int { return a.emitted }

// CallDepth returns the number of active call frames.
func (a *Analysis) CallDepth() int { return a.stack.Depth() }

// CallSnapshot returns a copy of the call stack, outermost first.
func (a *Analysis) CallSnapshot() []sourcemap.LocID { return a.stack.Snapshot() }

// Lifetimes exposes the lifetime table for inspection.
func (a *Analysis) Lifetimes() *LifetimeTable { return a.lifetime }

// Usage exposes the last-use table for inspection.
func (a *Analysis) Usage() *LastUseTable { return a.usage }

// DOM exposes the containment graph for inspection.
func (a *Analysis) DOM() *DOMGraph { return a.dom }
