package trace

import (
	"context"

	"github.com/roach88/staleness/internal/sourcemap"
)

// ObjectID is the process-unique, never-reused handle the instrumentation
// assigns to every heap object.
type ObjectID int64

// ContextID identifies a closure context. The staleness analysis ignores it.
type ContextID int64

// Handler receives decoded trace events.
//
// Each method corresponds to one op of the wire format. Returning an error
// aborts the replay; handlers must not return errors for conditions they can
// tolerate.
type Handler interface {
	Declare(site sourcemap.LocID, name string, id ObjectID) error
	Create(site sourcemap.LocID, id ObjectID, time int64, isDOM bool) error
	CreateFunction(site sourcemap.LocID, id, prototypeID ObjectID, enterSite sourcemap.LocID, closureNames []string, closure ContextID, time int64) error
	PutField(site sourcemap.LocID, baseID ObjectID, offset string, id ObjectID) error
	Write(site sourcemap.LocID, name string, id ObjectID) error
	LastUse(id ObjectID, site sourcemap.LocID, time int64) error
	FunctionEnter(site sourcemap.LocID, funID ObjectID, callSite sourcemap.LocID, closure ContextID, time int64) error
	FunctionExit(site sourcemap.LocID, closure ContextID, unreferenced []string, time int64) error
	TopLevelFlush(site sourcemap.LocID) error
	CorrectAllocationSite(id ObjectID, site sourcemap.LocID) error
	Debug(site sourcemap.LocID, id ObjectID) error
	Return(id ObjectID) error
	AddDOMChild(parentID, childID ObjectID, time int64) error
	RemoveDOMChild(parentID, childID ObjectID, time int64) error
	AddToChildSet(site sourcemap.LocID, parentID ObjectID, name string, childID ObjectID) error
	RemoveFromChildSet(site sourcemap.LocID, parentID ObjectID, name string, childID ObjectID) error
	DeclareRoot(id ObjectID) error
	ScriptEnter(site sourcemap.LocID, file string) error
	ScriptExit(site sourcemap.LocID) error
	UnreachableObject(site sourcemap.LocID, id ObjectID, time int64, shallowSize int64) error
	UnreachableContext(site sourcemap.LocID, closure ContextID, time int64) error

	// EndLastUse signals the end of the last-use phase.
	EndLastUse(ctx context.Context) error

	// EndExecution is the terminal event.
	EndExecution(ctx context.Context, time int64) error
}
