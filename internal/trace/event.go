package trace

import (
	"context"
	"fmt"

	"github.com/roach88/staleness/internal/sourcemap"
)

// Op names an event kind on the wire.
type Op string

const (
	OpDeclare               Op = "declare"
	OpCreate                Op = "create"
	OpCreateFunction        Op = "createFunction"
	OpPutField              Op = "putField"
	OpWrite                 Op = "write"
	OpLastUse               Op = "lastUse"
	OpFunctionEnter         Op = "functionEnter"
	OpFunctionExit          Op = "functionExit"
	OpTopLevelFlush         Op = "topLevelFlush"
	OpCorrectAllocationSite Op = "correctAllocationSite"
	OpDebug                 Op = "debug"
	OpReturn                Op = "returnStmt"
	OpAddDOMChild           Op = "addDOMChild"
	OpRemoveDOMChild        Op = "removeDOMChild"
	OpAddToChildSet         Op = "addToChildSet"
	OpRemoveFromChildSet    Op = "removeFromChildSet"
	OpDeclareRoot           Op = "declareRoot"
	OpScriptEnter           Op = "scriptEnter"
	OpScriptExit            Op = "scriptExit"
	OpUnreachableObject     Op = "unreachableObject"
	OpUnreachableContext    Op = "unreachableContext"
	OpEndLastUse            Op = "endLastUsePhase"
	OpEndExecution          Op = "endExecution"

	// OpSourceMapping carries source-map data only; it is never dispatched.
	OpSourceMapping Op = "sourceMapping"
)

var validOps = map[Op]bool{
	OpDeclare: true, OpCreate: true, OpCreateFunction: true, OpPutField: true,
	OpWrite: true, OpLastUse: true, OpFunctionEnter: true, OpFunctionExit: true,
	OpTopLevelFlush: true, OpCorrectAllocationSite: true, OpDebug: true,
	OpReturn: true, OpAddDOMChild: true, OpRemoveDOMChild: true,
	OpAddToChildSet: true, OpRemoveFromChildSet: true, OpDeclareRoot: true,
	OpScriptEnter: true, OpScriptExit: true, OpUnreachableObject: true,
	OpUnreachableContext: true, OpEndLastUse: true, OpEndExecution: true,
	OpSourceMapping: true,
}

// Valid reports whether op is part of the vocabulary.
func (op Op) Valid() bool {
	return validOps[op]
}

// Event is one decoded trace line. Only the fields relevant to Op are set;
// site fields absent from the line are sourcemap.Unknown.
type Event struct {
	Op           Op              `json:"op"`
	Site         sourcemap.LocID `json:"site"`
	ID           ObjectID        `json:"id"`
	PrototypeID  ObjectID        `json:"prototypeId"`
	EnterSite    sourcemap.LocID `json:"enterSite"`
	ClosureNames []string        `json:"closureNames,omitempty"`
	Context      ContextID       `json:"context"`
	Time         int64           `json:"time"`
	IsDOM        bool            `json:"isDom"`
	FunctionID   ObjectID        `json:"funId"`
	CallSite     sourcemap.LocID `json:"callSite"`
	Unreferenced []string        `json:"unreferenced,omitempty"`
	Name         string          `json:"name,omitempty"`
	BaseID       ObjectID        `json:"baseId"`
	Offset       string          `json:"offset,omitempty"`
	ParentID     ObjectID        `json:"parentId"`
	ChildID      ObjectID        `json:"childId"`
	File         string          `json:"file,omitempty"`
	ShallowSize  int64           `json:"shallowSize"`
	Span         *sourcemap.Span `json:"span,omitempty"`
}

// newEvent returns an Event with every site preset to Unknown, so fields
// missing from the wire decode as "never observed".
func newEvent() Event {
	return Event{
		Site:      sourcemap.Unknown,
		EnterSite: sourcemap.Unknown,
		CallSite:  sourcemap.Unknown,
	}
}

// Dispatch delivers ev to the matching Handler method.
// OpSourceMapping is not part of the Handler contract and is a no-op here.
func Dispatch(ctx context.Context, h Handler, ev Event) error {
	switch ev.Op {
	case OpDeclare:
		return h.Declare(ev.Site, ev.Name, ev.ID)
	case OpCreate:
		return h.Create(ev.Site, ev.ID, ev.Time, ev.IsDOM)
	case OpCreateFunction:
		return h.CreateFunction(ev.Site, ev.ID, ev.PrototypeID, ev.EnterSite, ev.ClosureNames, ev.Context, ev.Time)
	case OpPutField:
		return h.PutField(ev.Site, ev.BaseID, ev.Offset, ev.ID)
	case OpWrite:
		return h.Write(ev.Site, ev.Name, ev.ID)
	case OpLastUse:
		return h.LastUse(ev.ID, ev.Site, ev.Time)
	case OpFunctionEnter:
		return h.FunctionEnter(ev.Site, ev.FunctionID, ev.CallSite, ev.Context, ev.Time)
	case OpFunctionExit:
		return h.FunctionExit(ev.Site, ev.Context, ev.Unreferenced, ev.Time)
	case OpTopLevelFlush:
		return h.TopLevelFlush(ev.Site)
	case OpCorrectAllocationSite:
		return h.CorrectAllocationSite(ev.ID, ev.Site)
	case OpDebug:
		return h.Debug(ev.Site, ev.ID)
	case OpReturn:
		return h.Return(ev.ID)
	case OpAddDOMChild:
		return h.AddDOMChild(ev.ParentID, ev.ChildID, ev.Time)
	case OpRemoveDOMChild:
		return h.RemoveDOMChild(ev.ParentID, ev.ChildID, ev.Time)
	case OpAddToChildSet:
		return h.AddToChildSet(ev.Site, ev.ParentID, ev.Name, ev.ChildID)
	case OpRemoveFromChildSet:
		return h.RemoveFromChildSet(ev.Site, ev.ParentID, ev.Name, ev.ChildID)
	case OpDeclareRoot:
		return h.DeclareRoot(ev.ID)
	case OpScriptEnter:
		return h.ScriptEnter(ev.Site, ev.File)
	case OpScriptExit:
		return h.ScriptExit(ev.Site)
	case OpUnreachableObject:
		return h.UnreachableObject(ev.Site, ev.ID, ev.Time, ev.ShallowSize)
	case OpUnreachableContext:
		return h.UnreachableContext(ev.Site, ev.Context, ev.Time)
	case OpEndLastUse:
		return h.EndLastUse(ctx)
	case OpEndExecution:
		return h.EndExecution(ctx, ev.Time)
	case OpSourceMapping:
		return nil
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
}
