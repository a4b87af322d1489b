package trace

import (
	"context"

	"github.com/roach88/staleness/internal/sourcemap"
)

// NopHandler implements Handler by ignoring every event. Embed it to
// implement only the methods a handler cares about.
type NopHandler struct{}

var _ Handler = NopHandler{}

func (NopHandler) Declare(sourcemap.LocID, string, ObjectID) error { return nil }
func (NopHandler) Create(sourcemap.LocID, ObjectID, int64, bool) error { return nil }
func (NopHandler) PutField(sourcemap.LocID, ObjectID, string, ObjectID) error { return nil }
func (NopHandler) Write(sourcemap.LocID, string, ObjectID) error { return nil }
func (NopHandler) LastUse(ObjectID, sourcemap.LocID, int64) error { return nil }
func (NopHandler) TopLevelFlush(sourcemap.LocID) error { return nil }
func (NopHandler) CorrectAllocationSite(ObjectID, sourcemap.LocID) error { return nil }
func (NopHandler) Debug(sourcemap.LocID, ObjectID) error { return nil }
func (NopHandler) Return(ObjectID) error { return nil }
func (NopHandler) AddDOMChild(ObjectID, ObjectID, int64) error { return nil }
func (NopHandler) RemoveDOMChild(ObjectID, ObjectID, int64) error { return nil }
func (NopHandler) DeclareRoot(ObjectID) error { return nil }
func (NopHandler) ScriptEnter(sourcemap.LocID, string) error { return nil }
func (NopHandler) ScriptExit(sourcemap.LocID) error { return nil }
func (NopHandler) EndLastUse(context.Context) error { return nil }
func (NopHandler) EndExecution(context.Context, int64) error { return nil }

func (NopHandler) CreateFunction(sourcemap.LocID, ObjectID, ObjectID, sourcemap.LocID, []string, ContextID, int64) error {
	return nil
}

func (NopHandler) FunctionEnter(sourcemap.LocID, ObjectID, sourcemap.LocID, ContextID, int64) error {
	return nil
}

func (NopHandler) FunctionExit(sourcemap.LocID, ContextID, []string, int64) error {
	return nil
}

func (NopHandler) AddToChildSet(sourcemap.LocID, ObjectID, string, ObjectID) error {
	return nil
}

func (NopHandler) RemoveFromChildSet(sourcemap.LocID, ObjectID, string, ObjectID) error {
	return nil
}

func (NopHandler) UnreachableObject(sourcemap.LocID, ObjectID, int64, int64) error {
	return nil
}

func (NopHandler) UnreachableContext(sourcemap.LocID, ContextID, int64) error {
	return nil
}
