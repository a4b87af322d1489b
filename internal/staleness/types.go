package staleness

import (
	"fmt"

	"github.com/roach88/staleness/internal/sourcemap"
	"github.com/roach88/staleness/internal/trace"
)

// ObjectID is the instrumentation's object handle.
type ObjectID = trace.ObjectID

// DefaultGlobalObjectID is the id the instrumentation reserves for the
// global object. It is always reachable and never tracked.
const DefaultGlobalObjectID ObjectID = 1

// UnknownTime marks a creation time that was never observed.
const UnknownTime int64 = 0

// ObjectType classifies an allocation.
type ObjectType int

const (
	TypeObject ObjectType = iota + 1
	TypeDOM
	TypeFunction
	TypePrototype
)

// String returns the tag written to emitted records.
func (t ObjectType) String() string {
	switch t {
	case TypeObject:
		return "OBJECT"
	case TypeDOM:
		return "DOM"
	case TypeFunction:
		return "FUNCTION"
	case TypePrototype:
		return "PROTOTYPE"
	default:
		return fmt.Sprintf("ObjectType(%d)", int(t))
	}
}

// ParseObjectType is the inverse of ObjectType.String.
func ParseObjectType(tag string) (ObjectType, error) {
	switch tag {
	case "OBJECT":
		return TypeObject, nil
	case "DOM":
		return TypeDOM, nil
	case "FUNCTION":
		return TypeFunction, nil
	case "PROTOTYPE":
		return TypePrototype, nil
	default:
		return 0, fmt.Errorf("unknown object type %q", tag)
	}
}

// AllocationRecord describes where and when an object was created.
// Only Site and CreationStack change after insertion, via
// LifetimeTable.CorrectAllocationSite.
type AllocationRecord struct {
	Type          ObjectType
	Site          sourcemap.LocID
	CreationTime  int64
	CreationStack []sourcemap.LocID // outermost first
}

// placeholderRecord is synthesized for objects the instrumentation never
// created explicitly (platform-provided DOM nodes, the document object).
func placeholderRecord() *AllocationRecord {
	return &AllocationRecord{
		Type:          TypeDOM,
		Site:          sourcemap.Unknown,
		CreationTime:  UnknownTime,
		CreationStack: []sourcemap.LocID{},
	}
}

// UsageRecord holds the most recent use and the unreachability point of an
// object. Zero times and Unknown sites mean "not observed".
type UsageRecord struct {
	MostRecentUseTime int64
	MostRecentUseSite sourcemap.LocID
	UnreachableTime   int64
	UnreachableSite   sourcemap.LocID
}

func newUsageRecord() *UsageRecord {
	return &UsageRecord{
		MostRecentUseSite: sourcemap.Unknown,
		UnreachableSite:   sourcemap.Unknown,
	}
}

// Record is one emitted line. Sites are already rendered through the
// source-location formatter.
type Record struct {
	ObjectID          ObjectID
	Type              ObjectType
	AllocationSite    string
	CreationTime      int64
	CreationStack     []string
	MostRecentUseTime int64
	MostRecentUseSite string
	UnreachableTime   int64
	UnreachableSite   string
}

// Staleness is the time between the object's last known activity and the
// moment it became unreachable. Creation counts as activity, so an object
// never used after creation is stale from its creation time.
func (r Record) Staleness() int64 {
	active := r.MostRecentUseTime
	if r.CreationTime > active {
		active = r.CreationTime
	}
	if r.UnreachableTime < active {
		return 0
	}
	return r.UnreachableTime - active
}
