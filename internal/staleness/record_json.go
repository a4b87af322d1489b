package staleness

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Sites routinely contain '<' and '>', which must stay readable.
var jsonConfig = jsoniter.Config{EscapeHTML: false}.Froze()

// recordFields is the arity of an emitted record line.
const recordFields = 9

// writeRecord encodes r as the fixed-order array
//
//	[objectId, typeTag, allocationSite, creationTime, creationCallStack,
//	 mostRecentUseTime, mostRecentUseSite, unreachableTime, unreachableSite]
func writeRecord(s *jsoniter.Stream, r Record) {
	s.WriteArrayStart()
	s.WriteInt64(int64(r.ObjectID))
	s.WriteMore()
	s.WriteString(r.Type.String())
	s.WriteMore()
	s.WriteString(r.AllocationSite)
	s.WriteMore()
	s.WriteInt64(r.CreationTime)
	s.WriteMore()
	s.WriteArrayStart()
	for i, site := range r.CreationStack {
		if i > 0 {
			s.WriteMore()
		}
		s.WriteString(site)
	}
	s.WriteArrayEnd()
	s.WriteMore()
	s.WriteInt64(r.MostRecentUseTime)
	s.WriteMore()
	s.WriteString(r.MostRecentUseSite)
	s.WriteMore()
	s.WriteInt64(r.UnreachableTime)
	s.WriteMore()
	s.WriteString(r.UnreachableSite)
	s.WriteArrayEnd()
}

// MarshalJSON encodes the record as its output line, without the newline.
func (r Record) MarshalJSON() ([]byte, error) {
	s := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(s)

	writeRecord(s, r)
	if s.Error != nil {
		return nil, s.Error
	}
	return append([]byte(nil), s.Buffer()...), nil
}

// UnmarshalJSON decodes an output line produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	iter := jsonConfig.BorrowIterator(data)
	defer jsonConfig.ReturnIterator(iter)

	var out Record
	fields := 0
	for iter.ReadArray() {
		switch fields {
		case 0:
			out.ObjectID = ObjectID(iter.ReadInt64())
		case 1:
			typ, err := ParseObjectType(iter.ReadString())
			if err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			out.Type = typ
		case 2:
			out.AllocationSite = iter.ReadString()
		case 3:
			out.CreationTime = iter.ReadInt64()
		case 4:
			out.CreationStack = []string{}
			for iter.ReadArray() {
				out.CreationStack = append(out.CreationStack, iter.ReadString())
			}
		case 5:
			out.MostRecentUseTime = iter.ReadInt64()
		case 6:
			out.MostRecentUseSite = iter.ReadString()
		case 7:
			out.UnreachableTime = iter.ReadInt64()
		case 8:
			out.UnreachableSite = iter.ReadString()
		default:
			iter.Skip()
		}
		fields++
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return fmt.Errorf("decode record: %w", iter.Error)
	}
	if fields != recordFields {
		return fmt.Errorf("decode record: want %d fields, got %d", recordFields, fields)
	}

	*r = out
	return nil
}
