package staleness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Staleness(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want int64
	}{
		{"used after creation", Record{CreationTime: 10, MostRecentUseTime: 50, UnreachableTime: 100}, 50},
		{"never used", Record{CreationTime: 10, UnreachableTime: 100}, 90},
		{"placeholder", Record{MostRecentUseTime: 15, UnreachableTime: 20}, 5},
		{"unreachable before use", Record{CreationTime: 10, MostRecentUseTime: 50, UnreachableTime: 40}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Staleness())
		})
	}
}

func TestRecord_JSON(t *testing.T) {
	rec := Record{
		ObjectID:          11,
		Type:              TypeObject,
		AllocationSite:    "app.js:4:3:4:9",
		CreationTime:      8,
		CreationStack:     []string{"app.js:7", "<unknown>"},
		MostRecentUseTime: 12,
		MostRecentUseSite: "<removed from DOM>",
		UnreachableTime:   21,
		UnreachableSite:   "app.js:9",
	}

	data, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `[11,"OBJECT","app.js:4:3:4:9",8,["app.js:7","<unknown>"],12,"<removed from DOM>",21,"app.js:9"]`, string(data))

	var back Record
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, rec, back)
}

func TestRecord_UnmarshalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", `[1,"OBJECT","1:1",0,[],0,"1:1",0]`},
		{"unknown type", `[1,"WIDGET","1:1",0,[],0,"1:1",0,"1:1"]`},
		{"not an array", `{"id":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			assert.Error(t, r.UnmarshalJSON([]byte(tt.input)))
		})
	}
}

func TestParseObjectType(t *testing.T) {
	for _, typ := range []ObjectType{TypeObject, TypeDOM, TypeFunction, TypePrototype} {
		got, err := ParseObjectType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	assert.Equal(t, "ObjectType(9)", ObjectType(9).String())
}
