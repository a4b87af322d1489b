package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocID_String(t *testing.T) {
	assert.Equal(t, "3:17", LocID{Script: 3, IID: 17}.String())
	assert.Equal(t, "<unknown>", Unknown.String())
	assert.Equal(t, "<removed from DOM>", RemovedFromTree.String())
}

func TestLocID_IsReserved(t *testing.T) {
	assert.True(t, Unknown.IsReserved())
	assert.True(t, RemovedFromTree.IsReserved())
	assert.False(t, LocID{Script: 0, IID: 0}.IsReserved())
}

func TestLocID_JSONPair(t *testing.T) {
	data, err := json.Marshal(LocID{Script: 2, IID: 41})
	require.NoError(t, err)
	assert.Equal(t, "[2,41]", string(data))

	var got LocID
	require.NoError(t, json.Unmarshal([]byte("[7, 9]"), &got))
	assert.Equal(t, LocID{Script: 7, IID: 9}, got)
}

func TestLocID_UnmarshalRejectsWrongArity(t *testing.T) {
	var got LocID
	err := json.Unmarshal([]byte("[1,2,3]"), &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want [script, iid]")

	err = json.Unmarshal([]byte(`"1:2"`), &got)
	require.Error(t, err)
}

func TestMap_Format(t *testing.T) {
	m := New()
	m.AddScript(1, "app.js")
	m.AddMapping(LocID{Script: 1, IID: 9}, Span{StartLine: 4, StartCol: 2, EndLine: 4, EndCol: 20})

	tests := []struct {
		name string
		id   LocID
		want string
	}{
		{"mapped position", LocID{Script: 1, IID: 9}, "app.js:4:2:4:20"},
		{"known script, unmapped position", LocID{Script: 1, IID: 33}, "app.js:33"},
		{"unknown script", LocID{Script: 5, IID: 1}, "5:1"},
		{"unknown site", Unknown, "<unknown>"},
		{"removed from tree", RemovedFromTree, "<removed from DOM>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Format(tt.id))
		})
	}
}

func TestMap_AddScriptNormalizesFileName(t *testing.T) {
	m := New()
	// "e" followed by a combining acute accent composes to U+00E9.
	m.AddScript(1, "cafe\u0301.js")

	file, ok := m.File(1)
	require.True(t, ok)
	assert.Equal(t, "caf\u00e9.js", file)
}

func TestMap_Len(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.Len())
	m.AddMapping(LocID{Script: 1, IID: 1}, Span{})
	m.AddMapping(LocID{Script: 1, IID: 1}, Span{StartLine: 2})
	m.AddMapping(LocID{Script: 1, IID: 2}, Span{})
	assert.Equal(t, 2, m.Len())
}

func TestRawFormatter(t *testing.T) {
	assert.Equal(t, "1:2", Raw.Format(LocID{Script: 1, IID: 2}))
	assert.Equal(t, "<unknown>", Raw.Format(Unknown))
}
