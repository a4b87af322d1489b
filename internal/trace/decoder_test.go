package trace

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/staleness/internal/sourcemap"
)

func TestDecoder_Create(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`{"op":"create","site":[1,9],"id":5,"time":10,"isDom":true}`))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, OpCreate, ev.Op)
	assert.Equal(t, sourcemap.LocID{Script: 1, IID: 9}, ev.Site)
	assert.Equal(t, ObjectID(5), ev.ID)
	assert.Equal(t, int64(10), ev.Time)
	assert.True(t, ev.IsDOM)

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_MissingSitesAreUnknown(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`{"op":"lastUse","id":3,"time":7}`))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, sourcemap.Unknown, ev.Site)
	assert.Equal(t, sourcemap.Unknown, ev.CallSite)
	assert.Equal(t, sourcemap.Unknown, ev.EnterSite)
}

func TestDecoder_SkipsBlankAndCommentLines(t *testing.T) {
	input := "\n# recorded by instrumentation\n   \n" +
		`{"op":"declareRoot","id":2}` + "\n"
	dec := NewDecoder(strings.NewReader(input))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, OpDeclareRoot, ev.Op)
	assert.Equal(t, 4, dec.Line())
}

func TestDecoder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"invalid json", `{"op":`, ""},
		{"missing op", `{"id":1}`, "missing op"},
		{"unknown op", `{"op":"teleport"}`, `unknown op "teleport"`},
		{"bad site arity", `{"op":"create","site":[1]}`, "want [script, iid]"},
		{"mapping without span", `{"op":"sourceMapping","site":[1,2]}`, "without span"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader("\n" + tt.input))
			_, err := dec.Next()
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de), "expected DecodeError, got %T", err)
			assert.Equal(t, 2, de.Line)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDecoder_SourceMapping(t *testing.T) {
	dec := NewDecoder(strings.NewReader(
		`{"op":"sourceMapping","site":[1,9],"span":{"startLine":3,"startCol":1,"endLine":3,"endCol":14}}`))

	ev, err := dec.Next()
	require.NoError(t, err)
	require.NotNil(t, ev.Span)
	assert.Equal(t, sourcemap.Span{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 14}, *ev.Span)
}

func TestOp_Valid(t *testing.T) {
	assert.True(t, OpEndExecution.Valid())
	assert.True(t, OpSourceMapping.Valid())
	assert.False(t, Op("endLastUse").Valid())
}
