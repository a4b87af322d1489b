package staleness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/staleness/internal/sourcemap"
)

func TestCallStack_Balanced(t *testing.T) {
	s := NewCallStack()
	s.Enter(loc(1, 1))
	s.Enter(loc(1, 2))
	assert.Equal(t, 2, s.Depth())

	require.NoError(t, s.Exit())
	require.NoError(t, s.Exit())
	assert.Equal(t, 0, s.Depth())
	assert.Empty(t, s.Snapshot())
}

func TestCallStack_Underflow(t *testing.T) {
	s := NewCallStack()

	err := s.Exit()
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeCallStackUnderflow))
}

func TestCallStack_SnapshotOrderAndIsolation(t *testing.T) {
	s := NewCallStack()
	s.Enter(loc(1, 1))
	s.Enter(loc(1, 2))

	snap := s.Snapshot()
	assert.Equal(t, []sourcemap.LocID{loc(1, 1), loc(1, 2)}, snap, "outermost first")

	require.NoError(t, s.Exit())
	s.Enter(loc(9, 9))
	assert.Equal(t, []sourcemap.LocID{loc(1, 1), loc(1, 2)}, snap, "snapshot must not alias the stack")
}

func TestCallStack_EmptySnapshotNotNil(t *testing.T) {
	snap := NewCallStack().Snapshot()
	assert.NotNil(t, snap)
	assert.Len(t, snap, 0)
}
