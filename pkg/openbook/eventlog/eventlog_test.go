package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsGaplessSequence(t *testing.T) {
	l := New()
	assert.Equal(t, uint64(1), l.NextSeq())

	e1 := l.Append(Event{Type: Fill})
	e2 := l.Append(Event{Type: Out})
	e3 := l.Append(Event{Type: Expire})

	assert.Equal(t, uint64(1), e1.Seq)
	assert.Equal(t, uint64(2), e2.Seq)
	assert.Equal(t, uint64(3), e3.Seq)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, uint64(4), l.NextSeq())
}

func TestSince(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		l.Append(Event{Type: Fill})
	}

	all := l.Since(0)
	require.Len(t, all, 5)
	assert.Equal(t, uint64(1), all[0].Seq)

	tail := l.Since(3)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(4), tail[0].Seq)
	assert.Equal(t, uint64(5), tail[1].Seq)

	assert.Nil(t, l.Since(5))
	assert.Nil(t, l.Since(99))
}

func TestConsumeIndependentCursors(t *testing.T) {
	l := New()
	for i := 0; i < 4; i++ {
		l.Append(Event{Type: Fill})
	}

	batch := l.Consume("crank1", 2)
	require.Len(t, batch, 2)
	assert.Equal(t, uint64(1), batch[0].Seq)
	assert.Equal(t, uint64(2), batch[1].Seq)

	// A second consumer starts from the beginning.
	other := l.Consume("crank2", 100)
	require.Len(t, other, 4)
	assert.Equal(t, uint64(1), other[0].Seq)

	// crank1 resumes where it left off.
	batch = l.Consume("crank1", 100)
	require.Len(t, batch, 2)
	assert.Equal(t, uint64(3), batch[0].Seq)

	assert.Nil(t, l.Consume("crank1", 100), "fully drained")
	assert.Nil(t, l.Consume("crank2", 100))
}

func TestConsumeSeesLaterAppends(t *testing.T) {
	l := New()
	l.Append(Event{Type: Fill})
	require.Len(t, l.Consume("crank", 10), 1)

	l.Append(Event{Type: Out})
	batch := l.Consume("crank", 10)
	require.Len(t, batch, 1)
	assert.Equal(t, uint64(2), batch[0].Seq)
}
