package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTasks(n int) []Task {
	return make([]Task, n)
}

func TestRingBufferPushPop(t *testing.T) {
	var b ringBuffer
	tasks := makeTasks(10)

	var batch Batch
	for i := range tasks {
		batch.Push(&tasks[i])
	}
	overflow := b.push(&batch)
	assert.True(t, overflow.Empty())
	assert.Equal(t, uint32(10), b.size())

	for i := range tasks {
		got := b.pop()
		require.Same(t, &tasks[i], got, "pop order must be FIFO")
	}
	assert.Nil(t, b.pop())
	assert.Equal(t, uint32(0), b.size())
}

func TestRingBufferOverflowMigratesHalf(t *testing.T) {
	var b ringBuffer
	tasks := makeTasks(bufferCapacity + 44)

	var batch Batch
	for i := range tasks {
		batch.Push(&tasks[i])
	}
	overflow := b.push(&batch)

	// The buffer filled, then released its older half alongside the batch
	// remainder.
	require.False(t, overflow.Empty())
	assert.Equal(t, uint(bufferCapacity/2+44), overflow.Len())
	assert.Equal(t, uint32(bufferCapacity/2), b.size())

	// Migrated list leads with the oldest buffered task.
	first := overflow.pop()
	assert.Same(t, &tasks[0], first)

	// Size invariant held throughout.
	assert.LessOrEqual(t, b.size(), uint32(bufferCapacity))
}

func TestRingBufferStealTakesHalf(t *testing.T) {
	var victim, thief ringBuffer
	tasks := makeTasks(100)

	var batch Batch
	for i := range tasks {
		batch.Push(&tasks[i])
	}
	victimOverflow := victim.push(&batch)
	require.True(t, victimOverflow.Empty())

	first, pushed := thief.steal(&victim)
	require.NotNil(t, first)
	assert.Same(t, &tasks[0], first)
	assert.True(t, pushed)
	assert.Equal(t, uint32(49), thief.size())
	assert.Equal(t, uint32(50), victim.size())
}

func TestRingBufferStealSingle(t *testing.T) {
	var victim, thief ringBuffer
	task := Task{}

	var batch Batch
	batch.Push(&task)
	victimOverflow := victim.push(&batch)
	require.True(t, victimOverflow.Empty())

	first, pushed := thief.steal(&victim)
	assert.Same(t, &task, first)
	assert.False(t, pushed)
	assert.Equal(t, uint32(0), thief.size())

	first, pushed = thief.steal(&victim)
	assert.Nil(t, first)
	assert.False(t, pushed)
}

func TestRingBufferConsumeDrainsQueue(t *testing.T) {
	var b ringBuffer
	var q taskQueue
	tasks := makeTasks(20)

	var batch Batch
	for i := range tasks {
		batch.Push(&tasks[i])
	}
	q.push(batch)

	first, pushed := b.consume(&q)
	require.NotNil(t, first)
	assert.True(t, pushed)
	// One task returned for immediate execution, the rest buffered.
	assert.Equal(t, uint32(19), b.size())

	seen := map[*Task]bool{first: true}
	for {
		task := b.pop()
		if task == nil {
			break
		}
		assert.False(t, seen[task], "task observed twice")
		seen[task] = true
	}
	assert.Len(t, seen, 20)
}

func TestRingBufferConsumeEmptyQueue(t *testing.T) {
	var b ringBuffer
	var q taskQueue
	first, pushed := b.consume(&q)
	assert.Nil(t, first)
	assert.False(t, pushed)
}
