package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrooka/mail2mp3/dto"
	er "github.com/pyrooka/mail2mp3/internal/errors"
)

func TestQueueFIFO(t *testing.T) {
	queue := NewQueue(4)
	ctx := context.Background()

	first := dto.NewJob(dto.MailMessage{Subject: "first"})
	second := dto.NewJob(dto.MailMessage{Subject: "second"})

	require.NoError(t, queue.Enqueue(ctx, first))
	require.NoError(t, queue.Enqueue(ctx, second))
	assert.Equal(t, 2, queue.Len())

	job, ok := queue.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "first", job.Message.Subject)

	job, ok = queue.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "second", job.Message.Subject)
}

func TestQueueEnqueueAfterClose(t *testing.T) {
	queue := NewQueue(4)
	queue.Close()

	err := queue.Enqueue(context.Background(), dto.NewJob(dto.MailMessage{}))
	assert.ErrorIs(t, err, er.ErrQueueClosed)
	assert.True(t, queue.Closed())
}

func TestQueueDrainsAfterClose(t *testing.T) {
	queue := NewQueue(4)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, dto.NewJob(dto.MailMessage{Subject: "queued"})))
	queue.Close()

	// Jobs accepted before the close are still delivered.
	job, ok := queue.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "queued", job.Message.Subject)

	_, ok = queue.Dequeue(ctx)
	assert.False(t, ok)
}

func TestQueueClosedDrainBeatsCancelledContext(t *testing.T) {
	queue := NewQueue(4)

	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Enqueue(context.Background(), dto.NewJob(dto.MailMessage{Subject: "queued"})))
	}
	queue.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context must not lose jobs accepted before the close.
	for i := 0; i < 3; i++ {
		job, ok := queue.Dequeue(ctx)
		require.True(t, ok)
		assert.Equal(t, "queued", job.Message.Subject)
	}

	_, ok := queue.Dequeue(ctx)
	assert.False(t, ok)
}

func TestQueueEnqueueBlocksWhenFull(t *testing.T) {
	queue := NewQueue(1)
	ctx := context.Background()

	require.NoError(t, queue.Enqueue(ctx, dto.NewJob(dto.MailMessage{})))

	blockedCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := queue.Enqueue(blockedCtx, dto.NewJob(dto.MailMessage{}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueDequeueHonorsContext(t *testing.T) {
	queue := NewQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, ok := queue.Dequeue(ctx)
	assert.False(t, ok)
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	queue := NewQueue(1)
	queue.Close()
	queue.Close()
	assert.True(t, queue.Closed())
}
