package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testConsumer() *Consumer {
	return &Consumer{log: zap.NewNop(), backoff: time.Millisecond, maxBackoff: 4 * time.Millisecond, maxAttempts: 5}
}

func TestProcess_RetriesUntilHandled(t *testing.T) {
	calls := 0
	h := func(ctx context.Context, m kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("smtp unavailable")
		}
		return nil
	}
	ok := testConsumer().process(context.Background(), 0, h, kafka.Message{Topic: "order.created", Offset: 4})
	assert.True(t, ok)
	assert.Equal(t, 3, calls)
}

func TestProcess_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	h := func(ctx context.Context, m kafka.Message) error {
		calls++
		return errors.New("mailbox rejected")
	}
	ok := testConsumer().process(context.Background(), 0, h, kafka.Message{Topic: "order.created"})
	assert.True(t, ok)
	assert.Equal(t, 5, calls)
}

func TestProcess_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := func(ctx context.Context, m kafka.Message) error {
		cancel()
		return errors.New("db down")
	}

	c := testConsumer()
	c.backoff = time.Hour
	assert.False(t, c.process(ctx, 0, h, kafka.Message{Topic: "order.created"}))
}

func TestLane_StablePerPartition(t *testing.T) {
	for p := 0; p < 12; p++ {
		l := lane("order.created", p, 4)
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 4)
		assert.Equal(t, l, lane("order.created", p, 4))
	}
	assert.Zero(t, lane("order.status_changed", 5, 1))
}
