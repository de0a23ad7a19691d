package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func tradeEvent(receiptID string) TradeExecutedEvent {
	return TradeExecutedEvent{
		BaseEvent: BaseEvent{EventType: TradeExecuted, EventTime: time.Now()},
		ReceiptID: receiptID,
		Mint:      solana.NewWallet().PublicKey(),
		IsBuy:     true,
		SolAmount: 1_000,
	}
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	received := make(chan Event, 1)
	bus.SubscribeFunc(TradeExecuted, func(_ context.Context, e Event) error {
		received <- e
		return nil
	})

	require.NoError(t, bus.Publish(tradeEvent("r-1")))

	select {
	case e := <-received:
		trade, ok := e.(TradeExecutedEvent)
		require.True(t, ok)
		assert.Equal(t, "r-1", trade.ReceiptID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 64)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	bus.SubscribeFunc(TradeExecuted, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(TradeExecutedEvent).ReceiptID)
		if len(got) == 3 {
			close(done)
		}
		return nil
	})

	require.NoError(t, bus.Publish(tradeEvent("r-1")))
	require.NoError(t, bus.Publish(tradeEvent("r-2")))
	require.NoError(t, bus.Publish(tradeEvent("r-3")))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events were not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"r-1", "r-2", "r-3"}, got)
}

func TestSubscribersAreTypeScoped(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	completed := make(chan Event, 1)
	bus.SubscribeFunc(CurveCompleted, func(_ context.Context, e Event) error {
		completed <- e
		return nil
	})

	require.NoError(t, bus.Publish(tradeEvent("r-1")))
	require.NoError(t, bus.Publish(CurveCompletedEvent{
		BaseEvent:       BaseEvent{EventType: CurveCompleted, EventTime: time.Now()},
		Mint:            solana.NewWallet().PublicKey(),
		RealSolReserves: 42,
	}))

	select {
	case e := <-completed:
		assert.Equal(t, CurveCompleted, e.Type())
	case <-time.After(2 * time.Second):
		t.Fatal("completion event was not delivered")
	}
	assert.Empty(t, completed, "trade event must not reach the completion subscriber")
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	var calls int
	sub := bus.SubscribeFunc(TradeExecuted, func(context.Context, Event) error {
		calls++
		return nil
	})
	sub.Unsubscribe()

	require.NoError(t, bus.PublishSync(context.Background(), tradeEvent("r-1")))
	assert.Zero(t, calls)
}

func TestPublishSyncCollectsHandlerErrors(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	bus.SubscribeFunc(TradeExecuted, func(context.Context, Event) error {
		return errors.New("boom")
	})
	delivered := false
	bus.SubscribeFunc(TradeExecuted, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := bus.PublishSync(context.Background(), tradeEvent("r-1"))
	assert.Error(t, err)
	assert.True(t, delivered, "one failing handler must not block the others")
}

func TestPublishAfterShutdownFails(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 0)
	require.NoError(t, bus.Shutdown(context.Background()))

	assert.Error(t, bus.Publish(tradeEvent("r-1")))
}
