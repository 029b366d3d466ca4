package userstream

import (
	"context"
	"testing"

	"github.com/clearbook-project/clearbook/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeReachesReadyAndEmitsOnReady(t *testing.T) {
	trader := newTestKeyPair(t, "trader")
	exchange := newTestKeyPair(t, "exchange")

	p := NewProtocol("acct-1", 5, trader.priv, exchange.pub)
	sender := &recordingSender{}
	p.BindSender(sender)

	ready := false
	p.AddListener(Listener{OnReady: func() { ready = true }})

	p.Opened()
	assert.Equal(t, AwaitingLastNonce, p.State())
	getLastNonce := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "get_last_nonce", getLastNonce["type"])
	assert.NotContains(t, getLastNonce, "nonce")

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "last_nonce", "nonce_group": 5, "last_nonce": 100},
	})
	assert.Equal(t, AwaitingSubscribed, p.State())
	assert.False(t, ready)
	subscribe := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "subscribe", subscribe["type"])
	assert.Equal(t, float64(101), subscribe["nonce"])

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "subscribed", "message_nonce_group": 5},
	})
	assert.Equal(t, Ready, p.State())
	assert.True(t, ready)
}

func TestForeignNonceGroupIgnoredDuringHandshake(t *testing.T) {
	trader := newTestKeyPair(t, "trader")
	exchange := newTestKeyPair(t, "exchange")

	p := NewProtocol("acct-1", 5, trader.priv, exchange.pub)
	p.BindSender(&recordingSender{})
	p.Opened()

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "last_nonce", "nonce_group": 7, "last_nonce": 999},
	})
	assert.Equal(t, AwaitingLastNonce, p.State())

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "last_nonce", "nonce_group": 5, "last_nonce": 42},
	})
	assert.Equal(t, AwaitingSubscribed, p.State())
}

func TestCommandsRejectedBeforeReady(t *testing.T) {
	trader := newTestKeyPair(t, "trader")
	exchange := newTestKeyPair(t, "exchange")
	p := NewProtocol("acct-1", 5, trader.priv, exchange.pub)
	p.BindSender(&recordingSender{})

	err := p.PlaceOrder(context.Background(), command.PlaceOrder{
		ClientOrderID: 1, InstrumentID: 1, OrderType: "limit", LimitPrice: "1", Side: "buy", Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestPlaceOrderPostHandshakeSendsStampedCommand(t *testing.T) {
	p, sender, trader, exchange := newReadyProtocol(t, "acct-1", 5)

	err := p.PlaceOrder(context.Background(), command.PlaceOrder{
		ClientOrderID: 1, InstrumentID: 76, OrderType: "limit", LimitPrice: "123.45", Side: "buy", Quantity: 10,
	})
	require.NoError(t, err)

	sent := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "place_order", sent["type"])
	assert.Equal(t, "acct-1", sent["account_id"])
	assert.Equal(t, float64(5), sent["nonce_group"])
	assert.Equal(t, float64(102), sent["nonce"])
}

func TestMonotonicNoncesAcrossCommands(t *testing.T) {
	p, sender, trader, exchange := newReadyProtocol(t, "acct-1", 5)

	require.NoError(t, p.CancelAllOrders(context.Background()))
	first := sender.lastWireCommand(t, trader.pub, exchange.priv)["nonce"].(float64)

	require.NoError(t, p.CancelOrder(context.Background(), command.CancelOrder{ClientOrderID: 5}))
	second := sender.lastWireCommand(t, trader.pub, exchange.priv)["nonce"].(float64)

	assert.Equal(t, first+1, second)
}

func TestStandardBatchSendProducesBatchEnvelope(t *testing.T) {
	p, sender, trader, exchange := newReadyProtocol(t, "acct-1", 5)
	handshakeFrameCount := len(sender.sent)

	require.NoError(t, p.StartBatch())
	require.NoError(t, p.PlaceOrder(context.Background(), command.PlaceOrder{
		ClientOrderID: 1, InstrumentID: 1, OrderType: "limit", LimitPrice: "1", Side: "buy", Quantity: 1,
	}))
	require.NoError(t, p.CancelOrder(context.Background(), command.CancelOrder{ClientOrderID: 2}))

	assert.Equal(t, handshakeFrameCount, len(sender.sent), "batched commands must not be sent until SendBatch")

	require.NoError(t, p.SendBatch(context.Background()))
	assert.Equal(t, BatchNone, p.ActiveBatchMode())

	sent := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "batch", sent["type"])
	children, ok := sent["batch"].([]interface{})
	require.True(t, ok)
	assert.Len(t, children, 2)
}

func TestSendBatchFailsWithoutStartBatch(t *testing.T) {
	p, _, _, _ := newReadyProtocol(t, "acct-1", 5)
	err := p.SendBatch(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveBatch)
}

func TestSendBatchFailsWhenEmpty(t *testing.T) {
	p, _, _, _ := newReadyProtocol(t, "acct-1", 5)
	require.NoError(t, p.StartBatch())
	err := p.SendBatch(context.Background())
	assert.ErrorIs(t, err, command.ErrEmptyBatch)
}

func TestStartBatchFailsWhenAnotherModeActive(t *testing.T) {
	p, _, _, _ := newReadyProtocol(t, "acct-1", 5)
	require.NoError(t, p.StartTimeTriggeredBatch(1, 100, 200))
	err := p.StartBatch()
	assert.ErrorIs(t, err, ErrBatchModeConflict)
}

func TestTimeTriggeredCreateBatchFlow(t *testing.T) {
	p, sender, trader, exchange := newReadyProtocol(t, "acct-1", 5)

	require.NoError(t, p.StartTimeTriggeredBatch(77, 1000, 2000))
	assert.Equal(t, BatchTimeTriggeredCreate, p.ActiveBatchMode())

	require.NoError(t, p.PlaceOrder(context.Background(), command.PlaceOrder{
		ClientOrderID: 1, InstrumentID: 1, OrderType: "limit", LimitPrice: "1", Side: "buy", Quantity: 1,
	}))

	require.NoError(t, p.SendTimeTriggeredBatch(context.Background()))
	assert.Equal(t, BatchNone, p.ActiveBatchMode())

	sent := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "add_timer", sent["type"])
	assert.Equal(t, float64(77), sent["timer_id"])
	inner, ok := sent["command"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "batch", inner["type"])

	// Scenario 4 (spec §8): the outer add_timer envelope's nonce must be
	// stamped before its children's, so it is the lowest nonce in the
	// exchange even though the children are appended afterward.
	outerNonce := sent["nonce"].(float64)
	children, ok := inner["batch"].([]interface{})
	require.True(t, ok)
	require.Len(t, children, 1)
	childNonce := children[0].(map[string]interface{})["nonce"].(float64)
	assert.Less(t, outerNonce, childNonce)
}

func TestUpdateTimeTriggeredBatchWithOnlyTimestamps(t *testing.T) {
	p, sender, trader, exchange := newReadyProtocol(t, "acct-1", 5)

	newStart := int64(5000)
	require.NoError(t, p.StartUpdateTimeTriggeredBatch(9, &newStart, nil))
	assert.Equal(t, BatchTimeTriggeredUpdate, p.ActiveBatchMode())

	require.NoError(t, p.SendUpdateTimeTriggeredBatch(context.Background()))

	sent := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "update_timer", sent["type"])
	assert.Equal(t, float64(5000), sent["new_execution_start_timestamp"])
	assert.NotContains(t, sent, "new_command")
}

func TestSendUpdateTimeTriggeredBatchRequiresAField(t *testing.T) {
	p, _, _, _ := newReadyProtocol(t, "acct-1", 5)
	require.NoError(t, p.StartUpdateTimeTriggeredBatch(9, nil, nil))
	err := p.SendUpdateTimeTriggeredBatch(context.Background())
	assert.ErrorIs(t, err, command.ErrNoUpdateFields)
}

func TestCancelTimeTriggeredBatchIsStandalone(t *testing.T) {
	p, sender, trader, exchange := newReadyProtocol(t, "acct-1", 5)
	require.NoError(t, p.CancelTimeTriggeredBatch(context.Background(), 3))

	sent := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "cancel_timer", sent["type"])
	assert.Equal(t, float64(3), sent["timer_id"])
}

func TestExecuteInternalTransfer(t *testing.T) {
	p, sender, trader, exchange := newReadyProtocol(t, "acct-1", 5)
	require.NoError(t, p.ExecuteInternalTransfer(context.Background(), "acct-2", "10.5"))

	sent := sender.lastWireCommand(t, trader.pub, exchange.priv)
	assert.Equal(t, "internal_transfer", sent["type"])
	assert.Equal(t, "acct-2", sent["destination_account_id"])
	assert.Equal(t, "10.5", sent["amount"])
}

func TestInboundAccountStateDispatchesToGenericAndTypedCallback(t *testing.T) {
	p, _, trader, exchange := newReadyProtocol(t, "acct-1", 5)

	var genericCalls, typedCalls int
	p.AddListener(Listener{
		OnMessage:      func(Entity) { genericCalls++ },
		OnAccountState: func(Entity) { typedCalls++ },
	})

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "account_state", "balance": "1000.00"},
	})

	assert.Equal(t, 1, genericCalls)
	assert.Equal(t, 1, typedCalls)
}

func TestUnknownInboundTypeNeverDispatches(t *testing.T) {
	p, _, trader, exchange := newReadyProtocol(t, "acct-1", 5)
	called := false
	p.AddListener(Listener{OnMessage: func(Entity) { called = true }})

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "some_future_event_kind"},
	})
	assert.False(t, called)
}
