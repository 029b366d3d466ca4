package market

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/clearbook-project/clearbook/pgpenvelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

func newTestExchangeKeys(t *testing.T) (*pgpenvelope.PrivateKey, *pgpenvelope.PublicKey) {
	t.Helper()

	entity, err := openpgp.NewEntity("exchange", "clearbook test key", "exchange@example.test", nil)
	require.NoError(t, err)

	var pubBuf, privBuf bytes.Buffer

	pubWriter, err := armor.Encode(&pubBuf, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(pubWriter))
	require.NoError(t, pubWriter.Close())

	privWriter, err := armor.Encode(&privBuf, openpgp.PrivateKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.SerializePrivate(privWriter, nil))
	require.NoError(t, privWriter.Close())

	priv, err := pgpenvelope.ParsePrivateKey(privBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, priv.Unlock(""))

	pub, err := pgpenvelope.ParsePublicKey(pubBuf.Bytes())
	require.NoError(t, err)

	return priv, pub
}

func clearsignedDataFrame(t *testing.T, signer *pgpenvelope.PrivateKey, payload interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	blob, err := pgpenvelope.SignClearsigned(signer, body)
	require.NoError(t, err)

	frameBytes, err := json.Marshal(map[string]string{"type": "data", "data": string(blob)})
	require.NoError(t, err)
	return frameBytes
}

func TestDeliverDispatchesOrderBookToGenericAndTypedCallbacks(t *testing.T) {
	signer, pub := newTestExchangeKeys(t)
	p := NewProtocol(pub)

	var gotGeneric Message
	var gotTyped OrderBook
	p.AddListener(Listener{
		OnMessage:   func(msg Message) { gotGeneric = msg },
		OnOrderBook: func(msg OrderBook) { gotTyped = msg },
	})

	raw := clearsignedDataFrame(t, signer, map[string]interface{}{
		"type": "order_book", "instrument_id": 76, "timestamp": 100,
	})
	p.Deliver(raw)

	assert.Equal(t, MessageOrderBook, gotGeneric.Type)
	assert.Equal(t, int64(76), gotTyped.InstrumentID)
}

func TestDeliverKeepaliveNeverDispatches(t *testing.T) {
	_, pub := newTestExchangeKeys(t)
	p := NewProtocol(pub)

	called := false
	p.AddListener(Listener{OnMessage: func(Message) { called = true }, OnError: func(error) { called = true }})

	p.Deliver([]byte(`{"type":"keepalive"}`))
	assert.False(t, called)
}

func TestDeliverUnknownTypeNeverDispatches(t *testing.T) {
	_, pub := newTestExchangeKeys(t)
	p := NewProtocol(pub)

	called := false
	p.AddListener(Listener{OnMessage: func(Message) { called = true }, OnError: func(error) { called = true }})

	p.Deliver([]byte(`{"type":"a_future_market_event"}`))
	assert.False(t, called)
}

func TestMaintenanceErrorFrameNeverTriggersOnError(t *testing.T) {
	_, pub := newTestExchangeKeys(t)
	p := NewProtocol(pub)

	called := false
	p.AddListener(Listener{OnError: func(error) { called = true }})

	p.Deliver([]byte(`{"type":"error","error_code":"maintenance"}`))
	assert.False(t, called)
}

func TestNonMaintenanceErrorFrameTriggersOnError(t *testing.T) {
	_, pub := newTestExchangeKeys(t)
	p := NewProtocol(pub)

	var got error
	p.AddListener(Listener{OnError: func(err error) { got = err }})

	p.Deliver([]byte(`{"type":"error","error_code":"rate_limited"}`))
	require.Error(t, got)
}

func TestUnverifiableSignatureSurfacesErrorNotDispatch(t *testing.T) {
	_, pubA := newTestExchangeKeys(t)
	signerB, _ := newTestExchangeKeys(t)

	p := NewProtocol(pubA)
	var gotErr error
	called := false
	p.AddListener(Listener{
		OnError:   func(err error) { gotErr = err },
		OnMessage: func(Message) { called = true },
	})

	raw := clearsignedDataFrame(t, signerB, OrderBook{InstrumentID: 1})
	p.Deliver(raw)

	require.Error(t, gotErr)
	assert.False(t, called)
}

func TestRemovedListenerReceivesNoFurtherCallbacks(t *testing.T) {
	signer, pub := newTestExchangeKeys(t)
	p := NewProtocol(pub)

	count := 0
	h := p.AddListener(Listener{OnMessage: func(Message) { count++ }})
	p.RemoveListener(h)

	p.Deliver(clearsignedDataFrame(t, signer, map[string]interface{}{"type": "order_book", "instrument_id": 1}))
	assert.Equal(t, 0, count)
}
