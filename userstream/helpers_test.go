package userstream

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/clearbook-project/clearbook/frame"
	"github.com/clearbook-project/clearbook/pgpenvelope"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// recordingSender captures every outbound frame for inspection, and
// optionally serves as the exchange's side of a round trip via decode.
type recordingSender struct {
	sent [][]byte
}

func (s *recordingSender) Send(_ context.Context, payload []byte) error {
	s.sent = append(s.sent, payload)
	return nil
}

// lastWireCommand decrypts and unwraps the most recently sent frame,
// returning the singleton array's sole object as a generic map.
func (s *recordingSender) lastWireCommand(t *testing.T, traderKey *pgpenvelope.PublicKey, exchangePriv *pgpenvelope.PrivateKey) map[string]interface{} {
	t.Helper()
	require.NotEmpty(t, s.sent)
	raw := s.sent[len(s.sent)-1]

	env, err := frame.Unwrap(raw)
	require.NoError(t, err)
	require.Equal(t, frame.KindData, env.Kind)

	plaintext, err := pgpenvelope.DecryptVerify(env.Payload, exchangePriv, traderKey)
	require.NoError(t, err)

	var arr []map[string]interface{}
	require.NoError(t, json.Unmarshal(plaintext, &arr))
	require.Len(t, arr, 1)
	return arr[0]
}

type testKeyPair struct {
	priv *pgpenvelope.PrivateKey
	pub  *pgpenvelope.PublicKey
}

func newTestKeyPair(t *testing.T, name string) testKeyPair {
	t.Helper()

	entity, err := openpgp.NewEntity(name, "clearbook test key", name+"@example.test", nil)
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

	return testKeyPair{priv: priv, pub: pub}
}

// newReadyProtocol builds a Protocol and drives it all the way to Ready,
// returning it alongside the sender used to inspect outbound frames and the
// exchange keys needed to decrypt/sign inbound entities in further tests.
func newReadyProtocol(t *testing.T, accountID string, nonceGroup NonceGroup) (*Protocol, *recordingSender, testKeyPair, testKeyPair) {
	t.Helper()

	trader := newTestKeyPair(t, "trader")
	exchange := newTestKeyPair(t, "exchange")

	p := NewProtocol(accountID, nonceGroup, trader.priv, exchange.pub)
	sender := &recordingSender{}
	p.BindSender(sender)

	p.Opened()
	require.Equal(t, AwaitingLastNonce, p.State())

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "last_nonce", "nonce_group": int(nonceGroup), "last_nonce": 100},
	})
	require.Equal(t, AwaitingSubscribed, p.State())

	deliverEntities(t, p, exchange.priv, trader.pub, []map[string]interface{}{
		{"type": "subscribed", "message_nonce_group": int(nonceGroup)},
	})
	require.Equal(t, Ready, p.State())

	return p, sender, trader, exchange
}

// deliverEntities encrypts entities (from the exchange to the trader) as a
// single data frame and hands it to p.Deliver.
func deliverEntities(t *testing.T, p *Protocol, exchangePriv *pgpenvelope.PrivateKey, traderPub *pgpenvelope.PublicKey, entities []map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(entities)
	require.NoError(t, err)

	armored, err := pgpenvelope.SignEncrypt(body, exchangePriv, traderPub)
	require.NoError(t, err)

	raw, err := frame.Wrap(armored)
	require.NoError(t, err)

	p.Deliver(raw)
}
