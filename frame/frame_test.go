package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapKeepalive(t *testing.T) {
	env, err := Unwrap([]byte(`{"type":"keepalive"}`))
	require.NoError(t, err)
	assert.Equal(t, KindKeepalive, env.Kind)
}

func TestUnwrapData(t *testing.T) {
	env, err := Unwrap([]byte(`{"type":"data","data":"-----BEGIN PGP MESSAGE-----"}`))
	require.NoError(t, err)
	assert.Equal(t, KindData, env.Kind)
	assert.Equal(t, "-----BEGIN PGP MESSAGE-----", string(env.Payload))
}

func TestUnwrapMaintenanceError(t *testing.T) {
	env, err := Unwrap([]byte(`{"type":"error","error_code":"maintenance"}`))
	require.NoError(t, err)
	assert.Equal(t, KindError, env.Kind)
	assert.True(t, env.IsMaintenance())
}

func TestUnwrapNonMaintenanceError(t *testing.T) {
	env, err := Unwrap([]byte(`{"type":"error","error_code":"rate_limited"}`))
	require.NoError(t, err)
	assert.Equal(t, KindError, env.Kind)
	assert.False(t, env.IsMaintenance())
}

func TestUnwrapUnknownTypeIsIgnored(t *testing.T) {
	env, err := Unwrap([]byte(`{"type":"some_future_frame_kind","foo":"bar"}`))
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, env.Kind)
}

func TestUnwrapMalformedJSON(t *testing.T) {
	_, err := Unwrap([]byte(`not json`))
	assert.Error(t, err)
	var malformed *MalformedFrameError
	assert.ErrorAs(t, err, &malformed)
}

func TestWrapRoundTrip(t *testing.T) {
	raw, err := Wrap([]byte("armored-ciphertext"))
	require.NoError(t, err)

	env, err := Unwrap(raw)
	require.NoError(t, err)
	assert.Equal(t, KindData, env.Kind)
	assert.Equal(t, "armored-ciphertext", string(env.Payload))
}
