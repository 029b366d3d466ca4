package pgpenvelope

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// generateTestEntity creates a fresh, throwaway OpenPGP entity for use in
// tests and returns its armored public and passphrase-protected private key
// material, mirroring how an exchange or trader would distribute keys.
func generateTestEntity(t *testing.T, name, passphrase string) (publicArmor, privateArmor []byte) {
	t.Helper()

	entity, err := openpgp.NewEntity(name, "clearbook test key", name+"@example.test", nil)
	if err != nil {
		t.Fatalf("generate entity: %v", err)
	}

	if passphrase != "" {
		if err := entity.PrivateKey.Encrypt([]byte(passphrase)); err != nil {
			t.Fatalf("encrypt primary key: %v", err)
		}
		for _, sub := range entity.Subkeys {
			if err := sub.PrivateKey.Encrypt([]byte(passphrase)); err != nil {
				t.Fatalf("encrypt subkey: %v", err)
			}
		}
	}

	var pubBuf bytes.Buffer
	pubWriter, err := armor.Encode(&pubBuf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor public: %v", err)
	}
	if err := entity.Serialize(pubWriter); err != nil {
		t.Fatalf("serialize public: %v", err)
	}
	if err := pubWriter.Close(); err != nil {
		t.Fatalf("close public armor: %v", err)
	}

	var privBuf bytes.Buffer
	privWriter, err := armor.Encode(&privBuf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor private: %v", err)
	}
	if err := entity.SerializePrivate(privWriter, nil); err != nil {
		t.Fatalf("serialize private: %v", err)
	}
	if err := privWriter.Close(); err != nil {
		t.Fatalf("close private armor: %v", err)
	}

	return pubBuf.Bytes(), privBuf.Bytes()
}
