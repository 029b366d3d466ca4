// Copyright (C) 2025 clearbook-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package pgpenvelope

import (
	"bytes"
	"fmt"
	"sync"

	"golang.org/x/crypto/openpgp"
)

// PublicKey wraps a single OpenPGP entity used for signature verification and
// encryption. It is immutable after construction.
type PublicKey struct {
	entity *openpgp.Entity
}

// ParsePublicKey reads an ASCII-armored (or binary) OpenPGP public key and
// returns the first entity found in it. The exchange's key material is
// expected to contain exactly one entity.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("pgpenvelope: parse public key: %w", err)
		}
	}
	if len(keyring) == 0 {
		return nil, ErrEmptyKeyring
	}
	return &PublicKey{entity: keyring[0]}, nil
}

// keyring implements openpgp.KeyRing over a single entity so it can be
// passed directly to openpgp.CheckDetachedSignature and openpgp.ReadMessage.
func (k *PublicKey) keyring() openpgp.EntityList {
	return openpgp.EntityList{k.entity}
}

// PrivateKey wraps a single OpenPGP entity holding the trader's private key
// material. It is constructed locked; Unlock must be called once before any
// signing or decryption operation.
type PrivateKey struct {
	mu       sync.Mutex
	entity   *openpgp.Entity
	unlocked bool
}

// ParsePrivateKey reads an ASCII-armored (or binary) OpenPGP private key,
// returning it in its locked state.
func ParsePrivateKey(data []byte) (*PrivateKey, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("pgpenvelope: parse private key: %w", err)
		}
	}
	if len(keyring) == 0 {
		return nil, ErrEmptyKeyring
	}
	entity := keyring[0]
	if entity.PrivateKey == nil {
		return nil, ErrNoPrivateKey
	}
	return &PrivateKey{entity: entity}, nil
}

// Unlock decrypts the primary key and every subkey with the given
// passphrase. It is idempotent: once the key has been unlocked
// successfully, later calls are no-ops regardless of the passphrase
// supplied, matching the engine's "unlock exactly once, for the engine's
// lifetime" contract.
func (k *PrivateKey) Unlock(passphrase string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.unlocked {
		return nil
	}

	pass := []byte(passphrase)
	if k.entity.PrivateKey != nil && k.entity.PrivateKey.Encrypted {
		if err := k.entity.PrivateKey.Decrypt(pass); err != nil {
			return fmt.Errorf("pgpenvelope: unlock primary key: %w", err)
		}
	}
	for _, sub := range k.entity.Subkeys {
		if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
			if err := sub.PrivateKey.Decrypt(pass); err != nil {
				return fmt.Errorf("pgpenvelope: unlock subkey: %w", err)
			}
		}
	}

	k.unlocked = true
	return nil
}

// IsUnlocked reports whether Unlock has already completed successfully.
func (k *PrivateKey) IsUnlocked() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.unlocked
}

func (k *PrivateKey) requireUnlocked() error {
	if !k.IsUnlocked() {
		return ErrAlreadyLocked
	}
	return nil
}

func (k *PrivateKey) keyring() openpgp.EntityList {
	return openpgp.EntityList{k.entity}
}
