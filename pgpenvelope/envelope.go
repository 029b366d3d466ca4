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
	"io"
	"time"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/clearsign"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/clearbook-project/clearbook/internal/metrics"
)

// keyAlgorithm names the primary key's public-key algorithm for metric
// labels, e.g. "rsa" or "eddsa". Unrecognized algorithm IDs fall back to
// their numeric form rather than failing the operation they're labeling.
func keyAlgorithm(entity *openpgp.Entity) string {
	if entity == nil || entity.PrimaryKey == nil {
		return "unknown"
	}
	switch entity.PrimaryKey.PubKeyAlgo {
	case packet.PubKeyAlgoRSA, packet.PubKeyAlgoRSAEncryptOnly, packet.PubKeyAlgoRSASignOnly:
		return "rsa"
	case packet.PubKeyAlgoElGamal:
		return "elgamal"
	case packet.PubKeyAlgoDSA:
		return "dsa"
	case packet.PubKeyAlgoECDH:
		return "ecdh"
	case packet.PubKeyAlgoECDSA:
		return "ecdsa"
	case packet.PubKeyAlgoEdDSA:
		return "eddsa"
	default:
		return fmt.Sprintf("algo_%d", entity.PrimaryKey.PubKeyAlgo)
	}
}

// observe records a crypto operation's outcome and duration under op/algorithm.
func observe(op, algorithm string, start time.Time, err error) {
	metrics.CryptoOperations.WithLabelValues(op, algorithm).Inc()
	metrics.CryptoOperationDuration.WithLabelValues(op, algorithm).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CryptoErrors.WithLabelValues(op).Inc()
	}
}

// SignClearsigned produces an ASCII-armored OpenPGP clearsigned message
// whose canonical plaintext equals text. Used for the market stream, where
// the exchange signs every payload it publishes.
func SignClearsigned(signer *PrivateKey, text []byte) (out []byte, err error) {
	start := time.Now()
	defer func() { observe("clearsign", keyAlgorithm(signer.entity), start, err) }()

	if err = signer.requireUnlocked(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, encErr := clearsign.Encode(&buf, signer.entity.PrivateKey, nil)
	if encErr != nil {
		err = fmt.Errorf("pgpenvelope: clearsign encode: %w", encErr)
		return nil, err
	}
	if _, werr := w.Write(text); werr != nil {
		_ = w.Close()
		err = fmt.Errorf("pgpenvelope: clearsign write: %w", werr)
		return nil, err
	}
	if cerr := w.Close(); cerr != nil {
		err = fmt.Errorf("pgpenvelope: clearsign close: %w", cerr)
		return nil, err
	}
	return buf.Bytes(), nil
}

// VerifyClearsigned verifies an ASCII-armored clearsigned blob against key
// and returns the canonical plaintext on success.
func VerifyClearsigned(blob []byte, key *PublicKey) (plaintext []byte, err error) {
	start := time.Now()
	defer func() { observe("verify", keyAlgorithm(key.entity), start, err) }()

	block, _ := clearsign.Decode(blob)
	if block == nil || block.Signature == nil {
		err = ErrSignatureInvalid
		return nil, err
	}

	signingKey := findSigningKey(key.entity, block.Signature.IssuerKeyId)
	if signingKey == nil {
		err = ErrSignatureInvalid
		return nil, err
	}

	hashFunc := block.Signature.Hash.New()
	hashFunc.Write(block.Bytes)
	if verr := signingKey.VerifySignature(hashFunc, block.Signature); verr != nil {
		err = ErrSignatureInvalid
		return nil, err
	}
	return block.Plaintext, nil
}

// SignEncrypt signs plaintext with signer and encrypts it to recipient,
// returning an ASCII-armored OpenPGP message. Used for every outbound
// user-stream command.
func SignEncrypt(plaintext []byte, signer *PrivateKey, recipient *PublicKey) (out []byte, err error) {
	start := time.Now()
	defer func() { observe("encrypt", keyAlgorithm(signer.entity), start, err) }()

	if err = signer.requireUnlocked(); err != nil {
		return nil, err
	}

	var cipherBuf bytes.Buffer
	armorWriter, aerr := armor.Encode(&cipherBuf, "PGP MESSAGE", nil)
	if aerr != nil {
		err = fmt.Errorf("pgpenvelope: armor encode: %w", aerr)
		return nil, err
	}

	plaintextWriter, eerr := openpgp.Encrypt(armorWriter, recipient.keyring(), signer.entity, nil, nil)
	if eerr != nil {
		err = fmt.Errorf("pgpenvelope: encrypt: %w", eerr)
		return nil, err
	}
	if _, werr := plaintextWriter.Write(plaintext); werr != nil {
		_ = plaintextWriter.Close()
		err = fmt.Errorf("pgpenvelope: encrypt write: %w", werr)
		return nil, err
	}
	if cerr := plaintextWriter.Close(); cerr != nil {
		err = fmt.Errorf("pgpenvelope: encrypt close: %w", cerr)
		return nil, err
	}
	if cerr := armorWriter.Close(); cerr != nil {
		err = fmt.Errorf("pgpenvelope: armor close: %w", cerr)
		return nil, err
	}
	return cipherBuf.Bytes(), nil
}

// DecryptVerify decrypts an ASCII-armored OpenPGP message addressed to
// recipient and verifies it was signed by signer. Used for every inbound
// user-stream payload.
func DecryptVerify(armoredCiphertext []byte, recipient *PrivateKey, signer *PublicKey) (plaintext []byte, err error) {
	start := time.Now()
	defer func() { observe("decrypt", keyAlgorithm(recipient.entity), start, err) }()

	if err = recipient.requireUnlocked(); err != nil {
		return nil, err
	}

	block, aerr := armor.Decode(bytes.NewReader(armoredCiphertext))
	if aerr != nil {
		err = fmt.Errorf("%w: armor decode: %v", ErrDecryptFailed, aerr)
		return nil, err
	}

	keyring := append(openpgp.EntityList{}, recipient.keyring()...)
	keyring = append(keyring, signer.keyring()...)

	md, merr := openpgp.ReadMessage(block.Body, keyring, nil, nil)
	if merr != nil {
		err = fmt.Errorf("%w: %v", ErrDecryptFailed, merr)
		return nil, err
	}

	body, rerr := io.ReadAll(md.UnverifiedBody)
	if rerr != nil {
		err = fmt.Errorf("%w: read body: %v", ErrDecryptFailed, rerr)
		return nil, err
	}

	if md.SignatureError != nil {
		err = ErrSignatureInvalid
		return nil, err
	}
	if md.SignedBy == nil {
		err = ErrSignatureInvalid
		return nil, err
	}
	if findSigningKey(signer.entity, md.SignedBy.PublicKey.KeyId) == nil {
		err = ErrSignatureInvalid
		return nil, err
	}

	return body, nil
}

// findSigningKey locates the public key within entity (primary or subkey)
// whose key ID matches keyID, returning nil if none matches.
func findSigningKey(entity *openpgp.Entity, keyID uint64) *packet.PublicKey {
	if entity.PrimaryKey != nil && entity.PrimaryKey.KeyId == keyID {
		return entity.PrimaryKey
	}
	for _, sub := range entity.Subkeys {
		if sub.PublicKey != nil && sub.PublicKey.KeyId == keyID {
			return sub.PublicKey
		}
	}
	return nil
}
