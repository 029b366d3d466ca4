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

// Package pgpenvelope implements the cryptographic message envelope used by
// both exchange streams: clearsigned verification for the market stream and
// sign+encrypt/decrypt+verify for the user stream.
package pgpenvelope

import "errors"

// Common errors returned by envelope operations.
var (
	ErrSignatureInvalid = errors.New("pgpenvelope: signature invalid")
	ErrDecryptFailed    = errors.New("pgpenvelope: decryption failed")
	ErrNoPrivateKey     = errors.New("pgpenvelope: entity has no usable private key")
	ErrAlreadyLocked    = errors.New("pgpenvelope: key material is locked")
	ErrEmptyKeyring     = errors.New("pgpenvelope: empty key material")
)
