// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/xtea"
)

// Key is a 128-bit XTEA key as four signed 32-bit words, the form in
// which keys are distributed and configured.
type Key [4]int32

// ZeroKey is the all-zero key. Records stored under it are not
// enciphered.
var ZeroKey Key

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == ZeroKey
}

func (k Key) cipher() (*xtea.Cipher, error) {
	var raw [16]byte
	for i, word := range k {
		binary.BigEndian.PutUint32(raw[i*4:], uint32(word))
	}
	block, err := xtea.NewCipher(raw[:])
	if err != nil {
		return nil, fmt.Errorf("creating xtea cipher: %w", err)
	}
	return block, nil
}

// Encipher encrypts buf[start:end] in place under k. Only whole
// 8-byte blocks are transformed; a trailing partial block is left
// untouched. The zero key is a no-op.
func Encipher(buf []byte, start, end int, k Key) error {
	return k.apply(buf, start, end, true)
}

// Decipher reverses Encipher.
func Decipher(buf []byte, start, end int, k Key) error {
	return k.apply(buf, start, end, false)
}

func (k Key) apply(buf []byte, start, end int, encrypt bool) error {
	if k.IsZero() {
		return nil
	}
	if start < 0 || end > len(buf) || start > end {
		return fmt.Errorf("cipher range [%d, %d) outside buffer of %d bytes", start, end, len(buf))
	}
	block, err := k.cipher()
	if err != nil {
		return err
	}
	blocks := (end - start) / xtea.BlockSize
	for i := 0; i < blocks; i++ {
		chunk := buf[start+i*xtea.BlockSize : start+(i+1)*xtea.BlockSize]
		if encrypt {
			block.Encrypt(chunk, chunk)
		} else {
			block.Decrypt(chunk, chunk)
		}
	}
	return nil
}
