// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package cipher implements the passphrase-derived symmetric cipher used to
// encipher message bodies independently of the transport.
//
// The key is the MD5 digest of the passphrase, used as a two-key Triple DES
// key. Each 8-byte block is enciphered independently (ECB) after PKCS #7
// padding, and the ciphertext is encoded as base64 with "/" replaced by "-"
// and "+" replaced by "_" so that it is safe in paths and URLs.
//
// This construction is retained for compatibility with existing peers. It is
// not a secure cipher: identical plaintext blocks yield identical ciphertext
// blocks, and the key derivation is unsalted.
package cipher

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Marker is the prefix that identifies a sealed body.
const Marker = "[CRYPTOR]"

// SetMarker is the prefix of a body that requests a dictionary rekey.
const SetMarker = "[CRYPTORSET]"

// ErrPadding is reported when decrypted data does not carry valid padding,
// which usually means the passphrase was wrong.
var ErrPadding = errors.New("cipher: invalid padding")

var urlSafe = strings.NewReplacer("/", "-", "+", "_")
var urlUnsafe = strings.NewReplacer("-", "/", "_", "+")

// A Cryptor enciphers and deciphers text with a fixed passphrase.
type Cryptor struct {
	block cipher.Block
}

// New constructs a Cryptor for the given passphrase.
func New(passphrase string) (*Cryptor, error) {
	sum := md5.Sum([]byte(passphrase))
	key := make([]byte, 0, 24)
	key = append(key, sum[:]...)
	key = append(key, sum[:8]...) // K1|K2|K1
	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return &Cryptor{block: block}, nil
}

// Encrypt enciphers text and returns the encoded ciphertext.
func (c *Cryptor) Encrypt(text string) string {
	bs := c.block.BlockSize()
	data := pad([]byte(text), bs)
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += bs {
		c.block.Encrypt(out[i:i+bs], data[i:i+bs])
	}
	return urlSafe.Replace(base64.StdEncoding.EncodeToString(out))
}

// Decrypt deciphers encoded ciphertext produced by Encrypt.
func (c *Cryptor) Decrypt(text string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(urlUnsafe.Replace(strings.TrimSpace(text)))
	if err != nil {
		return "", fmt.Errorf("cipher: decode: %w", err)
	}
	bs := c.block.BlockSize()
	if len(data) == 0 || len(data)%bs != 0 {
		return "", fmt.Errorf("cipher: ciphertext length %d is not a multiple of %d", len(data), bs)
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += bs {
		c.block.Decrypt(out[i:i+bs], data[i:i+bs])
	}
	plain, err := unpad(out, bs)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Seal enciphers text and adds the Marker prefix.
func (c *Cryptor) Seal(text string) string { return Marker + c.Encrypt(text) }

// Unseal deciphers a sealed text. If text does not carry the Marker prefix it
// is returned unchanged with ok == false.
func (c *Cryptor) Unseal(text string) (_ string, ok bool, _ error) {
	rest, ok := strings.CutPrefix(text, Marker)
	if !ok {
		return text, false, nil
	}
	plain, err := c.Decrypt(rest)
	if err != nil {
		return text, true, err
	}
	return plain, true, nil
}

// IsSealed reports whether text carries the Marker prefix.
func IsSealed(text string) bool { return strings.HasPrefix(text, Marker) }

func pad(data []byte, bs int) []byte {
	n := bs - len(data)%bs
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, bs int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > bs || n > len(data) {
		return nil, ErrPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrPadding
		}
	}
	return data[:len(data)-n], nil
}
