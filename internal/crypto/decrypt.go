package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// DecryptBlob opens a JSON envelope produced by EncryptBlob with the derived
// key and returns the plaintext. A wrong key and a corrupted envelope are not
// distinguishable to callers; both are a plain open failure.
func DecryptBlob(blob, key []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if !env.Encrypted {
		return nil, errors.New("blob is not an encrypted envelope")
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// Open panics on a wrong-size nonce, so a tampered envelope has to be
	// rejected here, with the same error as a failed decryption.
	if len(nonce) != aesGCM.NonceSize() || len(ciphertext) < aesGCM.Overhead() {
		return nil, errors.New("invalid password")
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("invalid password")
	}
	return plaintext, nil
}
