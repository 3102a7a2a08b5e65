package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the wallet blob.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	nonceLen     = 12

	// fixedSalt is combined with the password before key derivation. It must
	// never change: the same password has to yield the same key on every
	// device the blob is copied to.
	fixedSalt = "_webcasa_salt_rdJpbXdL2YrPHymp"
)

// envelope is the persisted shape of an encrypted blob.
type envelope struct {
	Encrypted  bool   `json:"encrypted"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"ciphertext"`
}

// DeriveKey turns a password into fixed-size key material. The password is
// never handed to the cipher directly.
// password must be []byte for security (caller should zero it after use)
func DeriveKey(password []byte) ([]byte, error) {
	key, err := scrypt.Key(password, []byte(fixedSalt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// EncryptBlob encrypts plaintext under the derived key and returns the JSON
// envelope to persist.
func EncryptBlob(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	blob, err := json.Marshal(envelope{
		Encrypted:  true,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return blob, nil
}
