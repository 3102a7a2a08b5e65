// Package store persists the wallet document into a single key-value slot,
// optionally encrypted under a password-derived key.
package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kanzure/webcasa/internal/crypto"
	"github.com/kanzure/webcasa/internal/kv"
	"github.com/kanzure/webcasa/internal/webcash"
)

// WalletSlot is the key-value slot holding the stored wallet blob.
const WalletSlot = "wallet"

// Handle wraps an in-memory wallet document together with the key material
// used for future saves. The store itself retains nothing between calls.
type Handle struct {
	doc *webcash.WalletDocument
	key []byte // derived cipher key; nil when the wallet is not password protected
}

// Document returns the wrapped wallet document.
func (h *Handle) Document() *webcash.WalletDocument { return h.doc }

// Encrypted reports whether saves through this handle will be encrypted.
func (h *Handle) Encrypted() bool { return h.key != nil }

// SetPassword sets or replaces the key derivation used by future saves. It
// does not itself trigger a save.
func (h *Handle) SetPassword(password string) error {
	pw := []byte(password)
	defer clear(pw)

	key, err := crypto.DeriveKey(pw)
	if err != nil {
		return err
	}
	h.key = key
	return nil
}

// ClearPassword drops the retained key so future saves are plaintext.
func (h *Handle) ClearPassword() {
	clear(h.key)
	h.key = nil
}

// Store reads and writes the wallet slot. Every load and save is a complete,
// self-contained transaction against the slot.
type Store struct {
	kv  kv.Store
	log *zap.SugaredLogger
}

// New returns a store over the given key-value backend.
func New(backend kv.Store, log *zap.SugaredLogger) *Store {
	return &Store{kv: backend, log: log}
}

// Exists reports whether the wallet slot is present, independent of password.
func (s *Store) Exists() (bool, error) {
	return s.kv.Exists(WalletSlot)
}

// Create builds a handle over initial (an empty wallet when nil). When a
// password is given the derived key is retained for subsequent saves; nothing
// is persisted until Save is called.
func (s *Store) Create(initial *webcash.WalletDocument, password string) (*Handle, error) {
	if initial == nil {
		initial = webcash.NewDocument()
	}
	h := &Handle{doc: initial}
	if password != "" {
		if err := h.SetPassword(password); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Save serializes the handle's document and writes it into the slot,
// encrypting first when the handle carries a key. The slot is always
// overwritten in full. A failed write (e.g. disk full) is propagated.
func (s *Store) Save(h *Handle) error {
	plaintext, err := h.doc.Serialize()
	if err != nil {
		return err
	}

	blob := plaintext
	if h.key != nil {
		blob, err = crypto.EncryptBlob(plaintext, h.key)
		if err != nil {
			return err
		}
		clear(plaintext)
	}

	if err := s.kv.Put(WalletSlot, blob); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	s.log.Debug("wallet saved to slot store")
	return nil
}

// Load reads the slot and returns a handle, or nil when the slot is absent.
//
// With no password the blob is parsed as plaintext JSON (the never-encrypted
// case). With a password the same key is derived and the blob decrypted. Any
// decrypt or parse failure also returns nil: a wrong password and a corrupted
// blob are indistinguishable to the caller, which only learns "load failed".
func (s *Store) Load(password string) (*Handle, error) {
	blob, err := s.kv.Get(WalletSlot)
	if err == kv.ErrNotFound {
		s.log.Warn("wallet not found in slot store")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if password == "" {
		doc, err := webcash.ParseDocument(blob)
		if err != nil {
			s.log.Warnw("failed to parse stored wallet", "error", err)
			return nil, nil
		}
		s.log.Info("wallet loaded from slot store")
		return &Handle{doc: doc}, nil
	}

	pw := []byte(password)
	defer clear(pw)

	key, err := crypto.DeriveKey(pw)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.DecryptBlob(blob, key)
	if err != nil {
		s.log.Warn("incorrect password when loading wallet")
		return nil, nil
	}

	doc, err := webcash.ParseDocument(plaintext)
	clear(plaintext)
	if err != nil {
		s.log.Warn("incorrect password when loading wallet")
		return nil, nil
	}

	s.log.Info("wallet loaded from slot store")
	return &Handle{doc: doc, key: key}, nil
}
