package store

import (
	"bytes"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kanzure/webcasa/internal/kv"
	"github.com/kanzure/webcasa/internal/webcash"
)

func newTestStore() (*Store, *kv.MemoryStore) {
	mem := kv.NewMemoryStore()
	return New(mem, zap.NewNop().Sugar()), mem
}

func TestLoadBeforeAnySave(t *testing.T) {
	s, _ := newTestStore()

	exists, err := s.Exists()
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("Exists should be false before any save")
	}

	h, err := s.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if h != nil {
		t.Error("Load before any save should be absent")
	}

	h, err = s.Load("anything")
	if err != nil {
		t.Fatal(err)
	}
	if h != nil {
		t.Error("Load with password before any save should be absent")
	}
}

func TestRoundTripUnencrypted(t *testing.T) {
	s, _ := newTestStore()

	doc := webcash.NewDocument()
	doc.Webcash = []string{"e1.00000000:secret:aa"}
	doc.AppendLog(webcash.LogTypeReceive, "1.00000000", "memo", "e1.00000000:secret:aa", "")

	h, err := s.Create(doc, "")
	if err != nil {
		t.Fatal(err)
	}
	if h.Encrypted() {
		t.Error("handle without password should not be encrypted")
	}
	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected a wallet")
	}
	got := loaded.Document()
	if got.MasterSecret != doc.MasterSecret {
		t.Error("master secret lost in round trip")
	}
	if got.Balance() != "1.00000000" {
		t.Errorf("balance = %q", got.Balance())
	}
	if len(got.Log) != 1 {
		t.Errorf("log lost: %+v", got.Log)
	}
}

func TestRoundTripEncrypted(t *testing.T) {
	s, mem := newTestStore()

	doc := webcash.NewDocument()
	doc.Webcash = []string{"e2.50000000:secret:bb"}

	h, err := s.Create(doc, "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if !h.Encrypted() {
		t.Error("handle with password should be encrypted")
	}

	// Create does not persist until Save.
	if ok, _ := mem.Exists(WalletSlot); ok {
		t.Fatal("Create must not persist")
	}
	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}

	// The stored blob must not contain the document in the clear.
	blob, err := mem.Get(WalletSlot)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(blob, []byte(doc.MasterSecret)) {
		t.Error("stored blob leaks the master secret")
	}

	loaded, err := s.Load("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("expected a wallet with the right password")
	}
	if loaded.Document().MasterSecret != doc.MasterSecret {
		t.Error("master secret lost in encrypted round trip")
	}
	if !loaded.Encrypted() {
		t.Error("loaded handle must retain the key for future saves")
	}
}

func TestWrongPasswordIsAbsentNotError(t *testing.T) {
	s, _ := newTestStore()

	h, _ := s.Create(nil, "p1")
	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load("p2")
	if err != nil {
		t.Fatalf("wrong password must not surface an error, got %v", err)
	}
	if loaded != nil {
		t.Fatal("wrong password must yield absent")
	}
}

func TestCorruptedBlobIsAbsent(t *testing.T) {
	s, mem := newTestStore()

	h, _ := s.Create(nil, "pw")
	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}
	if err := mem.Put(WalletSlot, []byte("корrupted")); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load("pw")
	if err != nil || loaded != nil {
		t.Errorf("corrupted blob: got (%v, %v), want absent", loaded, err)
	}

	// Indistinguishable from wrong password by contract.
	loaded, err = s.Load("")
	if err != nil || loaded != nil {
		t.Errorf("corrupted plaintext: got (%v, %v), want absent", loaded, err)
	}
}

func TestSaveWriteFailurePropagates(t *testing.T) {
	s, mem := newTestStore()
	boom := errors.New("quota exceeded")
	mem.FailPuts = boom

	h, _ := s.Create(nil, "")
	if err := s.Save(h); !errors.Is(err, boom) {
		t.Errorf("Save = %v, want propagated write failure", err)
	}
}

func TestSetPasswordChangesFutureSavesOnly(t *testing.T) {
	s, _ := newTestStore()

	h, _ := s.Create(nil, "")
	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}

	if err := h.SetPassword("new pass"); err != nil {
		t.Fatal(err)
	}
	// Not saved yet: the slot still holds the plaintext wallet.
	loaded, err := s.Load("")
	if err != nil || loaded == nil {
		t.Fatalf("plaintext load after SetPassword without Save: (%v, %v)", loaded, err)
	}

	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}
	loaded, err = s.Load("new pass")
	if err != nil || loaded == nil {
		t.Fatalf("encrypted load after Save: (%v, %v)", loaded, err)
	}
}

func TestClearPassword(t *testing.T) {
	s, _ := newTestStore()

	h, _ := s.Create(nil, "pw")
	h.ClearPassword()
	if h.Encrypted() {
		t.Error("handle should be plaintext after ClearPassword")
	}
	if err := s.Save(h); err != nil {
		t.Fatal(err)
	}
	loaded, err := s.Load("")
	if err != nil || loaded == nil {
		t.Errorf("plaintext load after ClearPassword: (%v, %v)", loaded, err)
	}
}
