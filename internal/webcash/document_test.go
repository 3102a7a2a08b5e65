package webcash

import "testing"

func TestNewDocumentHasMasterSecret(t *testing.T) {
	a := NewDocument()
	b := NewDocument()
	if a.MasterSecret == "" {
		t.Fatal("new document has empty master secret")
	}
	if len(a.MasterSecret) != 64 {
		t.Errorf("master secret length = %d, want 64 hex chars", len(a.MasterSecret))
	}
	if a.MasterSecret == b.MasterSecret {
		t.Error("two new documents share a master secret")
	}
}

func TestParseDocumentNormalizes(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"master_secret":"abc"}`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if doc.MasterSecret != "abc" {
		t.Errorf("master secret = %q", doc.MasterSecret)
	}
	if doc.Webcash == nil || doc.Unconfirmed == nil || doc.Log == nil {
		t.Error("collections should be normalized to empty, not nil")
	}
	if doc.LegalAgreements == nil || doc.WalletDepths == nil {
		t.Error("maps should be normalized to empty, not nil")
	}
}

func TestParseDocumentInvalid(t *testing.T) {
	if _, err := ParseDocument([]byte("not json")); err == nil {
		t.Error("expected error for malformed document")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	doc := NewDocument()
	doc.Webcash = []string{"e1.00000000:secret:aa"}
	doc.AppendLog(LogTypeReceive, "1.00000000", "hi", "e1.00000000:secret:aa", "")

	data, err := doc.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	parsed, err := ParseDocument(data)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if parsed.MasterSecret != doc.MasterSecret {
		t.Error("master secret changed in round trip")
	}
	if len(parsed.Log) != 1 || parsed.Log[0].Memo != "hi" {
		t.Errorf("log lost in round trip: %+v", parsed.Log)
	}
}

func TestBalance(t *testing.T) {
	doc := NewDocument()
	if got := doc.Balance(); got != "0.00000000" {
		t.Errorf("empty balance = %q", got)
	}

	doc.Webcash = []string{
		"e1.5:secret:aa",
		"e0.25:secret:bb",
		"garbage entry", // skipped, not fatal
	}
	if got := doc.Balance(); got != "1.75000000" {
		t.Errorf("balance = %q, want 1.75000000", got)
	}
}

func TestLegalAgreements(t *testing.T) {
	doc := NewDocument()
	if doc.CheckLegalAgreements() {
		t.Error("fresh document should not have agreements accepted")
	}
	doc.SetLegalAgreementsToTrue()
	if !doc.CheckLegalAgreements() {
		t.Error("agreements should be accepted after set")
	}

	// Survives a nil map from a hand-edited wallet.
	doc.LegalAgreements = nil
	doc.SetLegalAgreementsToTrue()
	if !doc.CheckLegalAgreements() {
		t.Error("set should handle nil map")
	}
}
