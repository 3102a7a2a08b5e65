package webcash

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Log entry types. The history log is a contract consumed by renderers and
// must keep this shape.
const (
	LogTypeReceive = "receive"
	LogTypeInsert  = "insert"
	LogTypePayment = "payment"
)

// LogEntry is one line of wallet history. Webcash holds the resulting secret;
// Input is set on insert entries where the incoming secret was replaced.
type LogEntry struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Amount    string `json:"amount"`
	Memo      string `json:"memo"`
	Webcash   string `json:"webcash"`
	Input     string `json:"input,omitempty"`
}

// WalletDocument is the serializable wallet state. Outside of the master
// secret, the balance and the log, its fields are owned by the wallet backend
// and carried opaquely.
type WalletDocument struct {
	Version         string            `json:"version"`
	LegalAgreements map[string]bool   `json:"legalagreements"`
	MasterSecret    string            `json:"master_secret"`
	WalletDepths    map[string]uint64 `json:"walletdepths"`
	Webcash         []string          `json:"webcash"`
	Unconfirmed     []string          `json:"unconfirmed"`
	Log             []LogEntry        `json:"log"`
}

const documentVersion = "1.0"

// legal agreement keys tracked per wallet
const termsOfServiceKey = "terms_of_service"

// NewDocument returns an empty wallet document with a freshly generated
// master secret.
func NewDocument() *WalletDocument {
	return &WalletDocument{
		MasterSecret:    newMasterSecret(),
		Version:         documentVersion,
		LegalAgreements: map[string]bool{},
		WalletDepths:    map[string]uint64{},
		Webcash:         []string{},
		Unconfirmed:     []string{},
		Log:             []LogEntry{},
	}
}

// newMasterSecret returns 32 random bytes hex-encoded. Deriving individual
// webcash secrets from it is the backend's business.
func newMasterSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	return hex.EncodeToString(buf)
}

// ParseDocument parses a serialized wallet document, e.g. an uploaded
// default_wallet.webcash file. Missing collections are normalized so callers
// never see nil maps or slices.
func ParseDocument(data []byte) (*WalletDocument, error) {
	var doc WalletDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse wallet document: %w", err)
	}
	doc.normalize()
	return &doc, nil
}

func (d *WalletDocument) normalize() {
	if d.Version == "" {
		d.Version = documentVersion
	}
	if d.LegalAgreements == nil {
		d.LegalAgreements = map[string]bool{}
	}
	if d.WalletDepths == nil {
		d.WalletDepths = map[string]uint64{}
	}
	if d.Webcash == nil {
		d.Webcash = []string{}
	}
	if d.Unconfirmed == nil {
		d.Unconfirmed = []string{}
	}
	if d.Log == nil {
		d.Log = []LogEntry{}
	}
}

// Serialize renders the document as pretty-printed JSON, the same shape used
// for downloads and for the persisted plaintext blob.
func (d *WalletDocument) Serialize() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet document: %w", err)
	}
	return data, nil
}

// Balance sums the amounts of all claim codes currently held. Unparseable
// entries are skipped rather than failing the whole wallet.
func (d *WalletDocument) Balance() string {
	var total uint64
	for _, raw := range d.Webcash {
		secret, err := ParseSecret(raw)
		if err != nil {
			continue
		}
		units, err := ParseAmount(secret.Amount)
		if err != nil {
			continue
		}
		total += units
	}
	return FormatAmount(total)
}

// CheckLegalAgreements reports whether every tracked agreement is accepted.
func (d *WalletDocument) CheckLegalAgreements() bool {
	return d.LegalAgreements[termsOfServiceKey]
}

// SetLegalAgreementsToTrue marks all tracked agreements accepted.
func (d *WalletDocument) SetLegalAgreementsToTrue() {
	if d.LegalAgreements == nil {
		d.LegalAgreements = map[string]bool{}
	}
	d.LegalAgreements[termsOfServiceKey] = true
}

// AppendLog appends a history entry stamped with the current time.
func (d *WalletDocument) AppendLog(entryType, amount, memo, webcash, input string) {
	d.Log = append(d.Log, LogEntry{
		Type:      entryType,
		Timestamp: time.Now().Unix(),
		Amount:    amount,
		Memo:      memo,
		Webcash:   webcash,
		Input:     input,
	})
}
