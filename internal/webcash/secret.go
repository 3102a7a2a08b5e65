package webcash

import (
	"fmt"
	"strings"
)

// Secret is a deserialized webcash claim code. Only the shape of the
// serialization is interpreted here; minting and server-side validation
// belong to the wallet backend.
type Secret struct {
	Amount string // decimal string, e.g. "1.00000000"
	Value  string // hex secret value
}

// ParseSecret deserializes a claim code of the form "e<amount>:secret:<hex>".
func ParseSecret(raw string) (*Secret, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty webcash")
	}
	if !strings.HasPrefix(raw, "e") {
		return nil, fmt.Errorf("webcash must start with 'e': %q", raw)
	}

	parts := strings.Split(raw[1:], ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("webcash must have form e<amount>:secret:<hex>: %q", raw)
	}
	if parts[1] != "secret" {
		return nil, fmt.Errorf("not a secret webcash (kind %q)", parts[1])
	}

	units, err := ParseAmount(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid webcash amount %q: %w", parts[0], err)
	}
	if parts[2] == "" {
		return nil, fmt.Errorf("empty webcash secret value")
	}

	return &Secret{
		Amount: FormatAmount(units),
		Value:  parts[2],
	}, nil
}

// Serialize renders the secret back to its claim-code form.
func (s *Secret) Serialize() string {
	return fmt.Sprintf("e%s:secret:%s", s.Amount, s.Value)
}

// Shorten returns an abbreviated form of a secret-like string, suitable for
// confirmation prompts. Short inputs are returned as-is.
func Shorten(secret string) string {
	const keep = 8
	if len(secret) <= 2*keep+3 {
		return secret
	}
	return secret[:keep] + "..." + secret[len(secret)-keep:]
}
