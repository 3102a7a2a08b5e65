package webcash

import "testing"

func TestParseSecretValid(t *testing.T) {
	s, err := ParseSecret("e1.5:secret:feedbeef00")
	if err != nil {
		t.Fatalf("ParseSecret: %v", err)
	}
	if s.Amount != "1.50000000" {
		t.Errorf("amount = %q, want %q", s.Amount, "1.50000000")
	}
	if s.Value != "feedbeef00" {
		t.Errorf("value = %q, want %q", s.Value, "feedbeef00")
	}
	if got := s.Serialize(); got != "e1.50000000:secret:feedbeef00" {
		t.Errorf("Serialize() = %q", got)
	}
}

func TestParseSecretTrimsWhitespace(t *testing.T) {
	if _, err := ParseSecret("  e1:secret:ab  "); err != nil {
		t.Errorf("ParseSecret with surrounding whitespace: %v", err)
	}
}

func TestParseSecretInvalid(t *testing.T) {
	cases := []string{
		"",
		"1.5:secret:ab",           // missing leading e
		"e1.5:public:ab",          // not a secret
		"e1.5:secret",             // missing value part
		"e1.5:secret:ab:extra",    // too many parts
		"ex:secret:ab",            // bad amount
		"e1.5:secret:",            // empty value
	}
	for _, raw := range cases {
		if _, err := ParseSecret(raw); err == nil {
			t.Errorf("ParseSecret(%q): expected error", raw)
		}
	}
}

func TestShorten(t *testing.T) {
	long := "0123456789abcdef0123456789abcdef"
	short := Shorten(long)
	if short == long {
		t.Fatal("expected long secret to be shortened")
	}
	if want := "01234567...89abcdef"; short != want {
		t.Errorf("Shorten = %q, want %q", short, want)
	}
	if got := Shorten("tiny"); got != "tiny" {
		t.Errorf("Shorten(tiny) = %q", got)
	}
}
