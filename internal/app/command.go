package app

import (
	"net/url"
	"strings"
	"sync"

	"github.com/kanzure/webcasa/internal/webcash"
)

// Command names. Only "receive" exists today.
const CommandReceive = "receive"

// Command is a one-shot instruction staged at startup and consumed by the
// first matching handler. At most one is ever pending.
type Command struct {
	Name    string
	Webcash *webcash.Secret
	Memo    string
}

// CommandSource supplies the raw parameters for the pending command and
// forgets them once consumed, so a consumed command can never re-trigger.
type CommandSource interface {
	// Pending returns the raw receive parameter and memo, if any.
	Pending() (receive, memo string, ok bool)

	// Consume permanently drops the pending parameters.
	Consume()
}

// LinkSource derives the pending command from a claim link, e.g.
// "https://host/?receive=e1.00000000:secret:abc&memo=hello". A link without a
// receive parameter stages nothing.
type LinkSource struct {
	mu      sync.Mutex
	receive string
	memo    string
}

// NewLinkSource parses rawURL. An empty or malformed link yields an empty
// source rather than an error; decode failures are the caller's to log.
func NewLinkSource(rawURL string) *LinkSource {
	s := &LinkSource{}
	if strings.TrimSpace(rawURL) == "" {
		return s
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return s
	}
	params := u.Query()
	s.receive = params.Get("receive")
	s.memo = params.Get("memo")
	return s
}

// Pending implements CommandSource.
func (s *LinkSource) Pending() (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receive == "" {
		return "", "", false
	}
	return s.receive, s.memo, true
}

// Consume implements CommandSource.
func (s *LinkSource) Consume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receive = ""
	s.memo = ""
}
