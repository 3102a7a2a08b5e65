// One-off: re-encrypt the stored wallet slot under a new password without
// running the daemon. An empty new password strips encryption entirely.
// Usage: DATA_PATH=webcasa.db go run ./cmd/rekey
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/kanzure/webcasa/internal/app"
	"github.com/kanzure/webcasa/internal/config"
	"github.com/kanzure/webcasa/internal/kv"
	"github.com/kanzure/webcasa/internal/store"
)

func promptPassword(label string) string {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read password:", err)
		os.Exit(1)
	}
	return string(raw)
}

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	slots, err := kv.OpenSQLite(config.GetDataPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open slot database:", err)
		os.Exit(1)
	}
	defer slots.Close()

	s := store.New(slots, zap.NewNop().Sugar())

	exists, err := s.Exists()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !exists {
		fmt.Fprintln(os.Stderr, "no wallet stored at", config.GetDataPath())
		os.Exit(1)
	}

	oldPassword := promptPassword("Current password (empty if not encrypted)")
	handle, err := s.Load(oldPassword)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if handle == nil {
		fmt.Fprintln(os.Stderr, "failed to load wallet: incorrect password or corrupted blob")
		os.Exit(1)
	}

	newPassword := promptPassword("New password (empty to remove encryption)")
	if newPassword == "" {
		handle.ClearPassword()
	} else if err := handle.SetPassword(newPassword); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := s.Save(handle); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := app.UpdateEncryptedFlag(slots, newPassword != ""); err != nil {
		fmt.Fprintln(os.Stderr, "wallet saved but failed to update app config:", err)
		os.Exit(1)
	}

	if newPassword == "" {
		fmt.Println("wallet re-saved without encryption")
	} else {
		fmt.Println("wallet re-encrypted under the new password")
	}
}
