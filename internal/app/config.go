package app

import (
	"encoding/json"
	"fmt"

	"github.com/kanzure/webcasa/internal/kv"
)

// Key-value slots holding the serialized app config. The legacy slot is
// renamed to the current one once at startup; the migration is one-way and
// removes the legacy slot.
const (
	configSlot       = "config"
	legacyConfigSlot = "casa"
)

// AppConfig is the small persisted app record, saved after every mutation.
type AppConfig struct {
	Downloaded    bool `json:"downloaded"`
	Encrypted     bool `json:"encrypted"`
	TermsAccepted bool `json:"termsAccepted"`
}

// storedConfig distinguishes absent fields from false so defaults apply per
// field, not per record.
type storedConfig struct {
	Downloaded    *bool `json:"downloaded"`
	Encrypted     *bool `json:"encrypted"`
	TermsAccepted *bool `json:"termsAccepted"`
}

// migrateLegacyConfig renames the legacy config slot to the current one.
func migrateLegacyConfig(store kv.Store) error {
	data, err := store.Get(legacyConfigSlot)
	if err == kv.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if err := store.Put(configSlot, data); err != nil {
		return err
	}
	return store.Delete(legacyConfigSlot)
}

// loadAppConfig reads the config slot, defaulting every absent field. A brand
// new install reads as downloaded=true (there is nothing to export yet),
// unencrypted, terms not accepted.
func loadAppConfig(store kv.Store) (AppConfig, error) {
	conf := AppConfig{Downloaded: true}

	data, err := store.Get(configSlot)
	if err == kv.ErrNotFound {
		return conf, nil
	}
	if err != nil {
		return conf, err
	}

	var stored storedConfig
	if err := json.Unmarshal(data, &stored); err != nil {
		return conf, fmt.Errorf("failed to parse app config: %w", err)
	}
	if stored.Downloaded != nil {
		conf.Downloaded = *stored.Downloaded
	}
	if stored.Encrypted != nil {
		conf.Encrypted = *stored.Encrypted
	}
	if stored.TermsAccepted != nil {
		conf.TermsAccepted = *stored.TermsAccepted
	}
	return conf, nil
}

// UpdateEncryptedFlag rewrites just the encrypted flag of the persisted app
// config. For offline tools that change the wallet's encryption without
// running the orchestrator.
func UpdateEncryptedFlag(store kv.Store, encrypted bool) error {
	conf, err := loadAppConfig(store)
	if err != nil {
		return err
	}
	conf.Encrypted = encrypted
	return saveAppConfig(store, conf)
}

// saveAppConfig persists the config record in full.
func saveAppConfig(store kv.Store, conf AppConfig) error {
	data, err := json.MarshalIndent(conf, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal app config: %w", err)
	}
	return store.Put(configSlot, data)
}
