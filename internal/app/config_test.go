package app

import (
	"testing"

	"github.com/kanzure/webcasa/internal/kv"
)

func TestLegacyConfigMigration(t *testing.T) {
	slots := kv.NewMemoryStore()
	if err := slots.Put(legacyConfigSlot, []byte(`{"termsAccepted":true}`)); err != nil {
		t.Fatal(err)
	}

	if err := migrateLegacyConfig(slots); err != nil {
		t.Fatal(err)
	}

	if ok, _ := slots.Exists(legacyConfigSlot); ok {
		t.Error("legacy slot must be removed by migration")
	}
	conf, err := loadAppConfig(slots)
	if err != nil {
		t.Fatal(err)
	}
	if !conf.TermsAccepted {
		t.Error("migrated config lost termsAccepted")
	}
}

func TestLoadAppConfigDefaults(t *testing.T) {
	conf, err := loadAppConfig(kv.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	if !conf.Downloaded {
		t.Error("downloaded should default to true")
	}
	if conf.Encrypted || conf.TermsAccepted {
		t.Errorf("unexpected defaults: %+v", conf)
	}
}

func TestLoadAppConfigPartialRecord(t *testing.T) {
	slots := kv.NewMemoryStore()
	// Only encrypted stored: downloaded keeps its default.
	if err := slots.Put(configSlot, []byte(`{"encrypted":true}`)); err != nil {
		t.Fatal(err)
	}
	conf, err := loadAppConfig(slots)
	if err != nil {
		t.Fatal(err)
	}
	if !conf.Encrypted {
		t.Error("stored encrypted flag lost")
	}
	if !conf.Downloaded {
		t.Error("absent downloaded field should default to true")
	}
}

func TestConfigMutationsPersist(t *testing.T) {
	f := newFixture(t)

	if err := f.orch.OnAcceptTerms(); err != nil {
		t.Fatal(err)
	}
	conf, err := loadAppConfig(f.slots)
	if err != nil {
		t.Fatal(err)
	}
	if !conf.TermsAccepted {
		t.Error("termsAccepted not persisted")
	}

	if err := f.orch.OnSetPassword("pw"); err != nil {
		t.Fatal(err)
	}
	conf, _ = loadAppConfig(f.slots)
	if !conf.Encrypted {
		t.Error("encrypted not persisted")
	}

	if _, _, err := f.orch.OnDownloadWallet(); err != nil {
		t.Fatal(err)
	}
	conf, _ = loadAppConfig(f.slots)
	if !conf.Downloaded {
		t.Error("downloaded not persisted")
	}
}

func TestUpdateEncryptedFlag(t *testing.T) {
	slots := kv.NewMemoryStore()
	if err := UpdateEncryptedFlag(slots, true); err != nil {
		t.Fatal(err)
	}
	conf, err := loadAppConfig(slots)
	if err != nil {
		t.Fatal(err)
	}
	if !conf.Encrypted {
		t.Error("UpdateEncryptedFlag did not persist")
	}
}
