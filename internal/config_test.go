package internal

import (
	"strings"
	"testing"
	"time"
)

func TestVaultConfig_EmptyBackendDefaultsFS(t *testing.T) {
	cfg := VaultConfig{Path: "./vault"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty backend should default to fs: %v", err)
	}
	if cfg.Backend != VaultBackendFS {
		t.Errorf("backend = %q, want %q", cfg.Backend, VaultBackendFS)
	}
}

func TestVaultConfig_FSRequiresPath(t *testing.T) {
	cfg := VaultConfig{Backend: "fs"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("fs backend without path should fail")
	}
	if !strings.Contains(err.Error(), "path is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVaultConfig_DropboxRequiresCredentials(t *testing.T) {
	cfg := VaultConfig{Backend: "dropbox"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("dropbox backend without credentials should fail")
	}

	cfg.Dropbox = DropboxConfig{
		AppKey:       "key",
		AppSecret:    "secret",
		RefreshToken: "refresh",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dropbox backend with credentials should pass: %v", err)
	}
}

func TestVaultConfig_UnknownBackend(t *testing.T) {
	cfg := VaultConfig{Backend: "s3", Path: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail validation")
	}
}

func TestCycleConfig_Weekday(t *testing.T) {
	cfg := CycleConfig{AnchorWeekday: "wednesday"}
	d, err := cfg.Weekday()
	if err != nil {
		t.Fatal(err)
	}
	if d != time.Wednesday {
		t.Errorf("weekday = %v, want Wednesday", d)
	}

	cfg.AnchorWeekday = "someday"
	if _, err := cfg.Weekday(); err == nil {
		t.Error("unknown weekday should fail")
	}
}

func TestCycleConfig_EmptyAnchorDefaultsWednesday(t *testing.T) {
	cfg := CycleConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.AnchorWeekday != "Wednesday" {
		t.Errorf("anchor = %q", cfg.AnchorWeekday)
	}
}

func TestCycleConfig_RolloverBounds(t *testing.T) {
	cfg := CycleConfig{RolloverHour: 24, AnchorWeekday: "Monday"}
	if err := cfg.Validate(); err == nil {
		t.Error("rollover hour 24 should fail")
	}
}

func TestCycleConfig_Location(t *testing.T) {
	cfg := CycleConfig{}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("empty timezone should resolve to UTC: %v %v", loc, err)
	}

	cfg.Timezone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Error("bad timezone should fail")
	}
}

func TestFullConfig_DefaultsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFullConfig_DropboxRequiresRedis(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Backend = VaultBackendDropbox
	cfg.Vault.Dropbox = DropboxConfig{AppKey: "k", AppSecret: "s", RefreshToken: "r"}
	cfg.Redis.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("dropbox backend without redis addr should fail")
	}
}
