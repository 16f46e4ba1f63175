package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.SheetName != "Registrations" {
		t.Fatalf("SheetName = %q", cfg.SheetName)
	}
	if cfg.UseGoogle() {
		t.Fatal("UseGoogle should be false without credentials")
	}
	if cfg.PaymentProvider != "stub" {
		t.Fatalf("PaymentProvider = %q", cfg.PaymentProvider)
	}
}

func TestFromEnvRejectsHalfConfiguredGoogle(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("spreadsheet without credentials must be rejected")
	}

	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "sa.json")
	if _, err := FromEnv(); err == nil {
		t.Fatal("credentials without spreadsheet must be rejected")
	}
}

func TestParseAdminIDs(t *testing.T) {
	m := parseAdminIDs(" 123, 456 ,junk,,789")
	if len(m) != 3 || !m[123] || !m[456] || !m[789] {
		t.Fatalf("parsed = %v", m)
	}
	if len(parseAdminIDs("")) != 0 {
		t.Fatal("empty input should parse to no admins")
	}
}
