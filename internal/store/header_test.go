package store

import (
	"testing"

	"hackfinity-intake/internal/models"
)

func TestHeaderHas28Columns(t *testing.T) {
	if len(Header) != 28 {
		t.Fatalf("header has %d columns, want 28", len(Header))
	}
	if Header[ColEmail] != "Email" {
		t.Fatalf("ColEmail points at %q", Header[ColEmail])
	}
	if Header[ColPaymentCompleted] != "Payment Completed" {
		t.Fatalf("ColPaymentCompleted points at %q", Header[ColPaymentCompleted])
	}
}

func TestNeedsHeaderRepair(t *testing.T) {
	cases := []struct {
		name     string
		firstRow []interface{}
		want     bool
	}{
		{"empty store", nil, true},
		{"wrong header", []interface{}{"Foo"}, true},
		{"data in first row", []interface{}{"2025-01-01T00:00:00Z", "Ada"}, true},
		{"canonical header", []interface{}{"Timestamp", "First Name"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsHeaderRepair(tc.firstRow); got != tc.want {
				t.Fatalf("NeedsHeaderRepair = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRowFromRecordNormalization(t *testing.T) {
	rec := models.RegistrationRecord{
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Email:            "ada@example.com",
		Phone:            "555-1000",
		Institution:      "Analytical Eng.",
		Degree:           "Math",
		GraduationYear:   "2025",
		TeamName:         "Solo",
		TeamSize:         1,
		AgreeToTerms:     true,
		PaymentCompleted: true,
	}

	row := RowFromRecord(rec, "", "", "2025-06-01T10:00:00Z")
	if len(row) != len(Header) {
		t.Fatalf("row has %d cells, want %d", len(row), len(Header))
	}

	want := []interface{}{
		"2025-06-01T10:00:00Z", "Ada", "Lovelace", "ada@example.com", "555-1000",
		"Analytical Eng.", "Math", "2025", "Solo", "1",
	}
	for i, w := range want {
		if row[i] != w {
			t.Fatalf("cell %d = %v, want %v", i, row[i], w)
		}
	}
	// unused member slots are transmitted as empty strings
	for i := 10; i < 24; i++ {
		if row[i] != "" {
			t.Fatalf("member cell %d = %v, want empty", i, row[i])
		}
	}
	if row[24] != "Yes" || row[25] != "Yes" {
		t.Fatalf("consent cells = %v/%v, want Yes/Yes", row[24], row[25])
	}
	if row[26] != "" || row[27] != "" {
		t.Fatalf("screenshot cells = %v/%v, want empty", row[26], row[27])
	}
}

// Booleans always render as exactly "Yes" or "No", even when omitted.
func TestRowFromRecordBooleanDefaults(t *testing.T) {
	row := RowFromRecord(models.RegistrationRecord{FirstName: "Ada"}, "", "", "ts")
	if row[24] != "No" || row[25] != "No" {
		t.Fatalf("omitted booleans = %v/%v, want No/No", row[24], row[25])
	}
	if row[9] != "" {
		t.Fatalf("omitted team size = %v, want empty string", row[9])
	}
}
