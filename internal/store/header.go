package store

import (
	"fmt"
	"strconv"

	"hackfinity-intake/internal/models"
	"hackfinity-intake/internal/util"
)

// Header is the canonical 28-column schema. The first row of the store
// must always equal this list; every append verifies and repairs it.
var Header = []string{
	"Timestamp",
	"First Name",
	"Last Name",
	"Email",
	"Phone",
	"Institution",
	"Degree",
	"Graduation Year",
	"Team Name",
	"Team Size",
	"Member 2 First Name",
	"Member 2 Last Name",
	"Member 2 Email",
	"Member 2 Phone",
	"Member 2 Institution",
	"Member 2 Degree",
	"Member 2 Graduation Year",
	"Member 3 First Name",
	"Member 3 Last Name",
	"Member 3 Email",
	"Member 3 Phone",
	"Member 3 Institution",
	"Member 3 Degree",
	"Member 3 Graduation Year",
	"Agree To Terms",
	"Payment Completed",
	"Payment Screenshot URL",
	"Payment Screenshot Filename",
}

// Column positions used for targeted cell updates.
const (
	ColEmail            = 3
	ColPaymentCompleted = 25
)

// NeedsHeaderRepair reports whether the first row of the store fails
// the canonical-header check. The cheap probe is cell 1: anything other
// than "Timestamp" means the header is missing or mismatched.
func NeedsHeaderRepair(firstRow []interface{}) bool {
	if len(firstRow) == 0 {
		return true
	}
	return fmt.Sprint(firstRow[0]) != Header[0]
}

// RowFromRecord normalizes a record into the fixed column order.
// Missing values become empty strings and booleans become "Yes"/"No".
func RowFromRecord(rec models.RegistrationRecord, screenshotURL, screenshotName, timestamp string) []interface{} {
	m2 := rec.Member(0)
	m3 := rec.Member(1)

	teamSize := ""
	if rec.TeamSize > 0 {
		teamSize = strconv.Itoa(int(rec.TeamSize))
	}

	return []interface{}{
		timestamp,
		rec.FirstName,
		rec.LastName,
		rec.Email,
		rec.Phone,
		rec.Institution,
		rec.Degree,
		rec.GraduationYear,
		rec.TeamName,
		teamSize,
		m2.FirstName,
		m2.LastName,
		m2.Email,
		m2.Phone,
		m2.Institution,
		m2.Degree,
		m2.GraduationYear,
		m3.FirstName,
		m3.LastName,
		m3.Email,
		m3.Phone,
		m3.Institution,
		m3.Degree,
		m3.GraduationYear,
		util.YesNo(bool(rec.AgreeToTerms)),
		util.YesNo(bool(rec.PaymentCompleted)),
		screenshotURL,
		screenshotName,
	}
}
