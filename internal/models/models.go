package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxTeamSize counts the leader, so at most two extra members.
const MaxTeamSize = 3

// FlexInt decodes either a JSON number or a numeric string
// ("1" and 1 are both valid teamSize encodings on the wire).
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*f = FlexInt(v)
	return nil
}

// FlexBool decodes JSON booleans as well as "true"/"Yes"/"1" strings.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	switch strings.ToLower(s) {
	case "yes", "true", "1", "y", "on":
		*f = true
	default:
		*f = false
	}
	return nil
}

type TeamMember struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	GraduationYear string `json:"graduationYear"`

	// SameAsLeader marks that academic fields were copied from the
	// leader at entry time. It is never stored in the sheet.
	SameAsLeader FlexBool `json:"sameAsLeader"`
}

// RegistrationRecord is the entity submitted by the form and stored as
// one row. All non-leader member slots are transmitted even when empty.
type RegistrationRecord struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	GraduationYear string `json:"graduationYear"`

	TeamName string       `json:"teamName"`
	TeamSize FlexInt      `json:"teamSize"`
	Members  []TeamMember `json:"members"`

	AgreeToTerms     FlexBool `json:"agreeToTerms"`
	PaymentCompleted FlexBool `json:"paymentCompleted"`

	PaymentScreenshotBase64 string `json:"paymentScreenshotBase64,omitempty"`
	PaymentScreenshot       string `json:"paymentScreenshot,omitempty"`

	SubmissionTime string `json:"submissionTime,omitempty"`
}

// Member returns the i-th extra member (0-based), or a zero value when
// the slot was never populated.
func (r RegistrationRecord) Member(i int) TeamMember {
	if i < 0 || i >= len(r.Members) {
		return TeamMember{}
	}
	return r.Members[i]
}

// IsEmpty reports whether the record carries no usable identity at all,
// which the intake handler treats as "no data received".
func (r RegistrationRecord) IsEmpty() bool {
	return strings.TrimSpace(r.FirstName) == "" &&
		strings.TrimSpace(r.LastName) == "" &&
		strings.TrimSpace(r.Email) == "" &&
		strings.TrimSpace(r.TeamName) == ""
}

// IntakeResponse is the JSON body returned for every intake request.
// Success is semantic; the HTTP status is always 200 because the
// browser cannot read it through an opaque response anyway.
type IntakeResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
