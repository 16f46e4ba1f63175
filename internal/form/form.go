package form

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"hackfinity-intake/internal/models"
	"hackfinity-intake/internal/util"
)

// Wizard steps. The leader's identity and academic info come first,
// then team composition, then payment and consent.
const (
	StepLeader   = 1
	StepAcademic = 2
	StepTeam     = 3
	StepPayment  = 4

	lastStep = StepPayment
)

const (
	StatusEditing    = "editing"
	StatusSubmitting = "submitting"
	StatusSuccess    = "success"
	StatusError      = "error"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submitter delivers a finished record to the intake endpoint.
type Submitter interface {
	Submit(ctx context.Context, rec models.RegistrationRecord) error
}

// Form tracks one registrant's progress through the four wizard steps.
type Form struct {
	Step   int
	Status string
	Record models.RegistrationRecord
	Errors map[string]string
}

// New returns an empty form at step 1. Both extra member slots exist
// from the start because they are transmitted even when unused.
func New() *Form {
	return &Form{
		Step:   StepLeader,
		Status: StatusEditing,
		Record: models.RegistrationRecord{
			TeamSize: 1,
			Members:  make([]models.TeamMember, models.MaxTeamSize-1),
		},
		Errors: map[string]string{},
	}
}

// ValidateStep checks the required-field set of one step against the
// current record. It mutates nothing.
func (f *Form) ValidateStep(step int) (bool, map[string]string) {
	errs := map[string]string{}
	r := f.Record

	switch step {
	case StepLeader:
		requireField(errs, "firstName", r.FirstName, "First name is required")
		requireField(errs, "lastName", r.LastName, "Last name is required")
		requireEmail(errs, "email", r.Email)
		requireField(errs, "phone", r.Phone, "Phone number is required")
	case StepAcademic:
		requireField(errs, "institution", r.Institution, "Institution is required")
		requireField(errs, "degree", r.Degree, "Degree is required")
		requireField(errs, "graduationYear", r.GraduationYear, "Graduation year is required")
	case StepTeam:
		requireField(errs, "teamName", r.TeamName, "Team name is required")
		if r.TeamSize < 1 || r.TeamSize > models.MaxTeamSize {
			errs["teamSize"] = fmt.Sprintf("Team size must be between 1 and %d", models.MaxTeamSize)
		}
		// only members up to teamSize are validated
		for i := 0; i < int(r.TeamSize)-1 && i < len(r.Members); i++ {
			m := r.Members[i]
			p := fmt.Sprintf("member%d", i+2)
			requireField(errs, p+"FirstName", m.FirstName, "First name is required")
			requireField(errs, p+"LastName", m.LastName, "Last name is required")
			requireEmail(errs, p+"Email", m.Email)
			requireField(errs, p+"Phone", m.Phone, "Phone number is required")
			requireField(errs, p+"Institution", m.Institution, "Institution is required")
			requireField(errs, p+"Degree", m.Degree, "Degree is required")
			requireField(errs, p+"GraduationYear", m.GraduationYear, "Graduation year is required")
		}
	case StepPayment:
		if !bool(r.AgreeToTerms) {
			errs["agreeToTerms"] = "You must agree to the terms and conditions"
		}
		if !bool(r.PaymentCompleted) {
			errs["paymentCompleted"] = "Payment must be completed before submitting"
		}
	default:
		errs["step"] = fmt.Sprintf("unknown step %d", step)
	}

	return len(errs) == 0, errs
}

// Advance validates the current step and moves forward on success.
// On failure the step is unchanged and Errors holds the field messages.
func (f *Form) Advance() bool {
	ok, errs := f.ValidateStep(f.Step)
	f.Errors = errs
	if !ok {
		return false
	}
	if f.Step < lastStep {
		f.Step++
	}
	return true
}

// Retreat moves back one step unconditionally.
func (f *Form) Retreat() {
	if f.Step > StepLeader {
		f.Step--
	}
	f.Errors = map[string]string{}
}

// SetSameAsLeader copies the leader's academic fields into member slot i
// (0-based) when same is true, and clears them when toggled back off.
// The copy happens once, at toggle time.
func (f *Form) SetSameAsLeader(i int, same bool) {
	if i < 0 || i >= len(f.Record.Members) {
		return
	}
	m := &f.Record.Members[i]
	m.SameAsLeader = models.FlexBool(same)
	if same {
		m.Institution = f.Record.Institution
		m.Degree = f.Record.Degree
		m.GraduationYear = f.Record.GraduationYear
	} else {
		m.Institution = ""
		m.Degree = ""
		m.GraduationYear = ""
	}
}

// Submit freezes the record and hands it to the submitter. It is only
// callable from the final step with both consent flags set.
func (f *Form) Submit(ctx context.Context, s Submitter) error {
	if f.Step != lastStep {
		return fmt.Errorf("submit called on step %d", f.Step)
	}
	ok, errs := f.ValidateStep(lastStep)
	f.Errors = errs
	if !ok {
		return fmt.Errorf("form is not complete")
	}

	if strings.TrimSpace(f.Record.SubmissionTime) == "" {
		f.Record.SubmissionTime = util.NowISO()
	}

	f.Status = StatusSubmitting
	if err := s.Submit(ctx, f.Record); err != nil {
		f.Status = StatusError
		return err
	}
	f.Status = StatusSuccess
	return nil
}

// Retry returns an errored form to the last step with its data intact.
func (f *Form) Retry() {
	if f.Status == StatusError {
		f.Status = StatusEditing
		f.Step = lastStep
	}
}

func requireField(errs map[string]string, key, val, msg string) {
	if strings.TrimSpace(val) == "" {
		errs[key] = msg
	}
}

func requireEmail(errs map[string]string, key, val string) {
	val = strings.TrimSpace(val)
	if val == "" {
		errs[key] = "Email is required"
		return
	}
	if !emailRe.MatchString(val) {
		errs[key] = "Email address is invalid"
	}
}
