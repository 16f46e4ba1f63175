package form

import (
	"context"
	"fmt"
	"testing"

	"hackfinity-intake/internal/models"
)

func validLeaderForm() *Form {
	f := New()
	f.Record.FirstName = "Ada"
	f.Record.LastName = "Lovelace"
	f.Record.Email = "ada@example.com"
	f.Record.Phone = "555-1000"
	return f
}

func TestValidateStepLeader(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*Form)
		wantOK    bool
		wantField string
	}{
		{"all fields present", func(f *Form) {}, true, ""},
		{"missing first name", func(f *Form) { f.Record.FirstName = "" }, false, "firstName"},
		{"missing last name", func(f *Form) { f.Record.LastName = " " }, false, "lastName"},
		{"missing email", func(f *Form) { f.Record.Email = "" }, false, "email"},
		{"malformed email", func(f *Form) { f.Record.Email = "ada-at-example" }, false, "email"},
		{"missing phone", func(f *Form) { f.Record.Phone = "" }, false, "phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validLeaderForm()
			tc.mutate(f)
			ok, errs := f.ValidateStep(StepLeader)
			if ok != tc.wantOK {
				t.Fatalf("ValidateStep(1) = %v, want %v (errs=%v)", ok, tc.wantOK, errs)
			}
			if tc.wantOK {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if len(errs) != 1 {
				t.Fatalf("expected exactly one flagged field, got %v", errs)
			}
			if _, found := errs[tc.wantField]; !found {
				t.Fatalf("expected %q flagged, got %v", tc.wantField, errs)
			}
		})
	}
}

func TestValidateStepTeamRespectsTeamSize(t *testing.T) {
	f := validLeaderForm()
	f.Record.TeamName = "Solo"
	f.Record.TeamSize = 1

	// a solo team never requires member slots, even empty ones
	if ok, errs := f.ValidateStep(StepTeam); !ok {
		t.Fatalf("solo team should validate, got %v", errs)
	}

	f.Record.TeamSize = 2
	ok, errs := f.ValidateStep(StepTeam)
	if ok {
		t.Fatal("team of two with an empty member slot should not validate")
	}
	if _, found := errs["member2FirstName"]; !found {
		t.Fatalf("expected member2FirstName flagged, got %v", errs)
	}
	if _, found := errs["member3FirstName"]; found {
		t.Fatalf("member 3 must not be validated for teamSize 2: %v", errs)
	}

	f.Record.TeamSize = 5
	if ok, errs := f.ValidateStep(StepTeam); ok || errs["teamSize"] == "" {
		t.Fatalf("teamSize 5 should be rejected, got ok=%v errs=%v", ok, errs)
	}
}

func TestSameAsLeaderCopiesAtToggleTime(t *testing.T) {
	f := validLeaderForm()
	f.Record.Institution = "Analytical Eng."
	f.Record.Degree = "Math"
	f.Record.GraduationYear = "2025"

	f.SetSameAsLeader(0, true)
	m := f.Record.Member(0)
	if m.Institution != "Analytical Eng." || m.Degree != "Math" || m.GraduationYear != "2025" {
		t.Fatalf("expected leader fields copied, got %+v", m)
	}

	// a later leader edit must not propagate
	f.Record.Institution = "Cambridge"
	if got := f.Record.Member(0).Institution; got != "Analytical Eng." {
		t.Fatalf("copy is not a live binding, got %q", got)
	}

	// toggling off clears the copied values
	f.SetSameAsLeader(0, false)
	m = f.Record.Member(0)
	if m.Institution != "" || m.Degree != "" || m.GraduationYear != "" {
		t.Fatalf("expected cleared fields, got %+v", m)
	}
}

func TestAdvanceAndRetreat(t *testing.T) {
	f := New()

	if f.Advance() {
		t.Fatal("advance on an empty step 1 should fail")
	}
	if f.Step != StepLeader {
		t.Fatalf("failed advance must not move, step = %d", f.Step)
	}

	f.Record.FirstName = "Ada"
	f.Record.LastName = "Lovelace"
	f.Record.Email = "ada@example.com"
	f.Record.Phone = "555-1000"
	if !f.Advance() {
		t.Fatalf("advance should pass, errs=%v", f.Errors)
	}
	if f.Step != StepAcademic {
		t.Fatalf("step = %d, want %d", f.Step, StepAcademic)
	}

	f.Retreat()
	if f.Step != StepLeader {
		t.Fatalf("retreat should land on step 1, got %d", f.Step)
	}
	f.Retreat()
	if f.Step != StepLeader {
		t.Fatalf("retreat is floored at step 1, got %d", f.Step)
	}
}

type stubSubmitter struct {
	err   error
	calls int
	last  models.RegistrationRecord
}

func (s *stubSubmitter) Submit(ctx context.Context, rec models.RegistrationRecord) error {
	s.calls++
	s.last = rec
	return s.err
}

func completedForm() *Form {
	f := validLeaderForm()
	f.Record.Institution = "Analytical Eng."
	f.Record.Degree = "Math"
	f.Record.GraduationYear = "2025"
	f.Record.TeamName = "Solo"
	f.Record.TeamSize = 1
	f.Record.AgreeToTerms = true
	f.Record.PaymentCompleted = true
	f.Step = StepPayment
	return f
}

func TestSubmitLifecycle(t *testing.T) {
	f := completedForm()
	sub := &stubSubmitter{}
	if err := f.Submit(context.Background(), sub); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", f.Status)
	}
	if sub.calls != 1 {
		t.Fatalf("submitter called %d times", sub.calls)
	}
	if sub.last.SubmissionTime == "" {
		t.Fatal("submissionTime should be assigned when absent")
	}
}

func TestSubmitFailureAndRetry(t *testing.T) {
	f := completedForm()
	sub := &stubSubmitter{err: fmt.Errorf("boom")}
	if err := f.Submit(context.Background(), sub); err == nil {
		t.Fatal("expected submit error")
	}
	if f.Status != StatusError {
		t.Fatalf("status = %q, want error", f.Status)
	}

	f.Retry()
	if f.Status != StatusEditing || f.Step != StepPayment {
		t.Fatalf("retry should return to editing step 4, got %q step %d", f.Status, f.Step)
	}
	if f.Record.FirstName != "Ada" {
		t.Fatal("retry must not lose form data")
	}
}

func TestSubmitRequiresConsent(t *testing.T) {
	f := completedForm()
	f.Record.AgreeToTerms = false
	if err := f.Submit(context.Background(), &stubSubmitter{}); err == nil {
		t.Fatal("submit without consent should fail")
	}
	if f.Errors["agreeToTerms"] == "" {
		t.Fatalf("expected agreeToTerms flagged, got %v", f.Errors)
	}

	f = completedForm()
	f.Step = StepTeam
	if err := f.Submit(context.Background(), &stubSubmitter{}); err == nil {
		t.Fatal("submit is only callable from the final step")
	}
}
