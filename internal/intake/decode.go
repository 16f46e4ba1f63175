package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"hackfinity-intake/internal/models"
	"hackfinity-intake/internal/util"
)

// ErrNoData means no decoder could recover a usable record.
var ErrNoData = errors.New("no data received")

// Input is everything the handler knows about an incoming submission.
// The body encoding is not reliably known in advance: the form posts
// raw JSON, the hidden-form fallback posts data=<urlencoded-json>, and
// some clients mangle either one.
type Input struct {
	// DataParam is the named request parameter "data", when present.
	DataParam string
	// Body is the raw request body.
	Body []byte
}

// A decoder is one (predicate, decode) pair in the fallback chain.
type decoder struct {
	name   string
	match  func(in Input) bool
	decode func(in Input) (models.RegistrationRecord, error)
}

// chain is tried in order; the first decoder whose predicate matches
// and whose decode yields a non-empty record wins.
var chain = []decoder{
	{
		name:   "param-json",
		match:  func(in Input) bool { return in.DataParam != "" },
		decode: func(in Input) (models.RegistrationRecord, error) { return parseJSON(in.DataParam) },
	},
	{
		name:  "param-urlencoded-json",
		match: func(in Input) bool { return in.DataParam != "" },
		decode: func(in Input) (models.RegistrationRecord, error) {
			unescaped, err := url.QueryUnescape(in.DataParam)
			if err != nil {
				return models.RegistrationRecord{}, err
			}
			return parseJSON(unescaped)
		},
	},
	{
		name:   "body-json",
		match:  func(in Input) bool { return strings.HasPrefix(trimmedBody(in), "{") },
		decode: func(in Input) (models.RegistrationRecord, error) { return parseJSON(trimmedBody(in)) },
	},
	{
		name:  "body-data-field",
		match: func(in Input) bool { return strings.HasPrefix(trimmedBody(in), "data=") },
		decode: func(in Input) (models.RegistrationRecord, error) {
			raw := strings.TrimPrefix(trimmedBody(in), "data=")
			unescaped, err := url.QueryUnescape(raw)
			if err != nil {
				unescaped = raw
			}
			return parseJSON(unescaped)
		},
	},
	{
		name:   "body-form-fields",
		match:  func(in Input) bool { return len(in.Body) > 0 },
		decode: decodeFormFields,
	},
	{
		name:   "body-json-substring",
		match:  func(in Input) bool { return len(in.Body) > 0 },
		decode: decodeJSONSubstring,
	},
}

// Decode runs the fallback chain and returns the recovered record plus
// the name of the decoder that produced it.
func Decode(in Input) (models.RegistrationRecord, string, error) {
	for _, d := range chain {
		if !d.match(in) {
			continue
		}
		rec, err := d.decode(in)
		if err != nil || rec.IsEmpty() {
			continue
		}
		normalize(&rec)
		return rec, d.name, nil
	}
	return models.RegistrationRecord{}, "", ErrNoData
}

func trimmedBody(in Input) string {
	return strings.TrimSpace(string(in.Body))
}

func parseJSON(s string) (models.RegistrationRecord, error) {
	var rec models.RegistrationRecord
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return models.RegistrationRecord{}, fmt.Errorf("decode json: %w", err)
	}
	return rec, nil
}

// decodeFormFields handles a generic key=value body: either a "data"
// field carrying JSON, or the record rebuilt from individually named
// form fields.
func decodeFormFields(in Input) (models.RegistrationRecord, error) {
	values, err := url.ParseQuery(trimmedBody(in))
	if err != nil {
		return models.RegistrationRecord{}, fmt.Errorf("parse form: %w", err)
	}
	if data := values.Get("data"); data != "" {
		return parseJSON(data)
	}
	return recordFromFields(values), nil
}

func recordFromFields(values url.Values) models.RegistrationRecord {
	size := 1
	if v := strings.TrimSpace(values.Get("teamSize")); v != "" {
		fmt.Sscanf(v, "%d", &size)
	}
	rec := models.RegistrationRecord{
		FirstName:         values.Get("firstName"),
		LastName:          values.Get("lastName"),
		Email:             values.Get("email"),
		Phone:             values.Get("phone"),
		Institution:       values.Get("institution"),
		Degree:            values.Get("degree"),
		GraduationYear:    values.Get("graduationYear"),
		TeamName:          values.Get("teamName"),
		TeamSize:          models.FlexInt(size),
		AgreeToTerms:      models.FlexBool(util.NormalizeBool(values.Get("agreeToTerms"))),
		PaymentCompleted:  models.FlexBool(util.NormalizeBool(values.Get("paymentCompleted"))),
		PaymentScreenshot: values.Get("paymentScreenshot"),
		SubmissionTime:    values.Get("submissionTime"),
	}
	for i := 0; i < models.MaxTeamSize-1; i++ {
		p := fmt.Sprintf("member%d", i+2)
		rec.Members = append(rec.Members, models.TeamMember{
			FirstName:      values.Get(p + "FirstName"),
			LastName:       values.Get(p + "LastName"),
			Email:          values.Get(p + "Email"),
			Phone:          values.Get(p + "Phone"),
			Institution:    values.Get(p + "Institution"),
			Degree:         values.Get(p + "Degree"),
			GraduationYear: values.Get(p + "GraduationYear"),
		})
	}
	return rec
}

// (?s) so the span may contain newlines; greedy so nested braces stay
// inside the match.
var jsonSpanRe = regexp.MustCompile(`(?s)\{.*\}`)

// decodeJSONSubstring is the absolute last resort: fish the first
// {...} span out of the raw body and decode that.
func decodeJSONSubstring(in Input) (models.RegistrationRecord, error) {
	span := jsonSpanRe.FindString(string(in.Body))
	if span == "" {
		return models.RegistrationRecord{}, fmt.Errorf("no json object in body")
	}
	rec, err := parseJSON(span)
	if err == nil {
		return rec, nil
	}
	// the span itself may still be percent-encoded
	unescaped, uerr := url.QueryUnescape(span)
	if uerr != nil {
		return models.RegistrationRecord{}, err
	}
	return parseJSON(unescaped)
}

// normalize pads the member slots so downstream row building can index
// them without caring how many were transmitted.
func normalize(rec *models.RegistrationRecord) {
	for len(rec.Members) < models.MaxTeamSize-1 {
		rec.Members = append(rec.Members, models.TeamMember{})
	}
}
