// Package validation checks registration submissions before any side effect
// happens. Every offending field is reported, never just the first one.
package validation

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"eventregistration/internal/domain"
)

// MaxFileSize is the largest accepted identity-proof upload (5 MiB).
const MaxFileSize int64 = 5 << 20

var (
	mobileRegex = regexp.MustCompile(`^[6-9][0-9]{9}$`)

	allowedContentTypes = map[string]string{
		"image/jpeg":      ".jpg",
		"image/jpg":       ".jpg",
		"image/png":       ".png",
		"application/pdf": ".pdf",
	}

	placeholderLocalParts = map[string]struct{}{
		"test": {}, "admin": {}, "demo": {}, "example": {}, "sample": {},
		"user": {}, "fake": {}, "dummy": {}, "abc": {}, "xyz": {},
		"asdf": {}, "qwerty": {}, "temp": {}, "null": {}, "noreply": {},
		"no-reply": {},
	}
	placeholderPrefixes = []string{"test", "dummy", "fake", "demo"}
)

// Validator implements domain.SubmissionValidator.
type Validator struct {
	validate        *validator.Validate
	academicDomains []string
}

var _ domain.SubmissionValidator = (*Validator)(nil)

// New returns a Validator that accepts academic addresses on academicDomains
// (matched exactly or as a parent domain, e.g. "ac.in" accepts "du.ac.in").
func New(academicDomains []string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("mobile_in", func(fl validator.FieldLevel) bool {
		return IsMobile(fl.Field().String())
	})

	domains := make([]string, 0, len(academicDomains))
	for _, d := range academicDomains {
		d = strings.ToLower(strings.Trim(strings.TrimSpace(d), "."))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &Validator{validate: v, academicDomains: domains}
}

// Validate returns a *domain.ValidationError enumerating every problem, or nil.
func (v *Validator) Validate(event *domain.Event, sub *domain.Submission) error {
	verr := &domain.ValidationError{}

	if event.IsTeamEvent() && strings.TrimSpace(sub.TeamName) == "" {
		verr.Add("teamName", "is required")
	}

	v.checkParticipant(verr, "", event, sub.Main)
	for i, m := range sub.Members {
		v.checkParticipant(verr, memberPrefix(m.SlotNumber(i)), event, m)
	}

	total := 1 + len(sub.Members)
	if len(sub.Members) > domain.MaxTeamMembers || !event.TeamSize.Contains(total) {
		verr.Add("teamSize", fmt.Sprintf("team must have between %d and %d participants, got %d",
			event.TeamSize.Min, event.TeamSize.Max, total))
	}

	checkDistinctContacts(verr, sub)

	if sub.Main.IDProof == nil {
		if event.RequireIDProof {
			verr.Add("collegeId", "is required")
		}
	} else if reason := CheckFile(sub.Main.IDProof); reason != "" {
		verr.Add("collegeId", reason)
	}
	for i, m := range sub.Members {
		if m.IDProof == nil {
			continue
		}
		if reason := CheckFile(m.IDProof); reason != "" {
			verr.Add(fmt.Sprintf("teamMember%dCollegeId", m.SlotNumber(i)), reason)
		}
	}

	return verr.OrNil()
}

func memberPrefix(slot int) string {
	return fmt.Sprintf("teamMember%d.", slot)
}

func (v *Validator) checkParticipant(verr *domain.ValidationError, prefix string, event *domain.Event, raw domain.ParticipantInput) {
	in := trimmed(raw)
	if err := v.validate.Struct(in); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			for _, fe := range ves {
				verr.Add(prefix+fe.Field(), reasonFor(fe))
			}
		} else {
			verr.Add(prefix+"participant", err.Error())
		}
	}

	if strings.EqualFold(in.College, "other") && in.OtherCollege == "" {
		verr.Add(prefix+"otherCollege", "is required when college is Other")
	}

	if in.Email != "" && !verr.Has(prefix+"email") {
		if reason := v.emailPolicyReason(event.EmailPolicy, in.Email); reason != "" {
			verr.Add(prefix+"email", reason)
		}
	}
}

func trimmed(in domain.ParticipantInput) domain.ParticipantInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.RollNo = strings.TrimSpace(in.RollNo)
	in.Course = strings.TrimSpace(in.Course)
	in.Year = strings.TrimSpace(in.Year)
	in.College = strings.TrimSpace(in.College)
	in.OtherCollege = strings.TrimSpace(in.OtherCollege)
	return in
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "mobile_in":
		return "must be a 10-digit mobile number starting with 6-9"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// checkDistinctContacts rejects teams that reuse an email or phone.
func checkDistinctContacts(verr *domain.ValidationError, sub *domain.Submission) {
	emails := map[string]struct{}{}
	phones := map[string]struct{}{}
	note := func(prefix string, p domain.ParticipantInput) {
		email := strings.ToLower(strings.TrimSpace(p.Email))
		phone := strings.TrimSpace(p.Phone)
		if email != "" {
			if _, dup := emails[email]; dup {
				verr.Add(prefix+"email", "duplicates another participant")
			}
			emails[email] = struct{}{}
		}
		if phone != "" {
			if _, dup := phones[phone]; dup {
				verr.Add(prefix+"phone", "duplicates another participant")
			}
			phones[phone] = struct{}{}
		}
	}
	note("", sub.Main)
	for i, m := range sub.Members {
		note(memberPrefix(m.SlotNumber(i)), m)
	}
}

func (v *Validator) emailPolicyReason(policy domain.EmailPolicy, email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "must be a valid email address"
	}
	local := strings.ToLower(email[:at])
	host := strings.ToLower(email[at+1:])

	if strings.Contains(local, domain.TokenSeparator) {
		return "must not contain '" + domain.TokenSeparator + "'"
	}
	if IsPlaceholderLocalPart(local) {
		return "placeholder addresses are not accepted"
	}
	if policy == domain.EmailPolicyAcademic && !v.isAcademic(host) {
		return "must be an institutional (academic) email address"
	}
	return ""
}

func (v *Validator) isAcademic(host string) bool {
	for _, d := range v.academicDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// IsMobile reports whether phone is a 10-digit Indian mobile number.
func IsMobile(phone string) bool {
	return mobileRegex.MatchString(phone)
}

// IsPlaceholderLocalPart reports whether local is a known throwaway mailbox name.
func IsPlaceholderLocalPart(local string) bool {
	local = strings.ToLower(local)
	if _, ok := placeholderLocalParts[local]; ok {
		return true
	}
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(local, p) {
			return true
		}
	}
	return false
}

// CheckFile returns why f is unacceptable, or "" when it may be stored.
func CheckFile(f *domain.UploadedFile) string {
	size := f.Size
	if n := int64(len(f.Data)); n > size {
		size = n
	}
	if size > MaxFileSize {
		return "must not exceed 5 MiB"
	}
	if size == 0 {
		return "must not be empty"
	}
	if _, ok := allowedContentTypes[ContentType(f)]; !ok {
		return "must be a JPEG, PNG or PDF file"
	}
	return ""
}

// ContentType returns the media type of f, sniffing the bytes when none was declared.
func ContentType(f *domain.UploadedFile) string {
	declared := strings.TrimSpace(f.ContentType)
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			declared = strings.ToLower(mt)
		}
	}
	if declared == "" || declared == "application/octet-stream" {
		mt, _, _ := mime.ParseMediaType(http.DetectContentType(f.Data))
		return strings.ToLower(mt)
	}
	return declared
}

// Extension returns the file extension for an accepted content type.
func Extension(contentType string) string {
	if ext, ok := allowedContentTypes[contentType]; ok {
		return ext
	}
	return ""
}
