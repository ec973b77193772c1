package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventregistration/internal/domain"
)

func validParticipant(i int) domain.ParticipantInput {
	return domain.ParticipantInput{
		Name:    fmt.Sprintf("Participant %d", i),
		Email:   fmt.Sprintf("p%d.rao@du.ac.in", i),
		Phone:   fmt.Sprintf("98765432%02d", i),
		RollNo:  "21CS042",
		Course:  "B.Tech",
		Year:    "2",
		College: "Delhi University",
	}
}

func pdf(size int) *domain.UploadedFile {
	data := make([]byte, size)
	copy(data, "%PDF-1.7\n")
	return &domain.UploadedFile{Filename: "id.pdf", ContentType: "application/pdf", Size: int64(size), Data: data}
}

func validationErr(t *testing.T, err error) *domain.ValidationError {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "want *domain.ValidationError, got %v", err)
	return verr
}

func TestValidate_TeamSizeExact(t *testing.T) {
	v := New([]string{"ac.in"})
	event := &domain.Event{ID: "duo", Name: "Duo", TeamSize: domain.TeamSize{Min: 2, Max: 2}, EmailPolicy: domain.EmailPolicyGeneric}

	tests := []struct {
		name    string
		members int
		wantErr bool
	}{
		{"no members", 0, true},
		{"one member", 1, false},
		{"two members", 2, true},
		{"three members", 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &domain.Submission{EventID: event.ID, TeamName: "Pair", Main: validParticipant(0)}
			for i := 1; i <= tt.members; i++ {
				sub.Members = append(sub.Members, validParticipant(i))
			}
			err := v.Validate(event, sub)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, validationErr(t, err).Has("teamSize"))
		})
	}
}

func TestValidate_TeamNameRequiredForTeams(t *testing.T) {
	v := New(nil)
	event := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 4}, EmailPolicy: domain.EmailPolicyGeneric}
	err := v.Validate(event, &domain.Submission{Main: validParticipant(0), TeamName: "  "})
	assert.True(t, validationErr(t, err).Has("teamName"))

	solo := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 1}, EmailPolicy: domain.EmailPolicyGeneric}
	assert.NoError(t, v.Validate(solo, &domain.Submission{Main: validParticipant(0)}))
}

func TestValidate_EnumeratesEveryField(t *testing.T) {
	v := New(nil)
	event := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 2}, RequireIDProof: true, EmailPolicy: domain.EmailPolicyGeneric}
	member := validParticipant(1)
	member.Email = "not-an-email"
	sub := &domain.Submission{
		Main:    domain.ParticipantInput{College: "Other", Phone: "5123456789"},
		Members: []domain.ParticipantInput{member},
	}

	verr := validationErr(t, v.Validate(event, sub))
	for _, field := range []string{
		"teamName", "name", "email", "phone", "rollNo", "course", "year",
		"otherCollege", "collegeId", "teamMember1.email",
	} {
		assert.True(t, verr.Has(field), "expected failure for %s in %v", field, verr.Fields)
	}
	assert.False(t, verr.Has("college"))
	assert.False(t, verr.Has("teamMember1.phone"))
}

func TestValidate_DuplicateContactsWithinTeam(t *testing.T) {
	v := New(nil)
	event := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 4}, EmailPolicy: domain.EmailPolicyGeneric}
	m1 := validParticipant(1)
	m1.Email = "P0.RAO@du.ac.in"
	m2 := validParticipant(2)
	m2.Phone = validParticipant(0).Phone
	err := v.Validate(event, &domain.Submission{TeamName: "T", Main: validParticipant(0), Members: []domain.ParticipantInput{m1, m2}})

	verr := validationErr(t, err)
	assert.True(t, verr.Has("teamMember1.email"))
	assert.True(t, verr.Has("teamMember2.phone"))
}

func TestValidate_EmailPolicy(t *testing.T) {
	v := New([]string{"ac.in", ".edu."})
	academic := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 1}, EmailPolicy: domain.EmailPolicyAcademic}
	generic := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 1}, EmailPolicy: domain.EmailPolicyGeneric}

	tests := []struct {
		email   string
		event   *domain.Event
		wantErr bool
	}{
		{"asha@du.ac.in", academic, false},
		{"asha@cs.iitd.ac.in", academic, false},
		{"asha@stanford.edu", academic, false},
		{"asha@gmail.com", academic, true},
		{"asha@notac.in", academic, true},
		{"asha@gmail.com", generic, false},
		{"test@gmail.com", generic, true},
		{"Dummy.User@du.ac.in", academic, true},
		{"noreply@du.ac.in", academic, true},
		{"a|b@du.ac.in", academic, true},
		{"a|b@gmail.com", generic, true},
	}
	for _, tt := range tests {
		t.Run(tt.email+"/"+string(tt.event.EmailPolicy), func(t *testing.T) {
			p := validParticipant(0)
			p.Email = tt.email
			err := v.Validate(tt.event, &domain.Submission{Main: p})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, validationErr(t, err).Has("email"))
		})
	}
}

func TestValidate_MemberErrorsUseFormSlot(t *testing.T) {
	v := New(nil)
	event := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 4}, EmailPolicy: domain.EmailPolicyGeneric}
	m := validParticipant(2)
	m.Slot = 2
	m.Email = "not-an-email"
	m.IDProof = &domain.UploadedFile{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}
	err := v.Validate(event, &domain.Submission{TeamName: "T", Main: validParticipant(0), Members: []domain.ParticipantInput{m}})

	verr := validationErr(t, err)
	assert.True(t, verr.Has("teamMember2.email"))
	assert.True(t, verr.Has("teamMember2CollegeId"))
	assert.False(t, verr.Has("teamMember1.email"))
}

func TestValidate_MemberProofChecked(t *testing.T) {
	v := New(nil)
	event := &domain.Event{TeamSize: domain.TeamSize{Min: 1, Max: 2}, EmailPolicy: domain.EmailPolicyGeneric}
	m := validParticipant(1)
	m.IDProof = &domain.UploadedFile{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}
	err := v.Validate(event, &domain.Submission{TeamName: "T", Main: validParticipant(0), Members: []domain.ParticipantInput{m}})
	assert.True(t, validationErr(t, err).Has("teamMember1CollegeId"))
}

func TestCheckFile(t *testing.T) {
	tests := []struct {
		name string
		file *domain.UploadedFile
		want string
	}{
		{
			name: "over 5 MiB regardless of type",
			file: pdf(5<<20 + 1),
			want: "must not exceed 5 MiB",
		},
		{
			name: "declared size over limit",
			file: &domain.UploadedFile{ContentType: "image/png", Size: 5<<20 + 1, Data: []byte("\x89PNG\r\n\x1a\n")},
			want: "must not exceed 5 MiB",
		},
		{
			name: "4 MiB plain text",
			file: &domain.UploadedFile{ContentType: "text/plain", Size: 4 << 20, Data: make([]byte, 4<<20)},
			want: "must be a JPEG, PNG or PDF file",
		},
		{
			name: "2 MiB pdf",
			file: pdf(2 << 20),
		},
		{
			name: "exactly 5 MiB",
			file: pdf(5 << 20),
		},
		{
			name: "jpeg with parameters",
			file: &domain.UploadedFile{ContentType: "Image/JPEG; charset=binary", Data: []byte{0xff, 0xd8, 0xff}},
		},
		{
			name: "undeclared png is sniffed",
			file: &domain.UploadedFile{Data: []byte("\x89PNG\r\n\x1a\n\x00\x00")},
		},
		{
			name: "octet-stream text is sniffed and rejected",
			file: &domain.UploadedFile{ContentType: "application/octet-stream", Data: []byte("hello world")},
			want: "must be a JPEG, PNG or PDF file",
		},
		{
			name: "empty",
			file: &domain.UploadedFile{ContentType: "application/pdf"},
			want: "must not be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckFile(tt.file))
		})
	}
}

func TestContentTypeAndExtension(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType(&domain.UploadedFile{Data: []byte("%PDF-1.4 rest")}))
	assert.Equal(t, ".pdf", Extension("application/pdf"))
	assert.Equal(t, ".jpg", Extension("image/jpeg"))
	assert.Empty(t, Extension("text/plain"))
}

func TestIsMobile(t *testing.T) {
	for phone, want := range map[string]bool{
		"9876543210":  true,
		"6000000000":  true,
		"5876543210":  false,
		"987654321":   false,
		"98765432101": false,
		"98765x3210":  false,
		"":            false,
	} {
		assert.Equal(t, want, IsMobile(phone), phone)
	}
}

func TestIsPlaceholderLocalPart(t *testing.T) {
	assert.True(t, IsPlaceholderLocalPart("TEST"))
	assert.True(t, IsPlaceholderLocalPart("testing123"))
	assert.True(t, IsPlaceholderLocalPart("no-reply"))
	assert.False(t, IsPlaceholderLocalPart("asha.rao"))
	assert.False(t, IsPlaceholderLocalPart("contestant"))
}
