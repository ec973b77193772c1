package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventregistration/internal/adapters/auth"
	"eventregistration/internal/domain"
	"eventregistration/internal/validation"
)

var (
	soloEvent = &domain.Event{
		ID:             "quiz",
		Name:           "Quiz Night",
		TeamSize:       domain.TeamSize{Min: 1, Max: 1},
		Registry:       domain.RegistryDatabase,
		FileSink:       domain.FileSinkDatabase,
		RequireIDProof: true,
		EmailPolicy:    domain.EmailPolicyGeneric,
		WhatsappLink:   "https://chat.whatsapp.com/quiz",
	}
	teamEvent = &domain.Event{
		ID:          "robowars",
		Name:        "Robo Wars",
		TeamSize:    domain.TeamSize{Min: 1, Max: 3},
		Registry:    domain.RegistryDatabase,
		FileSink:    domain.FileSinkDatabase,
		EmailPolicy: domain.EmailPolicyGeneric,
	}
)

type registrationHarness struct {
	svc    domain.RegistrationService
	repo   *fakeRegistrationRepo
	sink   *fakeSink
	mailer *fakeMailer
}

func newRegistrationHarness(t *testing.T) *registrationHarness {
	t.Helper()
	h := &registrationHarness{
		repo:   newFakeRegistrationRepo(),
		sink:   &fakeSink{},
		mailer: &fakeMailer{failFor: map[string]bool{}},
	}
	logger := discardLogger()
	h.svc = NewRegistrationService(RegistrationDeps{
		Catalog:   newFakeCatalog(soloEvent, teamEvent),
		Validator: validation.New([]string{"ac.in", "edu"}),
		Guard:     NewIndexGuard(h.repo),
		Relay:     NewFileRelay(map[domain.FileSinkKind]domain.FileSink{domain.FileSinkDatabase: h.sink}, logger),
		Registry:  NewDatabaseRegistry(h.repo),
		Notifier: NewNotificationDispatcher(&fakeMailerProvider{mailer: h.mailer}, &fakeRenderer{},
			time.Second, logger),
		Tokens:        auth.NewRegistrationTokenIssuer(),
		PublicBaseURL: "https://register.test/",
		Logger:        logger,
	})
	return h
}

func pngFile(size int) *domain.UploadedFile {
	data := make([]byte, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return &domain.UploadedFile{Field: "collegeId", Filename: "id.png", ContentType: "image/png", Size: int64(size), Data: data}
}

func participant(name, email, phone string) domain.ParticipantInput {
	return domain.ParticipantInput{
		Name:    name,
		Email:   email,
		Phone:   phone,
		RollNo:  "21CS042",
		Course:  "B.Tech",
		Year:    "3",
		College: "Delhi Technological University",
	}
}

func soloSubmission() *domain.Submission {
	main := participant("Asha Rao", "Asha.Rao@college.edu", "9876543210")
	main.IDProof = pngFile(1 << 20)
	return &domain.Submission{EventID: soloEvent.ID, Main: main}
}

func TestRegister_SoloEventWithProof(t *testing.T) {
	h := newRegistrationHarness(t)

	out, err := h.svc.Register(context.Background(), soloSubmission())
	require.NoError(t, err)

	assert.False(t, out.AlreadyRegistered)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("asha.rao@college.edu")), out.Token)
	assert.True(t, out.EmailSent)
	assert.Empty(t, out.EmailError)
	require.NotNil(t, out.Registration)
	assert.Equal(t, "reg-1", out.Registration.ID)
	assert.Equal(t, "asha.rao@college.edu", out.Registration.MainParticipant.Email)
	assert.Contains(t, out.Registration.CollegeIDURL, "https://files.test/main_asha-rao_")
	assert.Equal(t, out.Registration.CollegeIDURL, out.Registration.MainParticipant.CollegeIDURL)
	assert.Empty(t, out.Registration.TeamName)
	assert.Equal(t, 1, h.repo.count())
	assert.Equal(t, []string{"asha.rao@college.edu"}, h.mailer.recipients())
}

func TestRegister_DuplicateIsIdempotent(t *testing.T) {
	h := newRegistrationHarness(t)
	ctx := context.Background()

	first, err := h.svc.Register(ctx, soloSubmission())
	require.NoError(t, err)
	require.False(t, first.AlreadyRegistered)

	second, err := h.svc.Register(ctx, soloSubmission())
	require.NoError(t, err)
	assert.True(t, second.AlreadyRegistered)
	assert.Equal(t, first.Token, second.Token)
	assert.Nil(t, second.Registration)

	assert.Equal(t, 1, h.repo.count(), "duplicate must not create a second record")
	assert.Len(t, h.sink.names(), 1, "duplicate must not relay files")
	assert.Len(t, h.mailer.recipients(), 1, "duplicate must not send email")
}

func TestRegister_DuplicateByPhone(t *testing.T) {
	h := newRegistrationHarness(t)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, soloSubmission())
	require.NoError(t, err)

	sub := soloSubmission()
	sub.Main.Email = "someone.else@college.edu"
	out, err := h.svc.Register(ctx, sub)
	require.NoError(t, err)
	assert.True(t, out.AlreadyRegistered)
	assert.Equal(t, 1, h.repo.count())
}

// permissiveGuard lets every submission through so the registry decides.
type permissiveGuard struct{}

func (permissiveGuard) IsRegistered(ctx context.Context, event *domain.Event, email, phone string) (bool, error) {
	return false, nil
}

func (permissiveGuard) Remember(event *domain.Event, email, phone string) {}

func TestRegister_RegistryRejectsRacingDuplicate(t *testing.T) {
	h := newRegistrationHarness(t)
	_, err := h.svc.Register(context.Background(), soloSubmission())
	require.NoError(t, err)

	svc := h.svc.(*registrationService)
	svc.Guard = permissiveGuard{}

	out, err := svc.Register(context.Background(), soloSubmission())
	require.NoError(t, err)
	assert.True(t, out.AlreadyRegistered)
	assert.Equal(t, 1, h.repo.count())
}

func teamSubmission() *domain.Submission {
	main := participant("Ravi Kumar", "ravi.kumar@college.edu", "9876543210")
	m1 := participant("Neha Singh", "neha.singh@college.edu", "9876543211")
	m1.IDProof = pngFile(2048)
	m2 := participant("Arjun Mehta", "arjun.mehta@college.edu", "9876543212")
	return &domain.Submission{
		EventID:  teamEvent.ID,
		TeamName: "  Circuit Breakers ",
		Main:     main,
		Members:  []domain.ParticipantInput{m1, m2},
	}
}

func TestRegister_PartialNotificationFailureStillSucceeds(t *testing.T) {
	h := newRegistrationHarness(t)
	h.mailer.failFor["arjun.mehta@college.edu"] = true

	out, err := h.svc.Register(context.Background(), teamSubmission())
	require.NoError(t, err)

	assert.True(t, out.EmailSent, "emailSent follows the main participant only")
	require.Len(t, out.TeamEmailErrors, 1)
	assert.Contains(t, out.TeamEmailErrors[0], "arjun.mehta@college.edu")
	assert.Equal(t, []string{"neha.singh@college.edu", "ravi.kumar@college.edu"}, h.mailer.recipients())
	assert.Equal(t, "Circuit Breakers", out.Registration.TeamName)
	require.Len(t, out.Registration.TeamMembers, 2)
	assert.NotEmpty(t, out.Registration.TeamMembers[0].CollegeIDURL)
	assert.Empty(t, out.Registration.TeamMembers[1].CollegeIDURL)
}

func TestRegister_MainEmailFailureIsReported(t *testing.T) {
	h := newRegistrationHarness(t)
	h.mailer.failFor["ravi.kumar@college.edu"] = true

	out, err := h.svc.Register(context.Background(), teamSubmission())
	require.NoError(t, err)
	assert.False(t, out.EmailSent)
	assert.Contains(t, out.EmailError, "550")
	assert.Empty(t, out.TeamEmailErrors)
	assert.Equal(t, 1, h.repo.count())
}

func TestRegister_MainUploadFailureIsFatal(t *testing.T) {
	h := newRegistrationHarness(t)
	h.sink.failPrefix = "main_"

	_, err := h.svc.Register(context.Background(), soloSubmission())
	require.Error(t, err)
	var uerr *domain.UploadError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "main", uerr.Field)
	assert.Equal(t, 0, h.repo.count())
	assert.Empty(t, h.mailer.recipients())
}

func TestRegister_MemberUploadFailureIsTolerated(t *testing.T) {
	h := newRegistrationHarness(t)
	h.sink.failPrefix = "member1_"

	out, err := h.svc.Register(context.Background(), teamSubmission())
	require.NoError(t, err)
	assert.Empty(t, out.Registration.TeamMembers[0].CollegeIDURL)
	assert.Equal(t, 1, h.repo.count())
}

func TestRegister_RegistryFailure(t *testing.T) {
	h := newRegistrationHarness(t)
	svc := h.svc.(*registrationService)
	svc.Guard = permissiveGuard{}
	h.repo.err = errors.New("connection reset")

	_, err := svc.Register(context.Background(), soloSubmission())
	require.Error(t, err)
	var rerr *domain.RegistryError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, domain.PhaseAppend, rerr.Phase)
	assert.Len(t, h.sink.names(), 1, "uploaded files are not cleaned up")
	assert.Empty(t, h.mailer.recipients())
}

func TestRegister_ValidationFailsBeforeSideEffects(t *testing.T) {
	h := newRegistrationHarness(t)
	sub := soloSubmission()
	sub.Main.Phone = "12345"
	sub.Main.IDProof = nil

	_, err := h.svc.Register(context.Background(), sub)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("phone"))
	assert.True(t, verr.Has("collegeId"))
	assert.Empty(t, h.sink.names())
	assert.Equal(t, 0, h.repo.count())
}

func TestRegister_UnknownEvent(t *testing.T) {
	h := newRegistrationHarness(t)
	sub := soloSubmission()
	sub.EventID = "nope"
	_, err := h.svc.Register(context.Background(), sub)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegister_ContinuesAfterClientCancels(t *testing.T) {
	h := newRegistrationHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	svc := h.svc.(*registrationService)
	svc.Guard = cancellingGuard{cancel: cancel}

	out, err := svc.Register(ctx, soloSubmission())
	require.NoError(t, err)
	assert.False(t, out.AlreadyRegistered)
	assert.Equal(t, 1, h.repo.count())
}

// cancellingGuard cancels the request right before the write phase starts.
type cancellingGuard struct {
	cancel context.CancelFunc
}

func (g cancellingGuard) IsRegistered(ctx context.Context, event *domain.Event, email, phone string) (bool, error) {
	g.cancel()
	return false, nil
}

func (cancellingGuard) Remember(event *domain.Event, email, phone string) {}

func TestRegister_DetailsURLInEmail(t *testing.T) {
	h := newRegistrationHarness(t)
	svc := h.svc.(*registrationService)
	var captured *domain.RegistrationEmailData
	svc.Notifier = notifierFunc(func(ctx context.Context, to string, data *domain.RegistrationEmailData) domain.NotificationResult {
		captured = data
		return domain.NotificationResult{Recipient: to, Success: true}
	})

	out, err := svc.Register(context.Background(), soloSubmission())
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "https://register.test/registration-details?eventId=quiz&token="+
		url.QueryEscape(out.Token), captured.DetailsURL)
	assert.Equal(t, "Asha Rao", captured.RecipientName)
	assert.False(t, captured.IsTeamMember)
}

type notifierFunc func(ctx context.Context, to string, data *domain.RegistrationEmailData) domain.NotificationResult

func (f notifierFunc) Send(ctx context.Context, to string, data *domain.RegistrationEmailData) domain.NotificationResult {
	return f(ctx, to, data)
}

func TestGetDetails(t *testing.T) {
	h := newRegistrationHarness(t)
	ctx := context.Background()
	_, err := h.svc.Register(ctx, soloSubmission())
	require.NoError(t, err)

	details, err := h.svc.GetDetails(ctx, soloEvent.ID, " ASHA.RAO@college.edu ")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", details.Registration.MainParticipant.Name)
	assert.Equal(t, soloEvent, details.Event)

	_, err = h.svc.GetDetails(ctx, soloEvent.ID, "nobody@college.edu")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.GetDetails(ctx, "missing", "asha.rao@college.edu")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
