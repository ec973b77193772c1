package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventregistration/internal/delivery/http/helpers"
	"eventregistration/internal/domain"
)

const (
	messageRegistered        = "Registration successful"
	messageAlreadyRegistered = "You have already registered for this event"
)

// RegisterResponse is the body of a successful or duplicate registration.
// swagger:model RegisterResponse
type RegisterResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	EventName         string   `json:"eventName"`
	WhatsappLink      string   `json:"whatsappLink,omitempty"`
	EmailSent         bool     `json:"emailSent"`
	RegistrationToken string   `json:"registrationToken"`
	AlreadyRegistered bool     `json:"alreadyRegistered,omitempty"`
	RegistrationID    string   `json:"registrationId,omitempty"`
	EmailError        string   `json:"emailError,omitempty"`
	TeamEmailErrors   []string `json:"teamEmailErrors,omitempty"`
}

func newRegisterResponse(out *domain.RegistrationOutcome) RegisterResponse {
	resp := RegisterResponse{
		Success:           true,
		Message:           messageRegistered,
		EventName:         out.Event.Name,
		WhatsappLink:      out.Event.WhatsappLink,
		EmailSent:         out.EmailSent,
		RegistrationToken: out.Token,
		AlreadyRegistered: out.AlreadyRegistered,
		EmailError:        out.EmailError,
		TeamEmailErrors:   out.TeamEmailErrors,
	}
	if out.AlreadyRegistered {
		resp.Message = messageAlreadyRegistered
	}
	if out.Registration != nil {
		resp.RegistrationID = out.Registration.ID
	}
	return resp
}

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
	Tokens  domain.RegistrationTokenIssuer
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService, tokens domain.RegistrationTokenIssuer) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
		Tokens:  tokens,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Multipart form with participant fields, optional team members (teamMembers JSON array or teamMember1..3 JSON objects) and identity proofs (collegeId, teamMember{N}CollegeId). A repeated registration answers 200 with alreadyRegistered=true.
// @Tags registration
// @Accept multipart/form-data
// @Produce json
// @Param eventId formData string true "Event ID"
// @Param name formData string true "Participant name"
// @Param email formData string true "Participant email"
// @Param phone formData string true "10-digit mobile number"
// @Param rollNo formData string true "Roll number"
// @Param course formData string true "Course"
// @Param year formData string true "Year of study"
// @Param college formData string true "College, or Other"
// @Param otherCollege formData string false "College name when college is Other"
// @Param teamName formData string false "Team name (team events)"
// @Param teamMembers formData string false "JSON array of team members"
// @Param query formData string false "Free-text question"
// @Param collegeId formData file false "Identity proof (JPEG, PNG or PDF, max 5 MiB)"
// @Success 200 {object} controllers.RegisterResponse
// @Failure 400 {object} helpers.PublicError "validation failed"
// @Failure 401 {object} helpers.PublicError "service credentials rejected"
// @Failure 404 {object} helpers.PublicError "event not found"
// @Failure 500 {object} helpers.PublicError "upload or registry failure"
// @Failure 503 {object} helpers.PublicError "service credentials missing"
// @Router /registration [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	sub, err := ParseSubmission(w, r)
	if err != nil {
		writePublicError(w, r, c.Logger, err, "Event not found")
		return
	}
	out, err := c.Service.Register(r.Context(), sub)
	if err != nil {
		writePublicError(w, r, c.Logger, err, "Event not found")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, newRegisterResponse(out))
}

// Details godoc
// @Summary Get a registration
// @Description Returns the stored registration and its event. Identify the registrant with email or with the registration token.
// @Tags registration
// @Produce json
// @Param eventId query string true "Event ID"
// @Param email query string false "Registrant email"
// @Param token query string false "Registration token"
// @Success 200 {object} domain.RegistrationDetails
// @Failure 400 {object} helpers.PublicError "missing parameters or invalid token"
// @Failure 404 {object} helpers.PublicError "registration not found"
// @Failure 500 {object} helpers.PublicError
// @Router /registration-details [get]
func (c *RegistrationController) Details(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eventID := strings.TrimSpace(q.Get("eventId"))
	email := strings.TrimSpace(q.Get("email"))
	if email == "" && q.Get("token") != "" {
		resolved, err := c.Tokens.Resolve(q.Get("token"))
		if err != nil {
			writePublicError(w, r, c.Logger, err, "")
			return
		}
		email = resolved
	}
	if eventID == "" || email == "" {
		helpers.WritePublicError(w, http.StatusBadRequest, "eventId and email (or token) are required", nil)
		return
	}
	details, err := c.Service.GetDetails(r.Context(), eventID, email)
	if err != nil {
		writePublicError(w, r, c.Logger, err, "Registration not found")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, details)
}
