package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"staffhub/backend/internal/audit"
	employeedomain "staffhub/backend/internal/employee/domain"
	identitydomain "staffhub/backend/internal/identity/domain"
	otpservice "staffhub/backend/internal/otp/service"
	"staffhub/backend/internal/security"
	"staffhub/backend/internal/server/middleware"
	"staffhub/backend/internal/server/respond"
	"staffhub/backend/internal/session"
)

// OTPService issues and verifies one-time codes.
type OTPService interface {
	Request(ctx context.Context, value string, channel identitydomain.Channel) (otpservice.RequestResult, error)
	Verify(ctx context.Context, value string, channel identitydomain.Channel, code string) error
}

// IdentityService resolves callers to identities.
type IdentityService interface {
	ResolveOrCreatePhoneIdentity(ctx context.Context, phone string) (*identitydomain.AuthIdentity, error)
	ResolveEmailPassword(ctx context.Context, email, password string) (*identitydomain.AuthIdentity, error)
	Lookup(ctx context.Context, channel identitydomain.Channel, value string) (*identitydomain.AuthIdentity, error)
}

// SessionIssuer mints session cookies.
type SessionIssuer interface {
	IssueSession(ident *identitydomain.AuthIdentity, channel identitydomain.Channel) (*session.Session, error)
	ClearCookie() *http.Cookie
}

// InvitationRedeemer previews and redeems invitation tokens.
type InvitationRedeemer interface {
	PreviewInvitation(ctx context.Context, token string) (*employeedomain.Employee, error)
	CompleteInvitation(ctx context.Context, token, username, password string) (*identitydomain.AuthIdentity, *session.Session, error)
}

// AuthHandler serves /api/auth.
type AuthHandler struct {
	otp         OTPService
	identities  IdentityService
	sessions    SessionIssuer
	invitations InvitationRedeemer
	audit       audit.AuditLogger
	devCodes    bool
	validate    *validator.Validate
	log         zerolog.Logger
}

// NewAuthHandler returns an AuthHandler. devCodes echoes issued codes in the response message.
func NewAuthHandler(otp OTPService, identities IdentityService, sessions SessionIssuer, invitations InvitationRedeemer, auditLogger audit.AuditLogger, devCodes bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		otp:         otp,
		identities:  identities,
		sessions:    sessions,
		invitations: invitations,
		audit:       auditLogger,
		devCodes:    devCodes,
		validate:    validator.New(),
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// RequestOTP handles POST /api/auth/otp/request {phone}.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone" validate:"required,max=32"`
	}
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	body.Phone = strings.TrimSpace(body.Phone)
	if err := h.validate.Struct(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "Phone number is required")
		return
	}
	h.issueCode(w, r, body.Phone, identitydomain.ChannelPhone)
}

func (h *AuthHandler) issueCode(w http.ResponseWriter, r *http.Request, value string, channel identitydomain.Channel) {
	res, err := h.otp.Request(r.Context(), value, channel)
	if err != nil {
		middleware.RecordAuthAttempt("otp_request", false)
		h.auditEvent(r, "", "", audit.ActionOTPDispatchFailed, string(channel))
		respond.Err(w, classify(err))
		return
	}
	middleware.RecordAuthAttempt("otp_request", true)
	if res.Status == otpservice.StatusPending {
		respond.OK(w, "OTP already sent to this email", nil)
		return
	}
	h.auditEvent(r, "", "", audit.ActionOTPRequested, string(channel))
	msg := "Successfully sent otp"
	if h.devCodes {
		msg += ": OTP is " + res.Code
	}
	respond.OK(w, msg, nil)
}

// VerifyOTP handles POST /api/auth/otp/verify with {phone, otp} or {email, password, otp}.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Password string `json:"password"`
		OTP      string `json:"otp"`
	}
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	body.Phone = strings.TrimSpace(body.Phone)
	body.Email = strings.TrimSpace(body.Email)
	body.OTP = strings.TrimSpace(body.OTP)

	var (
		channel identitydomain.Channel
		value   string
	)
	switch {
	case body.Phone != "" && body.OTP != "":
		channel, value = identitydomain.ChannelPhone, body.Phone
	case body.Email != "" && body.Password != "" && body.OTP != "":
		channel, value = identitydomain.ChannelEmail, body.Email
	default:
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}

	// The code is consumed before the password check, so a wrong password costs the caller the code.
	if err := h.otp.Verify(r.Context(), value, channel, body.OTP); err != nil {
		h.loginFailed(w, r, channel, err)
		return
	}
	var (
		ident *identitydomain.AuthIdentity
		err   error
	)
	if channel == identitydomain.ChannelPhone {
		ident, err = h.identities.ResolveOrCreatePhoneIdentity(r.Context(), value)
	} else {
		ident, err = h.identities.ResolveEmailPassword(r.Context(), value, body.Password)
	}
	if err != nil {
		h.loginFailed(w, r, channel, err)
		return
	}
	s, err := h.sessions.IssueSession(ident, channel)
	if err != nil {
		h.log.Error().Err(err).Msg("issue session")
		respond.Err(w, classify(err))
		return
	}
	middleware.RecordAuthAttempt("otp_verify", true)
	h.auditEvent(r, ident.ID, string(ident.Role), audit.ActionLoginSuccess, string(channel))
	http.SetCookie(w, s.Cookie)
	respond.OK(w, "", map[string]any{"user": newUserView(ident)})
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, channel identitydomain.Channel, err error) {
	middleware.RecordAuthAttempt("otp_verify", false)
	h.auditEvent(r, "", "", audit.ActionLoginFailure, string(channel))
	respond.Err(w, classify(err))
}

// LoginEmail handles POST /api/auth/login/email {email, password}: the password is checked, then an
// email code is issued.
func (h *AuthHandler) LoginEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=72"`
	}
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if err := h.validate.Struct(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	if _, err := h.identities.ResolveEmailPassword(r.Context(), body.Email, body.Password); err != nil {
		middleware.RecordAuthAttempt("login_email", false)
		h.auditEvent(r, "", "", audit.ActionLoginFailure, string(identitydomain.ChannelEmail))
		respond.Err(w, classify(err))
		return
	}
	middleware.RecordAuthAttempt("login_email", true)
	h.issueCode(w, r, body.Email, identitydomain.ChannelEmail)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := session.PrincipalFrom(r.Context())
	if !ok || p.Value == "" {
		respond.Error(w, http.StatusBadRequest, msgInvalidToken)
		return
	}
	ident, err := h.identities.Lookup(r.Context(), p.Channel, p.Value)
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	if ident == nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidToken)
		return
	}
	respond.OK(w, "", map[string]any{"user": newUserView(ident)})
}

// Logout handles POST /api/auth/logout. Sessions are stateless; only the cookie is cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		h.auditEvent(r, "", "", audit.ActionLogout, "session")
	}
	http.SetCookie(w, h.sessions.ClearCookie())
	respond.OK(w, "", nil)
}

// ValidateInvitation handles POST /api/auth/invitation/validate {token}.
func (h *AuthHandler) ValidateInvitation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token" validate:"required"`
	}
	if err := decode(w, r, &body); err != nil || h.validate.Struct(&body) != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidToken)
		return
	}
	e, err := h.invitations.PreviewInvitation(r.Context(), body.Token)
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "", map[string]any{"user": employeeView{UID: e.ID, Employee: e}})
}

// CompleteInvitation handles POST /api/auth/invitation/complete {token, username, password}.
func (h *AuthHandler) CompleteInvitation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token" validate:"required"`
		Username string `json:"username" validate:"required,max=64"`
		Password string `json:"password" validate:"required,min=6,max=72"`
	}
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidToken)
		return
	}
	if len(body.Password) > security.MaxPasswordBytes {
		respond.Error(w, http.StatusBadRequest, msgPasswordTooLong)
		return
	}
	if h.validate.Struct(&body) != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidToken)
		return
	}
	ident, s, err := h.invitations.CompleteInvitation(r.Context(), body.Token, body.Username, body.Password)
	if err != nil {
		middleware.RecordAuthAttempt("invitation", false)
		respond.Err(w, classify(err))
		return
	}
	middleware.RecordAuthAttempt("invitation", true)
	h.auditEvent(r, ident.ID, string(ident.Role), audit.ActionInvitationCompleted, "employee")
	http.SetCookie(w, s.Cookie)
	respond.OK(w, "", map[string]any{"user": newUserView(ident)})
}

func (h *AuthHandler) auditEvent(r *http.Request, uid, role, action, resource string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(r.Context(), uid, role, action, resource, nil)
}
