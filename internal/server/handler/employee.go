package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"staffhub/backend/internal/audit"
	employeedomain "staffhub/backend/internal/employee/domain"
	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/server/respond"
	"staffhub/backend/internal/session"
)

// EmployeeService manages the roster.
type EmployeeService interface {
	CreateEmployee(ctx context.Context, name, phone, email string) (*employeedomain.Employee, error)
	RemoveEmployee(ctx context.Context, id string) error
	UpdateEmployee(ctx context.Context, id string, u employeedomain.Update) error
	ListEmployees(ctx context.Context) ([]*employeedomain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*employeedomain.Employee, error)
}

// EmployeeHandler serves /api/employees. Every route is owner-only.
type EmployeeHandler struct {
	employees EmployeeService
	audit     audit.AuditLogger
	validate  *validator.Validate
	log       zerolog.Logger
}

func NewEmployeeHandler(employees EmployeeService, auditLogger audit.AuditLogger, log zerolog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		employees: employees,
		audit:     auditLogger,
		validate:  validator.New(),
		log:       log.With().Str("component", "employee_handler").Logger(),
	}
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	es, err := h.employees.ListEmployees(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list employees")
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "", map[string]any{"employees": newEmployeeViews(es)})
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.employees.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "", map[string]any{"employee": employeeView{UID: e.ID, Employee: e}})
}

type createEmployeeRequest struct {
	Name  string `json:"name" validate:"max=128"`
	Phone string `json:"phone" validate:"max=32"`
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role"`
}

// Create adds a roster record and sends its invitation. A role other than employee is rejected.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createEmployeeRequest
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" {
		respond.Error(w, http.StatusBadRequest, msgMissingParams)
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	if body.Role != "" && identitydomain.Role(body.Role) != identitydomain.RoleEmployee {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	e, err := h.employees.CreateEmployee(r.Context(), body.Name, body.Phone, body.Email)
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	if p, ok := session.PrincipalFrom(r.Context()); ok && h.audit != nil {
		h.audit.LogEvent(r.Context(), p.UID, string(p.Role), audit.ActionInvitationSent, "employee",
			map[string]string{"employee_id": e.ID})
	}
	respond.OK(w, msgSuccess, map[string]any{"id": e.ID})
}

// Update merges name and phone. Email is required to scope the phone conflict check and is never changed.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		respond.Error(w, http.StatusBadRequest, msgMissingParams)
		return
	}
	u := employeedomain.Update{Email: strings.TrimSpace(body.Email), Name: body.Name, Phone: body.Phone}
	if err := h.employees.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), u); err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, msgSuccess, nil)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.RemoveEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, msgSuccess, nil)
}
