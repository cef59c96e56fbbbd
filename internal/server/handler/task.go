package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	identitydomain "staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/server/respond"
	"staffhub/backend/internal/session"
	taskdomain "staffhub/backend/internal/task/domain"
	taskservice "staffhub/backend/internal/task/service"
)

// TaskBoard is the task board service.
type TaskBoard interface {
	Create(ctx context.Context, title, description, assigneeID string) (*taskdomain.Task, error)
	List(ctx context.Context, v taskservice.Viewer) ([]*taskdomain.Task, error)
	Get(ctx context.Context, v taskservice.Viewer, id string) (*taskdomain.Task, error)
	UpdateStatus(ctx context.Context, v taskservice.Viewer, id string, status taskdomain.Status) (*taskdomain.Task, error)
}

// TaskHandler serves /api/tasks.
type TaskHandler struct {
	board    TaskBoard
	validate *validator.Validate
}

func NewTaskHandler(board TaskBoard) *TaskHandler {
	return &TaskHandler{board: board, validate: validator.New()}
}

// viewer derives the board viewer from the session. Phone sessions carry no email and see only what an
// owner role grants them.
func viewer(r *http.Request) (taskservice.Viewer, bool) {
	p, ok := session.PrincipalFrom(r.Context())
	if !ok {
		return taskservice.Viewer{}, false
	}
	v := taskservice.Viewer{Role: p.Role}
	if p.Channel == identitydomain.ChannelEmail {
		v.Email = p.Value
	}
	return v, true
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ts, err := h.board.List(r.Context(), v)
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "Get tasks successfully!", map[string]any{"tasks": newTaskViews(ts)})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	t, err := h.board.Get(r.Context(), v, chi.URLParam(r, "id"))
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "Get task successfully!", map[string]any{"task": taskView{ID: t.ID, Task: t}})
}

// Create is owner-only; the route guard enforces it.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"max=4000"`
		AssigneeID  string `json:"assignee_id" validate:"required"`
	}
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	body.Title = strings.TrimSpace(body.Title)
	if err := h.validate.Struct(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgMissingParams)
		return
	}
	t, err := h.board.Create(r.Context(), body.Title, body.Description, body.AssigneeID)
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "Task created successfully!", map[string]any{"task": taskView{ID: t.ID, Task: t}})
}

func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	v, ok := viewer(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decode(w, r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidParams)
		return
	}
	status, err := taskdomain.ParseStatus(strings.TrimSpace(body.Status))
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	t, err := h.board.UpdateStatus(r.Context(), v, chi.URLParam(r, "id"), status)
	if err != nil {
		respond.Err(w, classify(err))
		return
	}
	respond.OK(w, "Task updated successfully!", map[string]any{"task": taskView{ID: t.ID, Task: t}})
}
