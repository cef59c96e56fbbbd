package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	employeedomain "staffhub/backend/internal/employee/domain"
	identitydomain "staffhub/backend/internal/identity/domain"
	taskdomain "staffhub/backend/internal/task/domain"
)

const maxBodyBytes = 1 << 20

// userView is an identity as returned to clients. The password hash never leaves the server.
type userView struct {
	UID       string              `json:"uid"`
	Email     string              `json:"email,omitempty"`
	Phone     string              `json:"phone,omitempty"`
	Username  string              `json:"username,omitempty"`
	Role      identitydomain.Role `json:"role"`
	CreatedAt time.Time           `json:"created_at"`
}

func newUserView(i *identitydomain.AuthIdentity) userView {
	return userView{UID: i.ID, Email: i.Email, Phone: i.Phone, Username: i.Username, Role: i.Role, CreatedAt: i.CreatedAt}
}

type employeeView struct {
	UID string `json:"uid"`
	*employeedomain.Employee
}

func newEmployeeViews(es []*employeedomain.Employee) []employeeView {
	out := make([]employeeView, 0, len(es))
	for _, e := range es {
		out = append(out, employeeView{UID: e.ID, Employee: e})
	}
	return out
}

type taskView struct {
	ID string `json:"id"`
	*taskdomain.Task
}

func newTaskViews(ts []*taskdomain.Task) []taskView {
	out := make([]taskView, 0, len(ts))
	for _, t := range ts {
		out = append(out, taskView{ID: t.ID, Task: t})
	}
	return out
}

// decode reads a JSON body into v. An empty body leaves v zero-valued.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}
