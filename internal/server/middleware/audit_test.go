package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	identitydomain "staffhub/backend/internal/identity/domain"
)

func auditedRouter(a *memAudit) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, withRole(req, identitydomain.RoleOwner))
		})
	})
	r.Use(Audit(a))
	r.Get("/api/employees", okHandler().ServeHTTP)
	r.Put("/api/employees/{id}", okHandler().ServeHTTP)
	return r
}

func TestAudit_RecordsMutations(t *testing.T) {
	a := &memAudit{}
	h := auditedRouter(a)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/employees/e1", nil))
	if len(a.actions) != 1 || a.actions[0] != "update:employee" {
		t.Errorf("audit = %v, want [update:employee]", a.actions)
	}
}

func TestAudit_SkipsReads(t *testing.T) {
	a := &memAudit{}
	auditedRouter(a).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/employees", nil))
	if len(a.actions) != 0 {
		t.Errorf("audit = %v, want none", a.actions)
	}
}

func TestAudit_SkipsAnonymous(t *testing.T) {
	a := &memAudit{}
	h := Audit(a)(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	if len(a.actions) != 0 {
		t.Errorf("audit = %v, want none", a.actions)
	}
}
