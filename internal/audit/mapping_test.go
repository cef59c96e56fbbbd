package audit

import "testing"

func TestParseRoute(t *testing.T) {
	tests := []struct {
		method, pattern string
		want            ActionResource
	}{
		{"GET", "/api/employees", ActionResource{"list", "employee"}},
		{"GET", "/api/employees/{id}", ActionResource{"get", "employee"}},
		{"POST", "/api/employees", ActionResource{"create", "employee"}},
		{"PUT", "/api/employees/{id}", ActionResource{"update", "employee"}},
		{"delete", "/api/employees/{id}", ActionResource{"delete", "employee"}},
		{"POST", "/api/tasks", ActionResource{"create", "task"}},
		{"PATCH", "/api/tasks/{id}/status", ActionResource{"status_changed", "task"}},
		{"GET", "/api/chat/rooms/{peerId}/messages", ActionResource{"list", "chat"}},
		{"GET", "/health", ActionResource{"list", "health"}},
		{"GET", "/api/", ActionResource{"unknown", "unknown"}},
		{"OPTIONS", "/api/tasks", ActionResource{"options", "task"}},
	}
	for _, tt := range tests {
		if got := ParseRoute(tt.method, tt.pattern); got != tt.want {
			t.Errorf("ParseRoute(%q, %q) = %+v, want %+v", tt.method, tt.pattern, got, tt.want)
		}
	}
}
