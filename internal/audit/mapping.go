package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Route overrides that do not follow the method-to-verb rule.
var routeOverrides = map[string]ActionResource{
	"PATCH /api/tasks/{id}/status": {Action: "status_changed", Resource: "task"},
}

// ParseRoute returns action and resource for a method and chi route pattern (e.g. PUT /api/employees/{id}).
// Resource is the first path segment after /api, singularized. Action is get or list for GET (by whether
// the route addresses one item), create for POST, update for PUT/PATCH, delete for DELETE.
func ParseRoute(method, pattern string) ActionResource {
	method = strings.ToUpper(method)
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	segs := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(segs) > 0 && segs[0] == "api" {
		segs = segs[1:]
	}
	if len(segs) == 0 || segs[0] == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	resource := singular(segs[0])
	item := strings.HasPrefix(segs[len(segs)-1], "{")
	var action string
	switch method {
	case "GET":
		action = "list"
		if item {
			action = "get"
		}
	case "POST":
		action = "create"
	case "PUT", "PATCH":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return ActionResource{Action: action, Resource: resource}
}

func singular(s string) string {
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		return s[:len(s)-1]
	}
	return s
}
