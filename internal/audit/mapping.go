package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for an HTTP method and path.
// Ingest is the write surface; everything under /devices is the query surface.
func ParseRoute(method, path string) ActionResource {
	path = strings.TrimSuffix(path, "/")
	switch {
	case method == "POST" && path == "/ingest":
		return ActionResource{Action: "ingest", Resource: "report"}
	case method == "GET" && path == "/devices":
		return ActionResource{Action: "list", Resource: "device"}
	case method == "GET" && strings.HasPrefix(path, "/devices/") && strings.HasSuffix(path, "/latest"):
		return ActionResource{Action: "get_latest", Resource: "report"}
	case method == "GET" && strings.HasPrefix(path, "/devices/") && strings.HasSuffix(path, "/reports"):
		return ActionResource{Action: "list_history", Resource: "report"}
	case method == "GET" && path == "/healthz":
		return ActionResource{Action: "health", Resource: "server"}
	default:
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
}
