package server

import (
	"database/sql"
	"net/http"
	"net/url"
	"strings"

	"stockwatch/internal/handlers/items"
	"stockwatch/internal/response"
	"stockwatch/internal/websocket"
)

// App holds shared dependencies for the application.
type App struct {
	DB    *sql.DB
	Hub   *websocket.Hub
	Items *items.Handler
}

// Handler returns the full HTTP handler: routes wrapped in the middleware
// chain. corsOrigins lists the origins allowed to call the API.
func (a *App) Handler(corsOrigins []string) http.Handler {
	var h http.Handler = a.Routes()
	h = GzipMiddleware(h)
	h = SecurityHeaders(h)
	h = CORS(corsOrigins)(h)
	h = LoggingMiddleware(h)
	return RecoveryMiddleware(h)
}

// Routes registers every endpoint on a new mux.
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.DB.PingContext(r.Context()); err != nil {
			response.Err(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		response.JSON(w, map[string]interface{}{"status": "ok", "ws_clients": a.Hub.ClientCount()})
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleWebSocket(a.Hub, w, r)
	})

	mux.HandleFunc("/api/v1/", a.api)
	return mux
}

func (a *App) api(w http.ResponseWriter, r *http.Request) {
	// Split the escaped path so item names may contain an encoded slash.
	path := strings.Trim(strings.TrimPrefix(r.URL.EscapedPath(), "/api/v1/"), "/")
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			parts[i] = u
		}
	}
	h := a.Items

	switch {
	// Items
	case path == "items/export" && r.Method == "GET":
		h.ExportItems(w, r)
	case path == "items/import" && r.Method == "POST":
		h.ImportItems(w, r)
	case parts[0] == "items" && len(parts) == 1 && r.Method == "GET":
		h.ListItems(w, r)
	case parts[0] == "items" && len(parts) == 1 && r.Method == "POST":
		h.CreateItem(w, r)
	case parts[0] == "items" && len(parts) == 2 && r.Method == "GET":
		h.GetItem(w, r, parts[1])
	case parts[0] == "items" && len(parts) == 2 && r.Method == "PUT":
		h.UpdateItem(w, r, parts[1])
	case parts[0] == "items" && len(parts) == 2 && r.Method == "DELETE":
		h.DeleteItem(w, r, parts[1])

	// Reports
	case path == "chart" && r.Method == "GET":
		h.Chart(w, r)
	case path == "reports/usage" && r.Method == "GET":
		h.UsageReport(w, r)
	case path == "audit" && r.Method == "GET":
		h.AuditLog(w, r)

	// Settings
	case path == "settings" && r.Method == "GET":
		h.GetSettings(w, r)
	case path == "settings" && r.Method == "PUT":
		h.UpdateSettings(w, r)

	// Alerts
	case path == "notifications" && r.Method == "GET":
		h.ListNotifications(w, r)
	case parts[0] == "notifications" && len(parts) == 3 && parts[2] == "read" && r.Method == "POST":
		h.MarkNotificationRead(w, r, parts[1])
	case path == "monitor/check" && r.Method == "POST":
		h.RunMonitor(w, r)

	default:
		response.Err(w, "not found", 404)
	}
}
