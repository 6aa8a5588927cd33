package dashboard

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"metricsdash/internal/websession"
)

//go:embed templates/page.html
var templateFS embed.FS

// CookieName is the browser cookie holding the signed session id.
const CookieName = "metricsdash_session"

type Handler struct {
	Sessions *websession.Cookies[*View]
	Logger   *slog.Logger
	page     *template.Template
}

func NewHandler(sessions *websession.Cookies[*View], logger *slog.Logger) (*Handler, error) {
	page, err := template.New("page.html").Funcs(template.FuncMap{
		"metricsURL": func(query string) string { return "/metrics?" + query },
	}).ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, err
	}
	return &Handler{Sessions: sessions, Logger: logger, page: page}, nil
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*View, bool) {
	v, ok := websession.FromContext[*View](r.Context())
	if !ok {
		h.Logger.Error("dashboard request without session", "path", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}
	return v, true
}

// Index draws the current state without reloading.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	h.render(w, v.Page())
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := h.Sessions.Start(w, r, v); err != nil {
		h.Logger.Error("start dashboard session", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	v.Login(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.Logout()
	h.Sessions.End(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Metrics applies the filter and sort parameters of the request and
// reloads. Filter changes, header clicks and the load button land here.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	v.Apply(r.Context(), r.URL.Query())
	h.render(w, v.Page())
}

// TableJSON is Metrics for programmatic clients.
func (h *Handler) TableJSON(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	st := v.Apply(r.Context(), r.URL.Query())
	code := http.StatusOK
	switch {
	case !v.Session.Authenticated():
		code = http.StatusUnauthorized
	case st.Kind == StatusInvalid:
		code = http.StatusBadRequest
	case st.Kind == StatusError:
		code = http.StatusBadGateway
	}
	writeJSON(w, code, map[string]any{
		"status": st,
		"query":  v.Metrics.State(),
		"table":  v.Table(),
	}, h.Logger)
}

func (h *Handler) render(w http.ResponseWriter, p Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, p); err != nil {
		h.Logger.Error("render dashboard", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("encode JSON response", "err", err)
	}
}
