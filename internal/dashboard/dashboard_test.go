package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"metricsdash/internal/apiclient"
	"metricsdash/internal/format"
	"metricsdash/internal/websession"
)

type fakeAPI struct {
	mu         sync.Mutex
	loginResp  apiclient.LoginResponse
	loginErr   error
	loginCalls int
	rows       []apiclient.Row
	metricsErr error
	queries    []url.Values
}

func (f *fakeAPI) Login(ctx context.Context, cred apiclient.Credential) (apiclient.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Metrics(ctx context.Context, token string, params url.Values) ([]apiclient.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, params)
	return f.rows, f.metricsErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestView(t *testing.T, api *fakeAPI) *View {
	t.Helper()
	money, err := format.NewCurrency("pt-BR", "BRL", "")
	if err != nil {
		t.Fatal(err)
	}
	return NewView(api, money, "asc", discardLogger())
}

func adminAPI() *fakeAPI {
	return &fakeAPI{
		loginResp: apiclient.LoginResponse{AccessToken: "tok1", Role: "admin"},
		rows: []apiclient.Row{
			apiclient.NewRow("date", "2024-01-01", "cost_micros", 2500000.0, "clicks", 7.0),
		},
	}
}

func TestLoginAutoLoadsMetrics(t *testing.T) {
	api := adminAPI()
	v := newTestView(t, api)

	st := v.Login(context.Background(), "a@b.com", "x")
	if st.Kind != StatusSuccess || st.Message != "Metrics loaded. (1 row)" {
		t.Fatalf("status = %+v", st)
	}
	if len(api.queries) != 1 {
		t.Fatalf("metrics requests = %d", len(api.queries))
	}
	p := v.Page()
	if !p.Authenticated || !p.CanLoad || p.Role != "ADMIN" {
		t.Fatalf("page = %+v", p)
	}
	if p.Table.Rows[0][1].Text != "R$ 2,50" {
		t.Fatalf("cost cell = %+v", p.Table.Rows[0][1])
	}
}

func TestLoginValidation(t *testing.T) {
	api := adminAPI()
	v := newTestView(t, api)
	st := v.Login(context.Background(), "", "x")
	if st.Message != "Please fill in email and password." {
		t.Fatalf("status = %+v", st)
	}
	if api.loginCalls != 0 {
		t.Fatal("validation failure reached the API")
	}
}

func TestLoginRejected(t *testing.T) {
	api := adminAPI()
	v := newTestView(t, api)
	if st := v.Login(context.Background(), "a@b.com", "x"); st.Kind != StatusSuccess {
		t.Fatalf("first login = %+v", st)
	}

	api.loginErr = &apiclient.APIError{StatusCode: 401, Detail: "Credenciais inválidas"}
	st := v.Login(context.Background(), "a@b.com", "bad")
	if st.Kind != StatusError || st.Message != "Login error: Credenciais inválidas" {
		t.Fatalf("status = %+v", st)
	}
	p := v.Page()
	if p.Authenticated || p.CanLoad {
		t.Fatal("session survived rejected login")
	}
	if p.Table.Placeholder != "Log in to load the metrics." {
		t.Fatalf("table = %+v", p.Table)
	}
}

func TestLoginRejectedWithoutDetail(t *testing.T) {
	api := adminAPI()
	api.loginErr = &apiclient.APIError{StatusCode: 401}
	st := newTestView(t, api).Login(context.Background(), "a@b.com", "bad")
	if st.Message != "Login error: Invalid credentials." {
		t.Fatalf("status = %+v", st)
	}
}

func TestLoginConnectionFailure(t *testing.T) {
	api := adminAPI()
	api.loginErr = apiclient.ErrConnection
	v := newTestView(t, api)
	st := v.Login(context.Background(), "a@b.com", "x")
	if st.Message != "Could not reach the API. Check that the server is running." {
		t.Fatalf("status = %+v", st)
	}
	if v.Session.Authenticated() {
		t.Fatal("token present after connection failure")
	}
}

func TestLoadWithoutLogin(t *testing.T) {
	api := adminAPI()
	v := newTestView(t, api)
	st := v.Load(context.Background())
	if st.Kind != StatusWarning || st.Message != "You need to log in first." {
		t.Fatalf("status = %+v", st)
	}
	if len(api.queries) != 0 {
		t.Fatal("request sent without login")
	}
}

func TestLoadFailureShowsErrorRow(t *testing.T) {
	api := adminAPI()
	v := newTestView(t, api)
	v.Login(context.Background(), "a@b.com", "x")

	api.metricsErr = &apiclient.APIError{StatusCode: 401, Detail: "Token inválido"}
	st := v.Load(context.Background())
	if st.Message != "Error loading metrics: Token inválido" {
		t.Fatalf("status = %+v", st)
	}
	if v.Table().Error != "Token inválido" {
		t.Fatalf("table = %+v", v.Table())
	}

	api.metricsErr = apiclient.ErrConnection
	if st := v.Load(context.Background()); st.Message != "Network error while fetching metrics." {
		t.Fatalf("status = %+v", st)
	}
}

func TestApplyInvalidFilter(t *testing.T) {
	api := adminAPI()
	v := newTestView(t, api)
	v.Login(context.Background(), "a@b.com", "x")

	st := v.Apply(context.Background(), url.Values{"sort_order": {"sideways"}})
	if st.Kind != StatusInvalid || !strings.HasPrefix(st.Message, "Invalid filter:") {
		t.Fatalf("status = %+v", st)
	}
	if len(api.queries) != 1 {
		t.Fatalf("invalid filter triggered a request")
	}
}

func TestApplyDateChangeAlwaysReloads(t *testing.T) {
	api := adminAPI()
	v := newTestView(t, api)
	v.Login(context.Background(), "a@b.com", "x")

	st := v.Apply(context.Background(), url.Values{"start_date": {"2024-02-01"}, "end_date": {"2024-01-01"}})
	if st.Kind != StatusSuccess {
		t.Fatalf("status = %+v", st)
	}
	if len(api.queries) != 2 {
		t.Fatalf("metrics requests = %d, want reload", len(api.queries))
	}
	last := api.queries[1]
	if last.Get("start_date") != "2024-02-01" || last.Get("end_date") != "2024-01-01" {
		t.Fatalf("dates not forwarded: %v", last)
	}

	api.metricsErr = &apiclient.APIError{StatusCode: 422, Detail: "end_date before start_date"}
	st = v.Apply(context.Background(), url.Values{"end_date": {"2023-12-31"}})
	if st.Message != "Error loading metrics: end_date before start_date" {
		t.Fatalf("status = %+v", st)
	}
	if v.Table().Error != "end_date before start_date" {
		t.Fatalf("stale table kept after rejected range: %+v", v.Table())
	}
}

func newTestServer(t *testing.T, api *fakeAPI) (http.Handler, *websession.Registry[*View]) {
	t.Helper()
	money, err := format.NewCurrency("pt-BR", "BRL", "")
	if err != nil {
		t.Fatal(err)
	}
	reg := websession.NewRegistry(func() *View { return NewView(api, money, "asc", discardLogger()) })
	cookies := websession.NewCookies(websession.NewSigner("secret", time.Hour), reg, CookieName, discardLogger())
	h, err := NewHandler(cookies, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("/login", h.Login)
	mux.HandleFunc("/logout", h.Logout)
	mux.HandleFunc("/metrics", h.Metrics)
	mux.HandleFunc("/metrics/table.json", h.TableJSON)
	return cookies.Middleware(mux), reg
}

func do(t *testing.T, h http.Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postLogin(t *testing.T, h http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, h, req, nil)
}

func TestHandlersLoginAndSort(t *testing.T) {
	api := adminAPI()
	h, _ := newTestServer(t, api)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	body := rec.Body.String()
	if !strings.Contains(body, `action="/login"`) || !strings.Contains(body, "disabled") {
		t.Fatalf("logged-out page missing login form or disabled load button")
	}

	rec = postLogin(t, h, "a@b.com", "x")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookie := rec.Result().Cookies()[0]

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	body = rec.Body.String()
	for _, want := range []string{"ADMIN", "Cost Micros", "R$ 2,50", "sort_by=clicks"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/metrics?sort_by=date&sort_order=desc", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	last := api.queries[len(api.queries)-1]
	if last.Get("sort_by") != "date" || last.Get("sort_order") != "desc" {
		t.Fatalf("last query = %v", last)
	}
}

func TestTableJSONUnauthenticated(t *testing.T) {
	api := adminAPI()
	h, _ := newTestServer(t, api)
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/metrics/table.json", nil), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You need to log in first.") {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if len(api.queries) != 0 {
		t.Fatal("request sent without login")
	}
}

func TestLogoutEndsSession(t *testing.T) {
	api := adminAPI()
	h, reg := newTestServer(t, api)
	rec := postLogin(t, h, "a@b.com", "x")
	cookie := rec.Result().Cookies()[0]
	if reg.Len() != 1 {
		t.Fatalf("sessions = %d after login", reg.Len())
	}

	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/logout", nil), cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if reg.Len() != 0 {
		t.Fatalf("sessions = %d after logout", reg.Len())
	}
}
