package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fundacion/internal"
	"fundacion/internal/metrics"
	"fundacion/internal/utils"
	"fundacion/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type harness struct {
	t       *testing.T
	svc     *Service
	store   *memStore
	tokens  fakeTokens
	metrics *metrics.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	config := &types.Config{
		Environment:         "test",
		ServerPort:          0,
		CookieHashKey:       base64.StdEncoding.EncodeToString([]byte(strings.Repeat("h", 32))),
		CookieBlockKey:      base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 32))),
		MaxPhotoSizeBytes:   1 << 20,
		StripeWebhookSecret: testWebhookSecret,
	}

	store := newMemStore()
	tokens := fakeTokens{}
	registry := metrics.New(metrics.WithoutRuntimeCollectors())

	svc, err := New(config, logger, Dependencies{
		Users:         store,
		Headquarters:  store,
		Beneficiaries: store,
		Evaluations:   store,
		Projects:      store,
		Members:       store,
		Donations:     store,
		Photos:        store,
		Checkout:      store,
		Cognito:       store,
		Tokens:        tokens,
		Metrics:       registry,
	})
	require.NoError(t, err)

	return &harness{t: t, svc: svc, store: store, tokens: tokens, metrics: registry}
}

// login registers a user with the given role and returns its session cookie.
func (h *harness) login(userID string, role types.UserRole, headquarterID string) *http.Cookie {
	h.t.Helper()

	token := "token-" + userID
	h.tokens[token] = &Identity{UserID: userID, Email: userID + "@example.org"}

	user := &types.User{ID: userID, Role: role, Email: utils.StringPtr(userID + "@example.org")}
	if headquarterID != "" {
		user.HeadquarterID = utils.StringPtr(headquarterID)
	}
	h.store.users[userID] = user

	return h.cookieFor(token)
}

func (h *harness) cookieFor(token string) *http.Cookie {
	h.t.Helper()

	value, err := h.svc.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, token)
	require.NoError(h.t, err)
	return &http.Cookie{Name: internal.COOKIE_ACCESS_TOKEN_NAME, Value: value}
}

func (h *harness) do(method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	h.svc.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) seedProject(id, name string, goal float64) *types.Project {
	p := &types.Project{ID: id, Name: name, Category: "Fútbol", FinanceGoal: goal, Status: types.ProjectStatusActive}
	h.store.projects[id] = p
	return p
}

func (h *harness) seedDonation(userID, projectID string, amount string, status types.DonationStatus) {
	row := &types.DonationRow{
		ID:        fmt.Sprintf("seed-%d", len(h.store.donations)+1),
		UserID:    userID,
		Amount:    amount,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if projectID != "" {
		row.ProjectID = utils.StringPtr(projectID)
	}
	h.store.donations = append(h.store.donations, row)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStripTrailingSlash(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz/?x=1", nil, nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/healthz?x=1", rec.Header().Get("Location"))
}

func TestHomeShowsActiveProjectsWithProgress(t *testing.T) {
	h := newHarness(t)
	h.seedProject("p1", "Escuela de fútbol", 1000)
	h.seedProject("p2", "Torneo juvenil", 0)
	h.store.projects["p3"] = &types.Project{ID: "p3", Name: "Proyecto pausado", Status: types.ProjectStatusPaused}
	h.seedDonation("someone", "p1", "250", types.DonationStatusApproved)
	h.seedDonation("someone", "p1", "500", types.DonationStatusPending)

	rec := h.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Escuela de fútbol")
	assert.Contains(t, body, "$250 de $1,000 (25%)")
	assert.Contains(t, body, "sin meta definida")
	assert.NotContains(t, body, "Proyecto pausado")
}

func TestProjectDetailNotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/projects/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/dashboard/donations", nil, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	var redirect *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == internal.COOKIE_REDIRECT_NAME {
			redirect = c
		}
	}
	require.NotNil(t, redirect)
	assert.Equal(t, "/dashboard/donations", redirect.Value)
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/dashboard", nil, h.cookieFor("forged"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRequireAuthCreatesDonatorOnFirstVisit(t *testing.T) {
	h := newHarness(t)
	h.tokens["fresh"] = &Identity{UserID: "new-user", Email: "new@example.org"}

	rec := h.do(http.MethodGet, "/dashboard", nil, h.cookieFor("fresh"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/donations", rec.Header().Get("Location"))

	user, ok := h.store.users["new-user"]
	require.True(t, ok)
	assert.Equal(t, types.UserRoleDonator, user.Role)
}

func TestDashboardRedirectsByRole(t *testing.T) {
	tests := []struct {
		role types.UserRole
		want string
	}{
		{role: types.UserRoleAdmin, want: "/admin/projects"},
		{role: types.UserRoleDirector, want: "/admin/projects"},
		{role: types.UserRoleSiteDirector, want: "/admin/beneficiaries"},
		{role: types.UserRoleDonator, want: "/dashboard/donations"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			h := newHarness(t)
			cookie := h.login("u1", tt.role, "hq1")

			rec := h.do(http.MethodGet, "/dashboard", nil, cookie)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestRequireRoleForbidsDonators(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("donor", types.UserRoleDonator, "")

	for _, path := range []string{"/admin/beneficiaries", "/admin/projects", "/admin/headquarters"} {
		rec := h.do(http.MethodGet, path, nil, cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	siteDirector := h.login("site", types.UserRoleSiteDirector, "hq1")
	rec := h.do(http.MethodGet, "/admin/projects", nil, siteDirector)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.tokens["id:ana@example.org"] = &Identity{UserID: "ana", GivenName: "Ana", FamilyName: "Pérez"}

	form := url.Values{"email": {"ana@example.org"}, "password": {"correct-horse"}}
	rec := h.do(http.MethodPost, "/login", form, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == internal.COOKIE_ACCESS_TOKEN_NAME {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	var token string
	require.NoError(t, h.svc.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, session.Value, &token))
	assert.Equal(t, "access:ana@example.org", token)

	user := h.store.users["ana"]
	require.NotNil(t, user)
	assert.Equal(t, "ana@example.org", *user.Email)
	assert.Equal(t, "Ana", *user.GivenName)
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	form := url.Values{"email": {"ana@example.org"}, "password": {"wrong"}}
	rec := h.do(http.MethodPost, "/login", form, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credenciales inválidas")
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogout(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/logout", url.Values{}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, internal.COOKIE_ACCESS_TOKEN_NAME, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestDonorDashboard(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("donor", types.UserRoleDonator, "")

	h.seedProject("p1", "Escuela de fútbol", 1000)
	h.seedProject("p2", "Torneo juvenil", 100)
	h.store.members["p1"] = []string{"b1", "b2"}
	h.store.members["p2"] = []string{"b2", "b3"}

	h.seedDonation("donor", "p1", "100", types.DonationStatusApproved)
	h.seedDonation("donor", "p2", "300", types.DonationStatusApproved)
	h.seedDonation("donor", "p2", "999", types.DonationStatusPending)
	h.seedDonation("donor", "", "50", types.DonationStatusApproved)
	h.seedDonation("other", "p1", "400", types.DonationStatusApproved)

	rec := h.do(http.MethodGet, "/dashboard/donations", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "$450")
	assert.Contains(t, body, `<span class="value">2</span><span class="label">Proyectos apoyados`)
	assert.Contains(t, body, `<span class="value">3</span><span class="label">Beneficiarios impactados`)
	assert.Contains(t, body, "Fondo general")
	assert.Contains(t, body, "50% de $1,000")
	assert.Contains(t, body, "100% de $100")

	rec = h.do(http.MethodGet, "/metrics", nil, nil)
	assert.Contains(t, rec.Body.String(), "fundacion_donations_stats_duration_seconds_count 1")
}

func TestDonorDashboardLookupFailure(t *testing.T) {
	h := newHarness(t)
	cookie := h.login("donor", types.UserRoleDonator, "")
	h.seedProject("p1", "Escuela de fútbol", 1000)
	h.seedDonation("donor", "p1", "100", types.DonationStatusApproved)
	h.store.raisedErr = errors.New("connection reset")

	rec := h.do(http.MethodGet, "/dashboard/donations", nil, cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Total donado")

	rec = h.do(http.MethodGet, "/metrics", nil, nil)
	assert.Contains(t, rec.Body.String(), "fundacion_donations_stats_failures_total 1")
}
