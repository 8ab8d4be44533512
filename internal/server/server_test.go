package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/clock"
	completenessdomain "github.com/voltixaudit/voltix/internal/completeness/domain"
	eadomain "github.com/voltixaudit/voltix/internal/energyaudit/domain"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	"github.com/voltixaudit/voltix/internal/ratelimit"
	recdomain "github.com/voltixaudit/voltix/internal/recommendation/domain"
	"github.com/voltixaudit/voltix/internal/report"
	"go.uber.org/zap"
)

const (
	ownerID     = snowflake.ID(100)
	strangerID  = snowflake.ID(200)
	projectID   = snowflake.ID(42)
	validToken  = "owner-token"
	otherToken  = "stranger-token"
	projectPath = "/api/projects/42"
)

type fakeAccounts struct {
	accountdomain.Service
	registered []accountdomain.RegisterRequest
}

func (f *fakeAccounts) Register(ctx context.Context, req accountdomain.RegisterRequest) (accountdomain.User, error) {
	if req.Email == "taken@example.com" {
		return accountdomain.User{}, accountdomain.ErrEmailTaken
	}
	f.registered = append(f.registered, req)
	return accountdomain.User{ID: ownerID, Email: req.Email}, nil
}

func (f *fakeAccounts) Login(ctx context.Context, email, password string) (accountdomain.Session, error) {
	if password != "correct-horse" {
		return accountdomain.Session{}, accountdomain.ErrInvalidCredentials
	}
	return accountdomain.Session{Token: validToken, User: accountdomain.User{ID: ownerID, Email: email}}, nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, token string) (snowflake.ID, error) {
	switch token {
	case validToken:
		return ownerID, nil
	case otherToken:
		return strangerID, nil
	}
	return 0, accountdomain.ErrInvalidToken
}

func (f *fakeAccounts) GetUser(ctx context.Context, id snowflake.ID) (accountdomain.User, error) {
	return accountdomain.User{ID: id, Plan: accountdomain.PlanFree}, nil
}

func (f *fakeAccounts) CheckQuota(ctx context.Context, id snowflake.ID) (accountdomain.Quota, error) {
	return accountdomain.QuotaFor(accountdomain.User{Plan: accountdomain.PlanFree, AuditsUsed: 1}), nil
}

type fakeInventory struct {
	invdomain.Service
	lastEquipment invdomain.AddEquipmentRequest
}

func (f *fakeInventory) GetProject(ctx context.Context, userID, id snowflake.ID) (invdomain.Project, error) {
	if userID != ownerID || id != projectID {
		return invdomain.Project{}, invdomain.ErrNotFound
	}
	return invdomain.Project{ID: projectID, UserID: ownerID, Name: "Clinique"}, nil
}

func (f *fakeInventory) AddEquipment(ctx context.Context, req invdomain.AddEquipmentRequest) (invdomain.Equipment, error) {
	f.lastEquipment = req
	if req.UnitWatts <= 0 {
		return invdomain.Equipment{}, invdomain.ErrInvalidWattage
	}
	return invdomain.Equipment{ID: 7, RoomID: req.RoomID, Name: req.Name, UnitWatts: req.UnitWatts}, nil
}

func (f *fakeInventory) CreateProject(ctx context.Context, req invdomain.CreateProjectRequest) (invdomain.Project, error) {
	return invdomain.Project{}, invdomain.ErrProjectLimit
}

func (f *fakeInventory) CreateBuilding(ctx context.Context, req invdomain.CreateBuildingRequest) (invdomain.Building, error) {
	return invdomain.Building{}, invdomain.ErrBuildingExists
}

type fakeCompleteness struct {
	completenessdomain.Service
	onlyOpen bool
}

func (f *fakeCompleteness) List(ctx context.Context, userID, id snowflake.ID, onlyOpen bool) ([]completenessdomain.Alert, error) {
	f.onlyOpen = onlyOpen
	return []completenessdomain.Alert{{ID: 1, ProjectID: id, Kind: completenessdomain.AlertMissingBuilding}}, nil
}

func (f *fakeCompleteness) Resolve(ctx context.Context, userID, alertID snowflake.ID) error {
	return completenessdomain.ErrAlreadyResolved
}

type fakeAudits struct {
	eadomain.Service
	err    error
	latest *eadomain.AuditResult
	last   eadomain.RunRequest
}

func (f *fakeAudits) RunAudit(ctx context.Context, req eadomain.RunRequest) (eadomain.Outcome, error) {
	f.last = req
	if f.err != nil {
		reason, _ := eadomain.ReasonOf(f.err)
		return eadomain.Outcome{FailureReason: reason}, f.err
	}
	result := &eadomain.AuditResult{ProjectID: req.ProjectID, EnergyClass: "B", AnnualKWh: 7488}
	return eadomain.Outcome{Success: true, Result: result}, nil
}

func (f *fakeAudits) LatestResult(ctx context.Context, id snowflake.ID) (*eadomain.AuditResult, error) {
	return f.latest, nil
}

type fakeRecommendations struct {
	recdomain.Service
}

func (fakeRecommendations) Summary(ctx context.Context, id snowflake.ID) (recdomain.Summary, error) {
	return recdomain.Summary{TotalInvestment: 1000, TotalAnnualSaving: 500, PaybackYears: 2}, nil
}

type fakeReports struct {
	sendErr error
}

func (fakeReports) Render(ctx context.Context, userID, id snowflake.ID) (report.Document, error) {
	return report.Document{Filename: "clinique-20250402.pdf", ContentType: "application/pdf", Content: []byte("%PDF")}, nil
}

func (f fakeReports) Send(ctx context.Context, userID, id snowflake.ID) error {
	return f.sendErr
}

type harness struct {
	router    *gin.Engine
	accounts  *fakeAccounts
	inventory *fakeInventory
	alerts    *fakeCompleteness
	audits    *fakeAudits
	reports   *fakeReports
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		router:    gin.New(),
		accounts:  &fakeAccounts{},
		inventory: &fakeInventory{},
		alerts:    &fakeCompleteness{},
		audits:    &fakeAudits{},
		reports:   &fakeReports{},
	}
	h.router.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:          h.router,
		log:             zap.NewNop(),
		accounts:        h.accounts,
		inventory:       h.inventory,
		completeness:    h.alerts,
		audits:          h.audits,
		recommendations: fakeRecommendations{},
		reports:         h.reports,
		authLimiter: ratelimit.NewAuthLimiter(
			ratelimit.NewLocalBucket(clock.NewFakeClock(time.Now()), 16),
			ratelimit.Policy{Rate: 0.01, Burst: 2},
		),
	}
	srv.registerAuthRoutes()
	srv.registerAPIRoutes()
	srv.registerFallback()
	return h
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Error
}

func TestSignupReturnsSession(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/signup", "", `{"email":"a@example.com","password":"correct-horse","full_name":" Afi ","country":"BJ"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), validToken)
	require.Len(t, h.accounts.registered, 1)
	assert.Equal(t, "Afi", h.accounts.registered[0].FullName)
}

func TestSignupDuplicateEmail(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/signup", "", `{"email":"taken@example.com","password":"correct-horse","full_name":"Afi"}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "email_taken", decodeError(t, resp).Type)
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 2; i++ {
		resp := h.do(http.MethodPost, "/api/login", "", `{"email":"a@example.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	resp := h.do(http.MethodPost, "/api/login", "", `{"email":"a@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/me", "bogus", "").Code)

	resp := h.do(http.MethodGet, "/api/me", validToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"remaining":2`)
}

func TestForeignProjectIsNotFound(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, projectPath+"/results/latest", otherToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMalformedID(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/api/projects/abc", validToken, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "id", payload.Errors[0].Field)
}

func TestAddEquipmentValidation(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/rooms/9/equipment", validToken, `{"name":" Climatiseur ","unit_watts":0,"quantity":1}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeError(t, resp)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "unit_watts", payload.Errors[0].Field)
	assert.Equal(t, "Climatiseur", h.inventory.lastEquipment.Name)
	assert.Equal(t, ownerID, h.inventory.lastEquipment.UserID)

	resp = h.do(http.MethodPost, "/api/rooms/9/equipment", validToken, `{"name":"Climatiseur","unit_watts":1500,"quantity":1,"daily_hours":8,"weekly_days":5}`)
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestCreateBuildingConflict(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, projectPath+"/building", validToken, `{"area_m2":120}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "building_exists", decodeError(t, resp).Type)
}

func TestCreateProjectOverPlanCap(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/projects", validToken, `{"name":"Quatrième site"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "project_limit_reached", decodeError(t, resp).Type)
}

func TestListAlertsDefaultsToOpen(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, projectPath+"/alerts", validToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, h.alerts.onlyOpen)

	resp = h.do(http.MethodGet, projectPath+"/alerts?open=false", validToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, h.alerts.onlyOpen)

	resp = h.do(http.MethodGet, projectPath+"/alerts?open=maybe", validToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestResolveAlreadyResolved(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/alerts/5/resolve", validToken, "")
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRunAudit(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, projectPath+"/audit", validToken, `{"country_code":"sn"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "sn", h.audits.last.CountryCode)
	assert.Equal(t, ownerID, h.audits.last.UserID)
	assert.Contains(t, resp.Body.String(), `"energy_class":"B"`)

	resp = h.do(http.MethodPost, projectPath+"/audit", validToken, "")
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Empty(t, h.audits.last.CountryCode)
}

func TestRunAuditFailures(t *testing.T) {
	cases := []struct {
		reason eadomain.FailureReason
		status int
	}{
		{eadomain.ReasonMissingBuilding, http.StatusUnprocessableEntity},
		{eadomain.ReasonNoEquipmentData, http.StatusUnprocessableEntity},
		{eadomain.ReasonQuotaExceeded, http.StatusForbidden},
		{eadomain.ReasonAuditInProgress, http.StatusConflict},
		{eadomain.ReasonProjectArchived, http.StatusConflict},
		{eadomain.ReasonProjectNotFound, http.StatusNotFound},
		{eadomain.ReasonPersistenceError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			h := newHarness(t)
			h.audits.err = eadomain.NewFailure(tc.reason, eadomain.StageAggregating, nil)

			resp := h.do(http.MethodPost, projectPath+"/audit", validToken, "")
			assert.Equal(t, tc.status, resp.Code)
			if tc.status != http.StatusInternalServerError {
				assert.Equal(t, string(tc.reason), decodeError(t, resp).Type)
			}
		})
	}
}

func TestLatestResultMissing(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, projectPath+"/results/latest", validToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	h.audits.latest = &eadomain.AuditResult{ProjectID: projectID, EnergyClass: "C"}
	resp = h.do(http.MethodGet, projectPath+"/results/latest", validToken, "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRecommendationSummary(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, projectPath+"/recommendations/summary", validToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"payback_years":2`)
}

func TestDownloadReport(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, projectPath+"/report.pdf", validToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="clinique-20250402.pdf"`, resp.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", resp.Body.String())
}

func TestSendReportErrors(t *testing.T) {
	h := newHarness(t)

	h.reports.sendErr = report.ErrEmailNotIncluded
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, projectPath+"/report/send", validToken, "").Code)

	h.reports.sendErr = report.ErrDeliveryUnavailable
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, projectPath+"/report/send", validToken, "").Code)

	h.reports.sendErr = nil
	assert.Equal(t, http.StatusAccepted, h.do(http.MethodPost, projectPath+"/report/send", validToken, "").Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/nope", "", "").Code)
}

func TestClassifyErrorForLog(t *testing.T) {
	typ, code := classifyErrorForLog(invdomain.ErrInvalidArea)
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "invalid_area", code)

	typ, code = classifyErrorForLog(eadomain.NewFailure(eadomain.ReasonPersistenceError, eadomain.StageSynthesizing, assert.AnError))
	assert.Equal(t, "internal_error", typ)
	assert.Equal(t, "persistence_error", code)
}
