package report

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/clock"
	eadomain "github.com/voltixaudit/voltix/internal/energyaudit/domain"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	"github.com/voltixaudit/voltix/internal/providers/email"
	"github.com/voltixaudit/voltix/internal/providers/pdf"
	recdomain "github.com/voltixaudit/voltix/internal/recommendation/domain"
	"go.uber.org/zap"
)

const (
	ownerID   = snowflake.ID(11)
	projectID = snowflake.ID(42)
)

type inventoryStub struct {
	invdomain.Service
	building *invdomain.Building
}

func (s inventoryStub) GetProject(ctx context.Context, userID, id snowflake.ID) (invdomain.Project, error) {
	if userID != ownerID || id != projectID {
		return invdomain.Project{}, invdomain.ErrNotFound
	}
	return invdomain.Project{ID: projectID, UserID: ownerID, Name: "Clinique Saint-Luc", ClientName: "Dr Houngbo"}, nil
}

func (s inventoryStub) GetBuilding(ctx context.Context, userID, id snowflake.ID) (invdomain.Building, error) {
	if s.building == nil {
		return invdomain.Building{}, invdomain.ErrNotFound
	}
	return *s.building, nil
}

func (s inventoryStub) Stats(ctx context.Context, userID, id snowflake.ID) (invdomain.Stats, error) {
	return invdomain.Stats{Floors: 2, Rooms: 5, Equipment: 17}, nil
}

type auditStub struct {
	eadomain.Service
	result *eadomain.AuditResult
}

func (s auditStub) LatestResult(ctx context.Context, id snowflake.ID) (*eadomain.AuditResult, error) {
	return s.result, nil
}

type recommendationStub struct {
	recdomain.Service
}

func (recommendationStub) List(ctx context.Context, id snowflake.ID) ([]recdomain.Recommendation, error) {
	return []recdomain.Recommendation{
		{Title: "Passer à l'éclairage LED", Priority: recdomain.PriorityHigh, AnnualSaving: 62400, Investment: 104000, PaybackYears: 1.67, CO2ReductionKg: 343.2},
		{Title: "Gestion intelligente", Priority: recdomain.PriorityMedium, AnnualSaving: 31200, Investment: 41600, PaybackYears: 1.33, CO2ReductionKg: 171.6},
	}, nil
}

type accountStub struct {
	accountdomain.Service
	plan accountdomain.Plan
}

func (s accountStub) GetUser(ctx context.Context, id snowflake.ID) (accountdomain.User, error) {
	return accountdomain.User{ID: id, Email: "owner@example.com", FullName: "Afi Dossou", Plan: s.plan}, nil
}

type pdfStub struct {
	last pdf.AuditReport
}

func (p *pdfStub) RenderAudit(ctx context.Context, report pdf.AuditReport) ([]byte, error) {
	p.last = report
	return []byte("%PDF-stub"), nil
}

type mailStub struct {
	sent []email.Message
	err  error
}

func (m *mailStub) Send(ctx context.Context, msg email.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type fixture struct {
	svc  *Service
	pdf  *pdfStub
	mail *mailStub
}

func newFixture(plan accountdomain.Plan, result *eadomain.AuditResult) *fixture {
	renderer := &pdfStub{}
	mail := &mailStub{}
	svc := New(Params{
		Log:             zap.NewNop(),
		Clock:           clock.NewFakeClock(time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)),
		Inventory:       inventoryStub{building: &invdomain.Building{Area: 100}},
		Audits:          auditStub{result: result},
		Recommendations: recommendationStub{},
		Accounts:        accountStub{plan: plan},
		PDF:             renderer,
		Email:           mail,
	})
	return &fixture{svc: svc, pdf: renderer, mail: mail}
}

func sampleResult() *eadomain.AuditResult {
	return &eadomain.AuditResult{
		ProjectID:   projectID,
		AnnualKWh:   2080,
		EnergyClass: "A",
		Score:       100,
		AnnualCO2Kg: 1144,
		AnnualCost:  208000,
		Currency:    "FCFA",
		Density:     20.8,
		AreaUsed:    100,
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     string
	}{
		{0, 0, "0"},
		{999, 0, "999"},
		{1000, 0, "1 000"},
		{208000, 0, "208 000"},
		{1234567.891, 1, "1 234 567.9"},
		{-208000, 0, "-208 000"},
		{-0.04, 1, "0.0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(tc.v, tc.decimals))
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "clinique-saint-luc-20250402.pdf", Filename("Clinique Saint-Luc", at))
	assert.Equal(t, "ecole-primaire-20250402.pdf", Filename("École primaire", at))
	assert.Equal(t, "audit-20250402.pdf", Filename("  ", at))
}

func TestScaleBands(t *testing.T) {
	bands := scaleBands("C")
	require.Len(t, bands, 7)
	assert.Equal(t, "≤ 50", bands[0].Range)
	assert.Equal(t, "50 à 90", bands[1].Range)
	assert.Equal(t, "> 450", bands[6].Range)
	assert.True(t, bands[2].Current)
	assert.False(t, bands[0].Current)
}

func TestRenderMarksFreePlan(t *testing.T) {
	f := newFixture(accountdomain.PlanFree, sampleResult())

	doc, err := f.svc.Render(context.Background(), ownerID, projectID)
	require.NoError(t, err)
	assert.Equal(t, "clinique-saint-luc-20250402.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)

	got := f.pdf.last
	assert.True(t, got.FreeVersion)
	assert.Equal(t, "208 000 FCFA/an", got.Cost)
	assert.Equal(t, "2 080", got.AnnualKWh)
	assert.Equal(t, "20.8", got.Density)
	assert.Equal(t, "02/04/2025", got.GeneratedOn)
	assert.Equal(t, "145 600 FCFA", got.TotalInvestment)
	assert.Empty(t, got.AreaNote)
	require.Len(t, got.Recommendations, 2)
	assert.Equal(t, "haute", got.Recommendations[0].Priority)
	assert.Equal(t, "1.7 ans", got.Recommendations[0].Payback)
}

func TestBuildRequiresAudit(t *testing.T) {
	f := newFixture(accountdomain.PlanPro, nil)
	_, err := f.svc.Build(context.Background(), ownerID, projectID)
	assert.ErrorIs(t, err, ErrNoAuditResult)
}

func TestBuildHidesForeignProject(t *testing.T) {
	f := newFixture(accountdomain.PlanPro, sampleResult())
	_, err := f.svc.Build(context.Background(), snowflake.ID(99), projectID)
	assert.ErrorIs(t, err, invdomain.ErrNotFound)
}

func TestSendRequiresEmailPlan(t *testing.T) {
	f := newFixture(accountdomain.PlanFree, sampleResult())
	err := f.svc.Send(context.Background(), ownerID, projectID)
	assert.ErrorIs(t, err, ErrEmailNotIncluded)
	assert.Empty(t, f.mail.sent)
}

func TestSendAttachesReport(t *testing.T) {
	f := newFixture(accountdomain.PlanPro, sampleResult())

	require.NoError(t, f.svc.Send(context.Background(), ownerID, projectID))
	require.Len(t, f.mail.sent, 1)

	msg := f.mail.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, msg.To)
	assert.Contains(t, msg.HTMLBody, "Afi Dossou")
	assert.Contains(t, msg.HTMLBody, "2 080 kWh/an")
	assert.Contains(t, msg.HTMLBody, "93 600 FCFA/an")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "clinique-saint-luc-20250402.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, []byte("%PDF-stub"), msg.Attachments[0].Data)
	assert.False(t, f.pdf.last.FreeVersion)
}

func TestSendWithoutSMTP(t *testing.T) {
	f := newFixture(accountdomain.PlanEnterprise, sampleResult())
	f.mail.err = email.ErrNotConfigured

	err := f.svc.Send(context.Background(), ownerID, projectID)
	assert.ErrorIs(t, err, ErrDeliveryUnavailable)
}
