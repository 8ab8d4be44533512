// Package report assembles audit data into a PDF and delivers it by email.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/classification"
	"github.com/voltixaudit/voltix/internal/clock"
	eadomain "github.com/voltixaudit/voltix/internal/energyaudit/domain"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	"github.com/voltixaudit/voltix/internal/providers/email"
	"github.com/voltixaudit/voltix/internal/providers/pdf"
	recdomain "github.com/voltixaudit/voltix/internal/recommendation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const contentTypePDF = "application/pdf"

var (
	ErrNoAuditResult       = errors.New("no_audit_result")
	ErrEmailNotIncluded    = errors.New("email_not_included_in_plan")
	ErrDeliveryUnavailable = errors.New("email_delivery_unavailable")
)

// Data is everything a report shows about one project.
type Data struct {
	Project         invdomain.Project
	Building        *invdomain.Building
	Stats           invdomain.Stats
	Result          eadomain.AuditResult
	Recommendations []recdomain.Recommendation
	Summary         recdomain.Summary
	GeneratedAt     time.Time
}

type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	Inventory       invdomain.Service
	Audits          eadomain.Service
	Recommendations recdomain.Service
	Accounts        accountdomain.Service
	PDF             pdf.Provider
	Email           email.Provider
	Metrics         *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log             *zap.Logger
	clock           clock.Clock
	inventory       invdomain.Service
	audits          eadomain.Service
	recommendations recdomain.Service
	accounts        accountdomain.Service
	pdf             pdf.Provider
	email           email.Provider
	metrics         *obsmetrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		log:             p.Log.Named("report.service"),
		clock:           p.Clock,
		inventory:       p.Inventory,
		audits:          p.Audits,
		recommendations: p.Recommendations,
		accounts:        p.Accounts,
		pdf:             p.PDF,
		email:           p.Email,
		metrics:         p.Metrics,
	}
}

// Build gathers the report data for a project owned by userID.
func (s *Service) Build(ctx context.Context, userID, projectID snowflake.ID) (Data, error) {
	project, err := s.inventory.GetProject(ctx, userID, projectID)
	if err != nil {
		return Data{}, err
	}

	data := Data{Project: project, GeneratedAt: s.clock.Now()}
	building, err := s.inventory.GetBuilding(ctx, userID, projectID)
	switch {
	case err == nil:
		data.Building = &building
	case !errors.Is(err, invdomain.ErrNotFound):
		return Data{}, err
	}

	if data.Stats, err = s.inventory.Stats(ctx, userID, projectID); err != nil {
		return Data{}, err
	}

	result, err := s.audits.LatestResult(ctx, projectID)
	if err != nil {
		return Data{}, err
	}
	if result == nil {
		return Data{}, ErrNoAuditResult
	}
	data.Result = *result

	if data.Recommendations, err = s.recommendations.List(ctx, projectID); err != nil {
		return Data{}, err
	}
	data.Summary = recdomain.Summarize(data.Recommendations)
	return data, nil
}

// RenderPDF lays data out as a PDF. The free plan carries a watermark footer.
func (s *Service) RenderPDF(ctx context.Context, data Data, plan accountdomain.Plan) (Document, error) {
	content, err := s.pdf.RenderAudit(ctx, toAuditReport(data, plan))
	if err != nil {
		return Document{}, fmt.Errorf("render report: %w", err)
	}
	s.metrics.RecordReportRendered(ctx, string(plan))
	return Document{
		Filename:    Filename(data.Project.Name, data.GeneratedAt),
		ContentType: contentTypePDF,
		Content:     content,
	}, nil
}

// Render builds and renders the report using the caller's plan.
func (s *Service) Render(ctx context.Context, userID, projectID snowflake.ID) (Document, error) {
	user, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	data, err := s.Build(ctx, userID, projectID)
	if err != nil {
		return Document{}, err
	}
	return s.RenderPDF(ctx, data, user.Plan)
}

// Send emails the report to the account owner. Only plans with email
// delivery may use it.
func (s *Service) Send(ctx context.Context, userID, projectID snowflake.ID) error {
	user, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	spec, ok := accountdomain.LookupPlan(user.Plan)
	if !ok || !spec.EmailDelivery {
		return ErrEmailNotIncluded
	}

	data, err := s.Build(ctx, userID, projectID)
	if err != nil {
		return err
	}
	doc, err := s.RenderPDF(ctx, data, user.Plan)
	if err != nil {
		return err
	}

	body, err := emailBody(user, data)
	if err != nil {
		return err
	}
	err = s.email.Send(ctx, email.Message{
		To:       []string{user.Email},
		Subject:  "Votre rapport d'audit est prêt",
		HTMLBody: body,
		Attachments: []email.Attachment{
			{Filename: doc.Filename, ContentType: doc.ContentType, Data: doc.Content},
		},
	})
	if err != nil {
		s.metrics.RecordReportEmailed(ctx, "failed")
		s.log.Warn("report email failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
		if errors.Is(err, email.ErrNotConfigured) {
			return ErrDeliveryUnavailable
		}
		return err
	}

	s.metrics.RecordReportEmailed(ctx, "sent")
	s.log.Info("report emailed",
		zap.String("project_id", projectID.String()),
		zap.String("filename", doc.Filename),
	)
	return nil
}

var emailTemplate = template.Must(template.New("report").Parse(`<h2>Votre rapport d'audit est prêt !</h2>
<p>Bonjour <strong>{{.Name}}</strong>,</p>
<p>Votre rapport d'audit énergétique pour <strong>{{.Project}}</strong> a été généré avec succès.</p>
<p><strong>Résultats clés :</strong></p>
<ul>
  <li>Classe énergétique : <strong style="color: {{.Color}};">{{.Class}}</strong></li>
  <li>Consommation : {{.KWh}} kWh/an</li>
  <li>Score de performance : {{.Score}}/100</li>
  <li>Économies potentielles : {{.Saving}}/an</li>
</ul>
<p>Le rapport PDF complet est disponible en pièce jointe.</p>
<p>Merci d'utiliser Voltix Audit !</p>
`))

func emailBody(user accountdomain.User, data Data) (string, error) {
	class := classification.Class(data.Result.EnergyClass)
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, map[string]any{
		"Name":    user.FullName,
		"Project": data.Project.Name,
		"Class":   data.Result.EnergyClass,
		"Color":   template.CSS(class.Color()),
		"KWh":     FormatNumber(data.Result.AnnualKWh, 0),
		"Score":   data.Result.Score,
		"Saving":  formatMoney(data.Summary.TotalAnnualSaving, data.Result.Currency),
	})
	if err != nil {
		return "", fmt.Errorf("email body: %w", err)
	}
	return buf.String(), nil
}
