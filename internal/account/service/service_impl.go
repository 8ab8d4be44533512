package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/account/password"
	"github.com/voltixaudit/voltix/internal/account/token"
	"github.com/voltixaudit/voltix/internal/clock"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	"github.com/voltixaudit/voltix/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Tokens  *token.Issuer
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	tokens  *token.Issuer
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("account.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		tokens:  p.Tokens,
		metrics: p.Metrics,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.User{}, err
	}
	if !password.Strong(req.Password) {
		return domain.User{}, domain.ErrWeakPassword
	}
	fullName := strings.TrimSpace(req.FullName)
	if len([]rune(fullName)) < 3 {
		return domain.User{}, domain.ErrInvalidFullName
	}
	plan := req.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	if _, ok := domain.LookupPlan(plan); !ok {
		return domain.User{}, domain.ErrUnknownPlan
	}
	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if country == "" {
		country = "BJ"
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrEmailTaken
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.clock.Now()
	user := domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        strings.TrimSpace(req.Phone),
		Country:      country,
		Plan:         plan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}

	s.metrics.RecordSignup(ctx, string(plan))
	s.log.Info("account registered",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", string(plan)),
	)
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, plain string) (domain.Session, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	user, err := s.repo.FindByEmail(ctx, s.db, normalized)
	if err != nil {
		return domain.Session{}, err
	}
	if user == nil || !password.Verify(plain, user.PasswordHash) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	if err := s.expirePlan(ctx, user); err != nil {
		return domain.Session{}, err
	}

	signed, err := s.tokens.Issue(user.ID, string(user.Plan))
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: signed, User: *user}, nil
}

func (s *Service) Authenticate(ctx context.Context, raw string) (snowflake.ID, error) {
	id, err := s.tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	return id, nil
}

func (s *Service) GetUser(ctx context.Context, userID snowflake.ID) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err := s.expirePlan(ctx, user); err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func (s *Service) ProjectLimit(ctx context.Context, userID snowflake.ID) (int, bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	spec, ok := domain.LookupPlan(user.Plan)
	if !ok {
		return 0, false, domain.ErrUnknownPlan
	}
	if spec.MaxActiveProjects == domain.Unlimited {
		return 0, false, nil
	}
	return spec.MaxActiveProjects, true, nil
}

func (s *Service) CheckQuota(ctx context.Context, userID snowflake.ID) (domain.Quota, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.Quota{}, err
	}
	return domain.QuotaFor(user), nil
}

func (s *Service) ConsumeAudit(ctx context.Context, tx *gorm.DB, userID snowflake.ID) error {
	user, err := s.repo.FindByID(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	limit := domain.QuotaFor(*user).Limit
	ok, err := s.repo.IncrementAudits(ctx, tx, userID, limit, s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrQuotaExceeded
	}
	return nil
}

func (s *Service) ResetMonthlyQuotas(ctx context.Context) (int64, error) {
	return s.repo.ResetAudits(ctx, s.db, s.clock.Now())
}

// expirePlan falls back to the free plan once a paid plan is past its expiry.
func (s *Service) expirePlan(ctx context.Context, user *domain.User) error {
	if user.Plan == domain.PlanFree || user.PlanExpiresAt == nil {
		return nil
	}
	now := s.clock.Now()
	if !now.After(*user.PlanExpiresAt) {
		return nil
	}
	if err := s.repo.Downgrade(ctx, s.db, user.ID, now); err != nil {
		return err
	}
	s.log.Info("paid plan expired, downgraded to free",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", string(user.Plan)),
	)
	user.Plan = domain.PlanFree
	user.PlanExpiresAt = nil
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}
