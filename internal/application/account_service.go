package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/internal/domain/repository"
	"github.com/campuskit/campus-api/pkg/credential"
	"github.com/campuskit/campus-api/pkg/helpers"
	"github.com/campuskit/campus-api/pkg/mailer"
)

// AccountService owns the account lifecycle: registration, email activation,
// password reset, admin approval, deactivation and soft delete. It holds no
// state between calls; atomicity of token consumption lives in the
// repositories.
type AccountService struct {
	Users  repository.UserRepository
	Tokens repository.TokenRepository

	Hasher        *credential.Hasher
	ActivationOTP *credential.OTPIssuer
	ResetOTP      *credential.OTPIssuer

	// RequireApproval inserts the admin approval step between activation and
	// Active. ProfileFirst selects the profile-first onboarding variant.
	RequireApproval bool
	ProfileFirst    bool

	Pub          *helpers.RabbitPublisher
	MailEnabled  bool
	SchoolName   string
	SupportURL   string
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Password  string
}

// Register creates an account in the initial pending state of the configured
// onboarding variant. Email-first accounts get an activation code right away;
// profile-first accounts go straight to PendingProfileInformation.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := entity.NormalizeEmail(in.Email)
	if existing, err := s.Users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	status := entity.StatusPendingEmail
	if s.ProfileFirst {
		status = entity.StatusPendingProfile
	}
	u := &entity.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     email,
		Password:  hash,
		Status:    status,
		Role:      entity.RoleStudent,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "status": u.Status}).Info("user registered")

	if status == entity.StatusPendingEmail {
		if err := s.issueAndSendCode(ctx, u, entity.PurposeAccountActivation); err != nil {
			return nil, err
		}
	}

	s.indexUser(ctx, u)
	return u, nil
}

// ResendActivation supersedes the previous activation code with a fresh one.
// Valid only while the account is still waiting on email activation.
func (s *AccountService) ResendActivation(ctx context.Context, email string) error {
	u, err := s.getByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.Status != entity.StatusPendingEmail {
		return entity.ErrInvalidStateTransition
	}
	return s.issueAndSendCode(ctx, u, entity.PurposeAccountActivation)
}

// ActivateEmail verifies the submitted activation code and flips the account
// out of PendingEmailActivation. Code consumption and the status change are
// one transaction; a lost race surfaces as ErrTokenExpiredOrConsumed.
func (s *AccountService) ActivateEmail(ctx context.Context, email, code string) (*entity.User, error) {
	u, err := s.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	tok, err := s.activeToken(ctx, u.ID, entity.PurposeAccountActivation)
	if err != nil {
		return nil, err
	}
	if !s.ActivationOTP.Matches(code, tok.TokenHash) {
		return nil, ErrCodeMismatch
	}

	next := entity.StatusActive
	if s.RequireApproval {
		next = entity.StatusPendingApproval
	}
	if err := u.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.consume(ctx, tok.ID, u); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "status": u.Status}).Info("email activated")

	if u.Status == entity.StatusActive {
		s.enqueueMail(ctx, u, mailer.TemplateAccountApproved, nil)
	}
	s.indexUser(ctx, u)
	return u, nil
}

// CompleteProfile finishes profile-first onboarding: fills in the profile
// fields and moves the account to approval (or straight to Active).
func (s *AccountService) CompleteProfile(ctx context.Context, userID string, in RegisterInput) (*entity.User, error) {
	u, err := s.getByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := entity.StatusActive
	if s.RequireApproval {
		next = entity.StatusPendingApproval
	}
	if u.Status != entity.StatusPendingProfile {
		return nil, entity.ErrInvalidStateTransition
	}
	if err := u.TransitionTo(next); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(in.FirstName); v != "" {
		u.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		u.LastName = v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		u.Phone = v
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "status": u.Status}).Info("profile completed")

	if u.Status == entity.StatusActive {
		s.enqueueMail(ctx, u, mailer.TemplateAccountApproved, nil)
	}
	s.indexUser(ctx, u)
	return u, nil
}

// RequestPasswordReset issues a reset code for the account. Callers that must
// not leak account existence swallow ErrUserNotFound.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.getByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.issueAndSendCode(ctx, u, entity.PurposePasswordReset)
}

// ConfirmPasswordReset verifies the reset code and replaces the stored
// password hash. Consumption and the password change are one transaction.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	u, err := s.getByEmail(ctx, email)
	if err != nil {
		return err
	}

	tok, err := s.activeToken(ctx, u.ID, entity.PurposePasswordReset)
	if err != nil {
		return err
	}
	if !s.ResetOTP.Matches(code, tok.TokenHash) {
		return ErrCodeMismatch
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	if err := s.consume(ctx, tok.ID, u); err != nil {
		return err
	}
	s.Logger.WithField("user_id", u.ID).Info("password reset")
	return nil
}

// Approve moves an account out of PendingApproval into Active.
func (s *AccountService) Approve(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.transition(ctx, userID, entity.StatusActive)
	if err != nil {
		return nil, err
	}
	s.enqueueMail(ctx, u, mailer.TemplateAccountApproved, nil)
	return u, nil
}

// Deny rejects an account waiting for approval.
func (s *AccountService) Deny(ctx context.Context, userID string) (*entity.User, error) {
	return s.transition(ctx, userID, entity.StatusDenied)
}

// Deactivate suspends an active account; Reactivate is the inverse.
func (s *AccountService) Deactivate(ctx context.Context, userID string) (*entity.User, error) {
	return s.transition(ctx, userID, entity.StatusDeactivated)
}

func (s *AccountService) Reactivate(ctx context.Context, userID string) (*entity.User, error) {
	return s.transition(ctx, userID, entity.StatusActive)
}

// SoftDelete marks the account Deleted and stamps DeletedAt; the row stays.
func (s *AccountService) SoftDelete(ctx context.Context, userID string) error {
	u, err := s.getByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.SoftDelete(time.Now()); err != nil {
		return err
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return err
	}
	s.Logger.WithField("user_id", u.ID).Info("user soft-deleted")
	s.removeFromIndex(ctx, u.ID)
	return nil
}

func (s *AccountService) List(ctx context.Context, limit, offset int) ([]entity.User, error) {
	return s.Users.List(ctx, limit, offset)
}

// --- internals ---

func (s *AccountService) getByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *AccountService) getByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *AccountService) transition(ctx context.Context, userID string, next entity.Status) (*entity.User, error) {
	u, err := s.getByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "status": u.Status}).Info("status changed")
	s.indexUser(ctx, u)
	return u, nil
}

// activeToken loads the current active token and checks expiry/consumption
// before any digest comparison, so an expired-but-correct code reports
// "request a new code" rather than "wrong code".
func (s *AccountService) activeToken(ctx context.Context, userID string, purpose entity.Purpose) (*entity.VerificationToken, error) {
	tok, err := s.Tokens.GetActive(ctx, userID, purpose)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTokenExpiredOrConsumed
	}
	if err != nil {
		return nil, err
	}
	if !tok.Usable(time.Now()) {
		return nil, ErrTokenExpiredOrConsumed
	}
	return tok, nil
}

func (s *AccountService) consume(ctx context.Context, tokenID string, u *entity.User) error {
	err := s.Tokens.ConsumeAndSaveUser(ctx, tokenID, u)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTokenExpiredOrConsumed
	}
	return err
}

func (s *AccountService) issuerFor(purpose entity.Purpose) *credential.OTPIssuer {
	if purpose == entity.PurposePasswordReset {
		return s.ResetOTP
	}
	return s.ActivationOTP
}

// issueAndSendCode mints a code, persists its digest (superseding any prior
// active token for the purpose) and enqueues the email. The plaintext code
// exists only in the email job; it is never stored or logged.
func (s *AccountService) issueAndSendCode(ctx context.Context, u *entity.User, purpose entity.Purpose) error {
	otp, err := s.issuerFor(purpose).Generate()
	if err != nil {
		return err
	}
	tok := &entity.VerificationToken{
		UserID:    u.ID,
		TokenHash: otp.CodeHash,
		TokenType: entity.TokenTypeOTP,
		Purpose:   purpose,
		ExpiresAt: otp.ExpiresAt,
	}
	if err := s.Tokens.Issue(ctx, tok); err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{
		"user_id": u.ID,
		"purpose": purpose,
		"expires": otp.ExpiresAt,
	}).Info("verification code issued")

	tplName := mailer.TemplateActivationCode
	if purpose == entity.PurposePasswordReset {
		tplName = mailer.TemplatePasswordResetCode
	}
	s.enqueueMail(ctx, u, tplName, map[string]any{
		"Code":      otp.Code,
		"ExpiresAt": otp.ExpiresAt.UTC().Format(time.RFC1123),
	})
	return nil
}

func (s *AccountService) enqueueMail(ctx context.Context, u *entity.User, template string, data map[string]any) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Name"] = u.FullName()
	data["School"] = s.SchoolName
	data["SupportURL"] = s.SupportURL
	job := mailer.EmailJob{To: u.Email, Template: template, Data: data}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to enqueue email")
	}
}

func (s *AccountService) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.FullName(),
		"role":       u.Role,
		"status":     u.Status,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithFields(logrus.Fields{"status": res.Status(), "user_id": u.ID}).Warn("es index response error")
	}
}

func (s *AccountService) removeFromIndex(ctx context.Context, userID string) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: userID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}
