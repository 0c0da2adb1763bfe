package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
)

// AccountService implements signup, login and the password reset flow
type AccountService struct {
	db       *db.Database
	tokens   *TokenService
	mailer   Mailer
	resetTTL time.Duration
	now      func() time.Time
}

// NewAccountService wires the account flows. A nil mailer only logs.
func NewAccountService(database *db.Database, tokens *TokenService, mailer Mailer, resetTTL time.Duration) *AccountService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AccountService{db: database, tokens: tokens, mailer: mailer, resetTTL: resetTTL, now: time.Now}
}

// Tokens exposes the token service used to sign sessions
func (s *AccountService) Tokens() *TokenService { return s.tokens }

// Signup creates an active customer for an existing partner and signs a token.
// Other roles are granted by a platform admin through the user endpoints.
func (s *AccountService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer {
		return nil, Invalid("role", "signup only creates %s accounts, got %q", models.RoleCustomer, role)
	}
	partner, err := s.db.GetPartnerByName(ctx, req.Company)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("company %q: %w", req.Company, db.ErrNotFound)
		}
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if _, err := s.db.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user with email %s: %w", email, db.ErrConflict)
	} else if !db.IsNotFound(err) {
		return nil, err
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Company:      req.Company,
		Active:       true,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[AUTH] User %s signed up for partner %s with role %s", user.ID, partner.ID, role)
	return s.session(user, partner.ID)
}

// Login verifies credentials and signs a token. The company is resolved to a partner on every call.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.db.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active || !CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	companyID, err := s.companyID(ctx, user.Company)
	if err != nil {
		return nil, err
	}
	return s.session(user, companyID)
}

// Me returns the public view of a user
func (s *AccountService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	companyID, err := s.companyID(ctx, user.Company)
	if err != nil {
		return nil, err
	}
	pub := user.Public(companyID)
	return &pub, nil
}

// ForgotPassword stores a fresh reset code on the user and mails it
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	code, err := GenerateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	if err := s.db.SetResetCode(ctx, user.ID, code, s.now().Add(s.resetTTL)); err != nil {
		return err
	}
	if err := s.mailer.SendResetCode(ctx, user.Email, user.Firstname, code, s.resetTTL); err != nil {
		log.Printf("[AUTH] Failed to send reset code to %s: %v", user.Email, err)
		return err
	}
	log.Printf("[AUTH] Reset code issued for user %s", user.ID)
	return nil
}

// VerifyResetCode checks a code without consuming it
func (s *AccountService) VerifyResetCode(ctx context.Context, email, code string) error {
	user, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	return CheckResetCode(user, code, s.now())
}

// ResetPassword replaces the password and clears the code
func (s *AccountService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	user, err := s.db.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if err := CheckResetCode(user, req.Code, s.now()); err != nil {
		return err
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.db.ResetPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	log.Printf("[AUTH] Password reset for user %s", user.ID)
	return nil
}

func (s *AccountService) session(user *models.User, companyID string) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user, companyID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: user.Public(companyID)}, nil
}

// companyID resolves a company name to a partner id; unknown companies yield ""
func (s *AccountService) companyID(ctx context.Context, company string) (string, error) {
	if company == "" {
		return "", nil
	}
	p, err := s.db.GetPartnerByName(ctx, company)
	if err != nil {
		if db.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return p.ID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
