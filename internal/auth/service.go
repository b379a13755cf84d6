// Package auth はアカウント登録、ログイン、パスワード管理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	mailpkg "github.com/hitoshi/bandmatch/internal/mail"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/password"
	"github.com/hitoshi/bandmatch/internal/repository"
	"github.com/hitoshi/bandmatch/internal/stats"
	"github.com/hitoshi/bandmatch/internal/token"
)

const (
	maxEmailLength = 254
	maxNameLength  = 16
	minPasswordLen = 8

	// 新規アカウントの検索半径の初期値（km）
	defaultSearchRadiusKm = 5.0
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	ResetTokenTTL time.Duration // パスワードリセットトークンの有効期間
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	tokens      *TokenManager
	mailer      mailpkg.Mailer
	recorder    *stats.Recorder
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	tokens *TokenManager,
	mailer mailpkg.Mailer,
	recorder *stats.Recorder,
	config ServiceConfig,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		tokens:      tokens,
		mailer:      mailer,
		recorder:    recorder,
		config:      config,
	}
}

// SignupInput は新規登録のリクエスト内容。
type SignupInput struct {
	Email           string
	DisplayName     string
	Password        string
	PasswordConfirm string
	Agreement       bool
}

// Signup は新規アカウントを登録し、認証トークンを発行する。
// 検証は利用規約への同意、メールアドレス、表示名、パスワードの順に行い、
// 最初に失敗した項目のエラーを返す。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.Account, string, error) {
	if !in.Agreement {
		return nil, "", model.NewConsentMissingError()
	}
	if !validEmail(in.Email) {
		return nil, "", model.NewEmailInvalidError()
	}
	if in.DisplayName == "" || len(in.DisplayName) > maxNameLength {
		return nil, "", model.NewNameInvalidError()
	}
	if in.Password != in.PasswordConfirm {
		return nil, "", model.NewPasswordMismatchError()
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", model.NewPasswordInvalidError()
	}

	email := strings.ToLower(in.Email)
	existing, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, "", model.NewEmailInUseError()
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	confirmToken, err := token.New()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate confirm token: %w", err)
	}

	now := time.Now()
	account := &model.Account{
		ID:             uuid.New().String(),
		Email:          email,
		DisplayName:    in.DisplayName,
		PasswordHash:   hash,
		SearchType:     model.SearchTypeJoin,
		SearchRadiusKm: defaultSearchRadiusKm,
		Active:         true,
		ConfirmToken:   confirmToken,
		SignupAt:       now,
		LastLoginAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	// 確認メールはベストエフォート。失敗しても登録は成立する。
	if err := s.mailer.SendAccountConfirmation(account.Email, account.ID, confirmToken); err != nil {
		slog.Warn("failed to send confirmation mail",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	jwt, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.recorder.Record(model.StatSignups)
	slog.Info("account created",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return account, jwt, nil
}

// Login はメールアドレスとパスワードで認証し、トークンを発行する。
func (s *Service) Login(ctx context.Context, email, plaintext string) (*model.Account, string, error) {
	account, err := s.accountRepo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, "", fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, "", model.NewEmailInvalidError()
	}

	ok, err := password.Verify(plaintext, account.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, "", model.NewPasswordIncorrectError()
	}

	now := time.Now()
	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		slog.Warn("failed to update last login",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}
	account.LastLoginAt = now

	jwt, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.recorder.Record(model.StatLogins)
	slog.Info("login", slog.String("account_id", account.ID))

	return account, jwt, nil
}

// ChangePassword は現在のパスワードを検証した上で新しいパスワードに変更する。
func (s *Service) ChangePassword(ctx context.Context, accountID, current, newPassword, confirm string) error {
	if newPassword != confirm {
		return model.NewPasswordMismatchError()
	}
	if len(newPassword) < minPasswordLen {
		return model.NewPasswordInvalidError()
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return model.NewAccountNotFoundError()
	}

	ok, err := password.Verify(current, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return model.NewPasswordIncorrectError()
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", slog.String("account_id", accountID))
	return nil
}

// RequestPasswordReset はリセットトークンを発行し、メールで送付する。
// 未登録のメールアドレスにはエラーを返す。
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accountRepo.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return model.NewEmailInvalidError()
	}

	reset, err := token.IssueReset(s.config.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if err := s.accountRepo.SetResetToken(ctx, account.ID, reset.Token, reset.ExpiresAt); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(account.Email, reset.Token); err != nil {
		slog.Warn("failed to send reset mail",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("password reset requested", slog.String("account_id", account.ID))
	return nil
}

// ResetPassword はリセットトークンを検証し、新しいパスワードを設定する。
// トークンは成功時に同一の更新内でクリアされ、再利用できない。
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword, confirm string) error {
	if newPassword != confirm {
		return model.NewPasswordMismatchError()
	}
	if len(newPassword) < minPasswordLen {
		return model.NewPasswordInvalidError()
	}

	account, err := s.accountRepo.FindByResetToken(ctx, resetToken)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return model.NewTokenInvalidError()
	}
	if account.ResetExpiresAt == nil || token.IsExpired(*account.ResetExpiresAt, time.Now()) {
		return model.NewTokenExpiredError()
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.ConsumeResetToken(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	slog.Info("password reset", slog.String("account_id", account.ID))
	return nil
}

// ConfirmEmail はメールアドレス確認トークンを検証し、確認済みにする。
func (s *Service) ConfirmEmail(ctx context.Context, accountID, confirmToken string) error {
	if confirmToken == "" {
		return model.NewTokenInvalidError()
	}

	ok, err := s.accountRepo.ConfirmEmail(ctx, accountID, confirmToken)
	if err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	if !ok {
		return model.NewTokenInvalidError()
	}

	slog.Info("email confirmed", slog.String("account_id", accountID))
	return nil
}

// validEmail はメールアドレスの長さを検証する。
// 形式の厳密な検証は行わず、確認メールの到達可否に委ねる。
func validEmail(email string) bool {
	return email != "" && len(email) <= maxEmailLength
}
