// Package account はプロフィールの参照・更新・削除・エクスポートを提供する。
package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
	"github.com/hitoshi/bandmatch/internal/security"
)

const (
	maxEmailLength       = 254
	maxNameLength        = 16
	maxDescriptionLength = 512
)

// Service はアカウントプロフィールのビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		convRepo:    convRepo,
		messageRepo: messageRepo,
		sanitizer:   sanitizer,
	}
}

// GetSelf は本人のアカウント情報を取得する。
func (s *Service) GetSelf(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}
	return account, nil
}

// GetByID は他ユーザー向けの公開プロフィールを取得する。
// メールアドレスや認証情報は含まれない。
func (s *Service) GetByID(ctx context.Context, accountID string) (*model.MatchCandidate, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}

	return &model.MatchCandidate{
		ID:             account.ID,
		DisplayName:    account.DisplayName,
		SearchType:     account.SearchType,
		FullSearchType: account.SearchType.Description(),
		Genres:         account.Genres,
		Instruments:    account.Instruments,
		Description:    account.Description,
	}, nil
}

// ProfilePatch はプロフィール更新のリクエスト内容。
// nilのフィールドは変更されない。
type ProfilePatch struct {
	Email          *string
	DisplayName    *string
	SearchType     *string
	Genres         []string
	Instruments    []string
	Location       *model.GeoPoint
	SearchRadiusKm *float64
	Description    *string
	Active         *bool
}

// UpdateProfile は指定されたフィールドのみを検証・正規化して更新する。
// 同じパッチを2回適用しても結果は変わらない。
func (s *Service) UpdateProfile(ctx context.Context, accountID string, patch ProfilePatch) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}

	if patch.Email != nil {
		email := strings.ToLower(*patch.Email)
		if !validEmail(email) {
			return nil, model.NewEmailInvalidError()
		}
		if email != account.Email {
			existing, err := s.accountRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if existing != nil {
				return nil, model.NewEmailInUseError()
			}
			account.Email = email
		}
	}

	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" || len(name) > maxNameLength {
			return nil, model.NewNameInvalidError()
		}
		account.DisplayName = name
	}

	if patch.SearchType != nil {
		st := model.SearchType(*patch.SearchType)
		if !st.Valid() {
			return nil, model.NewProfileInvalidError("searchType")
		}
		account.SearchType = st
	}

	if patch.Genres != nil {
		account.Genres = s.sanitizer.CleanTags(patch.Genres)
	}

	if patch.Instruments != nil {
		account.Instruments = s.sanitizer.CleanTags(patch.Instruments)
	}

	if patch.Location != nil {
		account.Location = *patch.Location
	}

	if patch.SearchRadiusKm != nil {
		if *patch.SearchRadiusKm < 0 {
			return nil, model.NewProfileInvalidError("searchRadius")
		}
		account.SearchRadiusKm = *patch.SearchRadiusKm
	}

	if patch.Description != nil {
		desc := s.sanitizer.Sanitize(*patch.Description)
		if len(desc) > maxDescriptionLength {
			return nil, model.NewProfileInvalidError("description")
		}
		account.Description = desc
	}

	if patch.Active != nil {
		account.Active = *patch.Active
	}

	if err := s.accountRepo.UpdateProfile(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile updated", slog.String("account_id", accountID))
	return account, nil
}

// Delete はアカウントを削除し、続けて参加していた会話とメッセージを削除する。
// アカウント削除後に会話の削除が失敗した場合、会話は残るがアカウントは戻らない。
func (s *Service) Delete(ctx context.Context, accountID string) error {
	if err := s.accountRepo.DeleteByID(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if err := s.convRepo.DeleteAllForAccount(ctx, accountID); err != nil {
		slog.Error("failed to delete conversations after account deletion",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete conversations: %w", err)
	}

	slog.Info("account deleted", slog.String("account_id", accountID))
	return nil
}

// Export はエクスポートされるアカウントデータ一式。
type Export struct {
	Account       ExportAccount        `json:"account"`
	Conversations []ExportConversation `json:"conversations"`
}

// ExportAccount はエクスポートに含めるアカウント情報。
// パスワードハッシュと各種トークンは含まれない。
type ExportAccount struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	DisplayName    string          `json:"displayName"`
	SearchType     string          `json:"searchType"`
	Genres         []string        `json:"genres"`
	Instruments    []string        `json:"instruments"`
	Location       model.GeoPoint  `json:"location"`
	SearchRadiusKm float64         `json:"searchRadiusKm"`
	Description    string          `json:"description"`
	Active         bool            `json:"active"`
	EmailConfirmed bool            `json:"emailConfirmed"`
	SignupAt       time.Time       `json:"signupAt"`
	LastLoginAt    time.Time       `json:"lastLoginAt"`
}

// ExportConversation はエクスポートに含める会話1件分。
type ExportConversation struct {
	ID       string          `json:"id"`
	With     string          `json:"with"`
	Messages []ExportMessage `json:"messages"`
}

// ExportMessage はエクスポートに含めるメッセージ1件分。
type ExportMessage struct {
	Sender  string    `json:"sender"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sentAt"`
}

// ExportData は本人の全データ（プロフィールと会話履歴）を返す。
func (s *Service) ExportData(ctx context.Context, accountID string) (*Export, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}

	summaries, err := s.convRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	export := &Export{
		Account: ExportAccount{
			ID:             account.ID,
			Email:          account.Email,
			DisplayName:    account.DisplayName,
			SearchType:     string(account.SearchType),
			Genres:         account.Genres,
			Instruments:    account.Instruments,
			Location:       account.Location,
			SearchRadiusKm: account.SearchRadiusKm,
			Description:    account.Description,
			Active:         account.Active,
			EmailConfirmed: account.EmailConfirmed,
			SignupAt:       account.SignupAt,
			LastLoginAt:    account.LastLoginAt,
		},
		Conversations: []ExportConversation{},
	}

	for _, summary := range summaries {
		messages, err := s.messageRepo.ListByConversation(ctx, summary.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		conv := ExportConversation{
			ID:       summary.ID,
			Messages: make([]ExportMessage, 0, len(messages)),
		}
		for _, p := range summary.Participants {
			if p.ID != accountID {
				conv.With = p.DisplayName
			}
		}
		for _, m := range messages {
			conv.Messages = append(conv.Messages, ExportMessage{
				Sender:  m.SenderName,
				Content: m.Content,
				SentAt:  m.SentAt,
			})
		}

		export.Conversations = append(export.Conversations, conv)
	}

	return export, nil
}

// validEmail はメールアドレスの長さを検証する。
// 形式の厳密な検証は行わず、確認メールの到達可否に委ねる。
func validEmail(email string) bool {
	return email != "" && len(email) <= maxEmailLength
}
