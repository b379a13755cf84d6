// Package message は1対1のダイレクトメッセージ機能を提供する。
package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	mailpkg "github.com/hitoshi/bandmatch/internal/mail"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
	"github.com/hitoshi/bandmatch/internal/security"
	"github.com/hitoshi/bandmatch/internal/stats"
)

const maxMessageLength = 1024

// Service はメッセージングのビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
	sanitizer   security.ContentSanitizerService
	mailer      mailpkg.Mailer
	recorder    *stats.Recorder
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	sanitizer security.ContentSanitizerService,
	mailer mailpkg.Mailer,
	recorder *stats.Recorder,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		convRepo:    convRepo,
		messageRepo: messageRepo,
		sanitizer:   sanitizer,
		mailer:      mailer,
		recorder:    recorder,
	}
}

// ListConversations は自分が参加する会話の一覧を新しい順に返す。
func (s *Service) ListConversations(ctx context.Context, accountID string) ([]repository.ConversationSummary, error) {
	summaries, err := s.convRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

// Send は指定した相手にメッセージを送信する。
// 2者間の会話が存在しない場合は新規作成される。
// 受信者への通知メールはベストエフォート。
func (s *Service) Send(ctx context.Context, senderID, recipientID, content string) (*model.Message, error) {
	if recipientID == "" || recipientID == senderID {
		return nil, model.NewRecipientInvalidError()
	}

	cleaned := s.sanitizer.Sanitize(content)
	if cleaned == "" {
		return nil, model.NewMessageMissingError()
	}
	if len(cleaned) > maxMessageLength {
		return nil, model.NewMessageInvalidError()
	}

	sender, err := s.accountRepo.FindByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sender: %w", err)
	}
	if sender == nil {
		return nil, model.NewAccountNotFoundError()
	}

	recipient, err := s.accountRepo.FindByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipient: %w", err)
	}
	if recipient == nil {
		return nil, model.NewRecipientInvalidError()
	}

	conv, err := s.convRepo.FindOrCreate(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create conversation: %w", err)
	}

	msg := &model.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        cleaned,
		SentAt:         time.Now(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := s.convRepo.SetLastMessage(ctx, conv.ID, msg.ID); err != nil {
		return nil, fmt.Errorf("failed to update last message: %w", err)
	}

	if err := s.mailer.SendNewMessageAlert(recipient.Email, sender.DisplayName); err != nil {
		slog.Warn("failed to send message alert",
			slog.String("recipient_id", recipientID),
			slog.String("error", err.Error()),
		)
	}

	s.recorder.Record(model.StatMessagesSent)
	slog.Info("message sent",
		slog.String("conversation_id", conv.ID),
		slog.String("sender_id", senderID),
	)

	return msg, nil
}

// GetConversation は会話のメッセージ一覧を返す。
// 参加者本人または管理者のみ閲覧できる。
func (s *Service) GetConversation(ctx context.Context, viewerID, conversationID string) ([]repository.MessageWithSender, error) {
	conv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv == nil {
		return nil, model.NewConversationInvalidError()
	}

	if !conv.HasParticipant(viewerID) {
		viewer, err := s.accountRepo.FindByID(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to find viewer: %w", err)
		}
		if viewer == nil || !viewer.Admin {
			return nil, model.NewConversationUnauthorizedError()
		}
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// UnreadCount は未読の会話数を返す。
func (s *Service) UnreadCount(ctx context.Context, accountID string) (int, error) {
	count, err := s.messageRepo.CountUnread(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

// MarkRead は会話の最終メッセージを既読にする。
// 既読化できるのは会話の参加者のみで、送信者自身の操作は無視される。
func (s *Service) MarkRead(ctx context.Context, readerID, conversationID string) error {
	conv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv == nil {
		return model.NewConversationInvalidError()
	}
	if !conv.HasParticipant(readerID) {
		return model.NewConversationUnauthorizedError()
	}
	if conv.LastMessageID == "" {
		return nil
	}

	if err := s.messageRepo.MarkRead(ctx, conv.LastMessageID, readerID); err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}

	return nil
}

// DeleteConversation は会話とメッセージを削除する。
// 削除できるのは会話の参加者または管理者のみ。
func (s *Service) DeleteConversation(ctx context.Context, requesterID, conversationID string) error {
	conv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv == nil {
		return model.NewConversationInvalidError()
	}

	if !conv.HasParticipant(requesterID) {
		requester, err := s.accountRepo.FindByID(ctx, requesterID)
		if err != nil {
			return fmt.Errorf("failed to find requester: %w", err)
		}
		if requester == nil || !requester.Admin {
			return model.NewConversationUnauthorizedError()
		}
	}

	if err := s.convRepo.DeleteByID(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	slog.Info("conversation deleted",
		slog.String("conversation_id", conversationID),
		slog.String("requester_id", requesterID),
	)
	return nil
}
