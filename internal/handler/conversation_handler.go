package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
)

// MessageServiceInterface は会話ハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	// ListConversations はアカウントが参加する会話の一覧を返す。
	ListConversations(ctx context.Context, accountID string) ([]repository.ConversationSummary, error)
	// Send はメッセージを送信する。初回は会話を作成する。
	Send(ctx context.Context, senderID, recipientID, content string) (*model.Message, error)
	// GetConversation は会話内のメッセージ一覧を返す。
	GetConversation(ctx context.Context, viewerID, conversationID string) ([]repository.MessageWithSender, error)
	// UnreadCount は未読の最終メッセージを持つ会話の数を返す。
	UnreadCount(ctx context.Context, accountID string) (int, error)
	// MarkRead は会話の最終メッセージを既読にする。
	MarkRead(ctx context.Context, readerID, conversationID string) error
	// DeleteConversation は会話とメッセージを削除する。
	DeleteConversation(ctx context.Context, requesterID, conversationID string) error
}

// ConversationHandler はダイレクトメッセージのHTTPハンドラー。
type ConversationHandler struct {
	service MessageServiceInterface
}

// NewConversationHandler はConversationHandlerを生成する。
func NewConversationHandler(service MessageServiceInterface) *ConversationHandler {
	return &ConversationHandler{
		service: service,
	}
}

// sendMessageRequest はメッセージ送信リクエストのボディ。
type sendMessageRequest struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

// participantPayload は会話参加者のAPIレスポンス。
type participantPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// messagePayload はメッセージのAPIレスポンス。
type messagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"`
	SenderName     string    `json:"senderName,omitempty"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	SentAt         time.Time `json:"sentAt"`
}

// conversationPayload は会話一覧のAPIレスポンス。
type conversationPayload struct {
	ID           string               `json:"id"`
	Participants []participantPayload `json:"participants"`
	LastMessage  *messagePayload      `json:"lastMessage"`
}

// ListConversations は会話一覧を取得する。
// GET /conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	summaries, err := h.service.ListConversations(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	conversations := make([]conversationPayload, 0, len(summaries))
	for i := range summaries {
		conversations = append(conversations, toConversationPayload(&summaries[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"conversations": conversations,
	})
}

// UnreadCount は未読会話数を取得する。
// GET /conversations/unread
func (h *ConversationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	count, err := h.service.UnreadCount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   count,
	})
}

// GetConversation は会話内のメッセージ一覧を取得する。
// GET /conversations/{id}
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	conversationID := chi.URLParam(r, "id")

	messages, err := h.service.GetConversation(r.Context(), accountID, conversationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	payloads := make([]messagePayload, 0, len(messages))
	for i := range messages {
		payloads = append(payloads, toMessagePayload(&messages[i].Message, messages[i].SenderName))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": payloads,
	})
}

// SendMessage はメッセージ送信を処理する。
// POST /conversations/message
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	message, err := h.service.Send(r.Context(), accountID, req.Recipient, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	payload := toMessagePayload(message, "")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": payload,
	})
}

// MarkRead は会話の最終メッセージを既読にする。
// PATCH /conversations/read/{id}
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	conversationID := chi.URLParam(r, "id")

	if err := h.service.MarkRead(r.Context(), accountID, conversationID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// DeleteConversation は会話の削除を処理する。
// DELETE /conversations/{id}
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	accountID := requireAccountID(w, r)
	if accountID == "" {
		return
	}

	conversationID := chi.URLParam(r, "id")

	if err := h.service.DeleteConversation(r.Context(), accountID, conversationID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w)
}

// --- ヘルパー関数 ---

func toMessagePayload(message *model.Message, senderName string) messagePayload {
	return messagePayload{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Sender:         message.SenderID,
		SenderName:     senderName,
		Content:        message.Content,
		Read:           message.Read,
		SentAt:         message.SentAt,
	}
}

func toConversationPayload(summary *repository.ConversationSummary) conversationPayload {
	participants := make([]participantPayload, 0, len(summary.Participants))
	for _, p := range summary.Participants {
		participants = append(participants, participantPayload{
			ID:          p.ID,
			DisplayName: p.DisplayName,
		})
	}

	payload := conversationPayload{
		ID:           summary.ID,
		Participants: participants,
	}
	if summary.LastMessage != nil {
		last := toMessagePayload(summary.LastMessage, "")
		payload.LastMessage = &last
	}
	return payload
}
