package message

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/bandmatch/internal/model"
	"github.com/hitoshi/bandmatch/internal/repository"
	"github.com/hitoshi/bandmatch/internal/security"
	"github.com/hitoshi/bandmatch/internal/stats"
)

// --- モック定義 ---

type mockAccountRepo struct {
	accounts map[string]*model.Account
}

func (m *mockAccountRepo) FindByID(_ context.Context, id string) (*model.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, nil
}

func (m *mockAccountRepo) FindByEmail(_ context.Context, _ string) (*model.Account, error) {
	return nil, nil
}

func (m *mockAccountRepo) FindByResetToken(_ context.Context, _ string) (*model.Account, error) {
	return nil, nil
}

func (m *mockAccountRepo) Create(_ context.Context, _ *model.Account) error        { return nil }
func (m *mockAccountRepo) UpdateProfile(_ context.Context, _ *model.Account) error { return nil }
func (m *mockAccountRepo) UpdatePasswordHash(_ context.Context, _, _ string) error { return nil }

func (m *mockAccountRepo) SetResetToken(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (m *mockAccountRepo) ConsumeResetToken(_ context.Context, _, _ string) error { return nil }

func (m *mockAccountRepo) ConfirmEmail(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (m *mockAccountRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *mockAccountRepo) DeleteByID(_ context.Context, _ string) error { return nil }

func (m *mockAccountRepo) SearchMatches(_ context.Context, _ *model.Account, _ []model.SearchType) ([]model.MatchCandidate, error) {
	return nil, nil
}

func (m *mockAccountRepo) SearchByNameOrEmail(_ context.Context, _, _ string) ([]repository.AccountSummary, error) {
	return nil, nil
}

func (m *mockAccountRepo) SetAdmin(_ context.Context, _ string, _ bool) error { return nil }
func (m *mockAccountRepo) ClearDescription(_ context.Context, _ string) error { return nil }
func (m *mockAccountRepo) ClearDisplayName(_ context.Context, _ string) error { return nil }
func (m *mockAccountRepo) ListLocations(_ context.Context) ([]model.GeoPoint, error) {
	return nil, nil
}

type mockConversationRepo struct {
	conversations    map[string]*model.Conversation
	findOrCreateFn   func(ctx context.Context, a, b string) (*model.Conversation, error)
	setLastMessageFn func(ctx context.Context, conversationID, messageID string) error
	deleteByIDFn     func(ctx context.Context, id string) error
}

func (m *mockConversationRepo) FindByID(_ context.Context, id string) (*model.Conversation, error) {
	if c, ok := m.conversations[id]; ok {
		return c, nil
	}
	return nil, nil
}

func (m *mockConversationRepo) FindOrCreate(ctx context.Context, a, b string) (*model.Conversation, error) {
	if m.findOrCreateFn != nil {
		return m.findOrCreateFn(ctx, a, b)
	}
	return &model.Conversation{ID: "conv-new", ParticipantA: a, ParticipantB: b}, nil
}

func (m *mockConversationRepo) ListByAccount(_ context.Context, _ string) ([]repository.ConversationSummary, error) {
	return nil, nil
}

func (m *mockConversationRepo) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	if m.setLastMessageFn != nil {
		return m.setLastMessageFn(ctx, conversationID, messageID)
	}
	return nil
}

func (m *mockConversationRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockConversationRepo) DeleteAllForAccount(_ context.Context, _ string) error { return nil }

type mockMessageRepo struct {
	createFn   func(ctx context.Context, message *model.Message) error
	markReadFn func(ctx context.Context, messageID, readerID string) error
	unread     int
}

func (m *mockMessageRepo) Create(ctx context.Context, message *model.Message) error {
	if m.createFn != nil {
		return m.createFn(ctx, message)
	}
	return nil
}

func (m *mockMessageRepo) ListByConversation(_ context.Context, _ string) ([]repository.MessageWithSender, error) {
	return nil, nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, messageID, readerID string) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, messageID, readerID)
	}
	return nil
}

func (m *mockMessageRepo) CountUnread(_ context.Context, _ string) (int, error) {
	return m.unread, nil
}

type mockMailer struct {
	alerts []string
}

func (m *mockMailer) SendAccountConfirmation(_, _, _ string) error { return nil }
func (m *mockMailer) SendPasswordReset(_, _ string) error          { return nil }

func (m *mockMailer) SendNewMessageAlert(toEmail, _ string) error {
	m.alerts = append(m.alerts, toEmail)
	return nil
}

type mockStatRepo struct {
	fields []model.StatField
}

func (m *mockStatRepo) Increment(_ context.Context, _ time.Time, field model.StatField) error {
	m.fields = append(m.fields, field)
	return nil
}

func (m *mockStatRepo) AddReferrer(_ context.Context, _ time.Time, _ string) error { return nil }

func (m *mockStatRepo) FindByDate(_ context.Context, _ time.Time) (*model.DailyStat, error) {
	return nil, nil
}

func (m *mockStatRepo) ListRange(_ context.Context, _, _ time.Time) ([]*model.DailyStat, error) {
	return nil, nil
}

func twoAccounts() *mockAccountRepo {
	return &mockAccountRepo{accounts: map[string]*model.Account{
		"alice": {ID: "alice", Email: "alice@example.com", DisplayName: "Alice"},
		"bob":   {ID: "bob", Email: "bob@example.com", DisplayName: "Bob"},
	}}
}

func newTestService(accRepo *mockAccountRepo, convRepo *mockConversationRepo, msgRepo *mockMessageRepo, mailer *mockMailer) (*Service, *mockStatRepo) {
	statRepo := &mockStatRepo{}
	return NewService(
		accRepo, convRepo, msgRepo,
		security.NewContentSanitizer(), mailer,
		stats.NewRecorder(statRepo, nil),
	), statRepo
}

// --- Send ---

// 送信で会話が作成され、通知と統計が記録されることを検証
func TestSend_Success(t *testing.T) {
	var created *model.Message
	var lastMessageSet string
	msgRepo := &mockMessageRepo{
		createFn: func(_ context.Context, message *model.Message) error {
			created = message
			return nil
		},
	}
	convRepo := &mockConversationRepo{
		setLastMessageFn: func(_ context.Context, _, messageID string) error {
			lastMessageSet = messageID
			return nil
		},
	}
	mailer := &mockMailer{}
	svc, statRepo := newTestService(twoAccounts(), convRepo, msgRepo, mailer)

	msg, err := svc.Send(context.Background(), "alice", "bob", "hello bob")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if created == nil || created.Content != "hello bob" {
		t.Fatalf("created = %+v", created)
	}
	if created.Read {
		t.Error("new message should start unread")
	}
	if lastMessageSet != msg.ID {
		t.Error("conversation last message should be updated")
	}
	if len(mailer.alerts) != 1 || mailer.alerts[0] != "bob@example.com" {
		t.Errorf("alerts = %v", mailer.alerts)
	}
	if len(statRepo.fields) != 1 || statRepo.fields[0] != model.StatMessagesSent {
		t.Errorf("stats = %v", statRepo.fields)
	}
}

// 本文のHTMLが除去されて保存されることを検証
func TestSend_SanitizesContent(t *testing.T) {
	var created *model.Message
	msgRepo := &mockMessageRepo{
		createFn: func(_ context.Context, message *model.Message) error {
			created = message
			return nil
		},
	}
	svc, _ := newTestService(twoAccounts(), &mockConversationRepo{}, msgRepo, &mockMailer{})

	_, err := svc.Send(context.Background(), "alice", "bob", `<script>x</script>hey`)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if created.Content != "hey" {
		t.Errorf("content = %q", created.Content)
	}
}

// 不正な送信が拒否されることを検証
func TestSend_Validation(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		content   string
		wantField string
	}{
		{"宛先なし", "", "hello", "recipient"},
		{"自分宛て", "alice", "hello", "recipient"},
		{"宛先不明", "nobody", "hello", "recipient"},
		{"本文空", "bob", "", "messageContent"},
		{"本文タグのみ", "bob", "<p></p>", "messageContent"},
		{"本文長すぎ", "bob", strings.Repeat("a", 1025), "messageContent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(twoAccounts(), &mockConversationRepo{}, &mockMessageRepo{}, &mockMailer{})

			_, err := svc.Send(context.Background(), "alice", tt.recipient, tt.content)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", apiErr.Field, tt.wantField)
			}
		})
	}
}

// --- GetConversation ---

func conversationFixture() *mockConversationRepo {
	return &mockConversationRepo{conversations: map[string]*model.Conversation{
		"conv-1": {ID: "conv-1", ParticipantA: "alice", ParticipantB: "bob", LastMessageID: "m-1"},
	}}
}

// 参加者が会話を閲覧できることを検証
func TestGetConversation_Participant(t *testing.T) {
	svc, _ := newTestService(twoAccounts(), conversationFixture(), &mockMessageRepo{}, &mockMailer{})

	if _, err := svc.GetConversation(context.Background(), "alice", "conv-1"); err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
}

// 部外者が会話を閲覧できないことを検証
func TestGetConversation_Outsider(t *testing.T) {
	accRepo := twoAccounts()
	accRepo.accounts["carol"] = &model.Account{ID: "carol"}
	svc, _ := newTestService(accRepo, conversationFixture(), &mockMessageRepo{}, &mockMailer{})

	_, err := svc.GetConversation(context.Background(), "carol", "conv-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != "unauthorized" {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

// 管理者は部外者でも会話を閲覧できることを検証
func TestGetConversation_Admin(t *testing.T) {
	accRepo := twoAccounts()
	accRepo.accounts["root"] = &model.Account{ID: "root", Admin: true}
	svc, _ := newTestService(accRepo, conversationFixture(), &mockMessageRepo{}, &mockMailer{})

	if _, err := svc.GetConversation(context.Background(), "root", "conv-1"); err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
}

// --- MarkRead ---

// 受信者の既読操作が最終メッセージに適用されることを検証
func TestMarkRead_Recipient(t *testing.T) {
	var markedMessage, markedReader string
	msgRepo := &mockMessageRepo{
		markReadFn: func(_ context.Context, messageID, readerID string) error {
			markedMessage = messageID
			markedReader = readerID
			return nil
		},
	}
	svc, _ := newTestService(twoAccounts(), conversationFixture(), msgRepo, &mockMailer{})

	if err := svc.MarkRead(context.Background(), "bob", "conv-1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if markedMessage != "m-1" || markedReader != "bob" {
		t.Errorf("marked %q by %q", markedMessage, markedReader)
	}
}

// 部外者の既読操作が拒否されることを検証
func TestMarkRead_Outsider(t *testing.T) {
	svc, _ := newTestService(twoAccounts(), conversationFixture(), &mockMessageRepo{}, &mockMailer{})

	err := svc.MarkRead(context.Background(), "carol", "conv-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != "unauthorized" {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

// メッセージのない会話の既読操作が何もせず成功することを検証
func TestMarkRead_EmptyConversation(t *testing.T) {
	convRepo := &mockConversationRepo{conversations: map[string]*model.Conversation{
		"conv-2": {ID: "conv-2", ParticipantA: "alice", ParticipantB: "bob"},
	}}
	called := false
	msgRepo := &mockMessageRepo{
		markReadFn: func(_ context.Context, _, _ string) error {
			called = true
			return nil
		},
	}
	svc, _ := newTestService(twoAccounts(), convRepo, msgRepo, &mockMailer{})

	if err := svc.MarkRead(context.Background(), "alice", "conv-2"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if called {
		t.Error("mark read should not be called without messages")
	}
}

// --- DeleteConversation ---

// 参加者が会話を削除できることを検証
func TestDeleteConversation_Participant(t *testing.T) {
	var deleted string
	convRepo := conversationFixture()
	convRepo.deleteByIDFn = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}
	svc, _ := newTestService(twoAccounts(), convRepo, &mockMessageRepo{}, &mockMailer{})

	if err := svc.DeleteConversation(context.Background(), "alice", "conv-1"); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if deleted != "conv-1" {
		t.Errorf("deleted = %q", deleted)
	}
}

// 存在しない会話の削除でconversation.invalidが返ることを検証
func TestDeleteConversation_Missing(t *testing.T) {
	svc, _ := newTestService(twoAccounts(), &mockConversationRepo{}, &mockMessageRepo{}, &mockMailer{})

	err := svc.DeleteConversation(context.Background(), "alice", "conv-x")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Field != "conversation" {
		t.Fatalf("expected conversation error, got %v", err)
	}
}

// --- UnreadCount ---

// 未読数がそのまま返ることを検証
func TestUnreadCount(t *testing.T) {
	msgRepo := &mockMessageRepo{unread: 3}
	svc, _ := newTestService(twoAccounts(), &mockConversationRepo{}, msgRepo, &mockMailer{})

	count, err := svc.UnreadCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
