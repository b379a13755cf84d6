package repository

import (
	"testing"

	"github.com/hitoshi/bandmatch/internal/model"
)

// PostgresConversationRepoはConversationRepositoryインターフェースを満たすことを検証
func TestPostgresConversationRepo_ImplementsInterface(t *testing.T) {
	var _ ConversationRepository = (*PostgresConversationRepo)(nil)
}

// PostgresMessageRepoはMessageRepositoryインターフェースを満たすことを検証
func TestPostgresMessageRepo_ImplementsInterface(t *testing.T) {
	var _ MessageRepository = (*PostgresMessageRepo)(nil)
}

// PostgresReportRepoはReportRepositoryインターフェースを満たすことを検証
func TestPostgresReportRepo_ImplementsInterface(t *testing.T) {
	var _ ReportRepository = (*PostgresReportRepo)(nil)
}

// PostgresStatRepoはStatRepositoryインターフェースを満たすことを検証
func TestPostgresStatRepo_ImplementsInterface(t *testing.T) {
	var _ StatRepository = (*PostgresStatRepo)(nil)
}

// NewPostgresConversationRepoが正しく初期化されることを検証
func TestNewPostgresConversationRepo_Initializes(t *testing.T) {
	repo := NewPostgresConversationRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// 会話モデルの参加者判定を検証
func TestConversation_HasParticipant(t *testing.T) {
	c := &model.Conversation{ParticipantA: "a", ParticipantB: "b"}

	if !c.HasParticipant("a") || !c.HasParticipant("b") {
		t.Error("participants should be recognized")
	}
	if c.HasParticipant("c") {
		t.Error("non-participant should not be recognized")
	}
}

// 相手参加者の取得を検証
func TestConversation_OtherParticipant(t *testing.T) {
	c := &model.Conversation{ParticipantA: "a", ParticipantB: "b"}

	if got := c.OtherParticipant("a"); got != "b" {
		t.Errorf("OtherParticipant(a) = %q, want %q", got, "b")
	}
	if got := c.OtherParticipant("b"); got != "a" {
		t.Errorf("OtherParticipant(b) = %q, want %q", got, "a")
	}
}
