package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bandmatch/internal/model"
)

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// Create はメッセージを作成する。
func (r *PostgresMessageRepo) Create(ctx context.Context, m *model.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content, read, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.SenderID, m.Content, m.Read, m.SentAt,
	)
	if err != nil {
		return fmt.Errorf("メッセージの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByConversation は会話内の全メッセージを送信者名付きで古い順に返す。
func (r *PostgresMessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]MessageWithSender, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.sender_id, a.display_name, m.content, m.read, m.sent_at
		 FROM messages m
		 JOIN accounts a ON a.id = m.sender_id
		 WHERE m.conversation_id = $1
		 ORDER BY m.sent_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("メッセージ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var messages []MessageWithSender
	for rows.Next() {
		var m MessageWithSender
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName,
			&m.Content, &m.Read, &m.SentAt); err != nil {
			return nil, fmt.Errorf("メッセージ行の読み取りに失敗しました: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メッセージ一覧の走査に失敗しました: %w", err)
	}

	return messages, nil
}

// MarkRead は受信者がメッセージを既読にする。送信者自身の既読操作は無視される。
func (r *PostgresMessageRepo) MarkRead(ctx context.Context, messageID, readerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = true
		 WHERE id = $1 AND sender_id <> $2`,
		messageID, readerID,
	)
	if err != nil {
		return fmt.Errorf("既読状態の更新に失敗しました: %w", err)
	}
	return nil
}

// CountUnread は最終メッセージが未読かつ自分以外から送信された会話の数を返す。
func (r *PostgresMessageRepo) CountUnread(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM conversations c
		 JOIN messages m ON m.id = c.last_message_id
		 WHERE (c.participant_a = $1 OR c.participant_b = $1)
		   AND m.sender_id <> $1
		   AND m.read = false`,
		accountID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("未読メッセージ数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
