package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bandmatch/internal/model"
)

// PostgresConversationRepo はPostgreSQLを使用した会話リポジトリ。
type PostgresConversationRepo struct {
	db *sql.DB
}

// NewPostgresConversationRepo はPostgresConversationRepoを生成する。
func NewPostgresConversationRepo(db *sql.DB) *PostgresConversationRepo {
	return &PostgresConversationRepo{db: db}
}

// FindByID は指定IDの会話を取得する。見つからない場合はnilを返す。
func (r *PostgresConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	c := &model.Conversation{}
	var lastMessageID sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, participant_a, participant_b, last_message_id, created_at
		 FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &lastMessageID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("会話の取得に失敗しました: %w", err)
	}

	if lastMessageID.Valid {
		c.LastMessageID = lastMessageID.String
	}

	return c, nil
}

// FindOrCreate は2アカウント間の会話を取得し、存在しない場合は作成する。
// 参加者の順序は区別しない。
func (r *PostgresConversationRepo) FindOrCreate(ctx context.Context, accountA, accountB string) (*model.Conversation, error) {
	existing := &model.Conversation{}
	var lastMessageID sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, participant_a, participant_b, last_message_id, created_at
		 FROM conversations
		 WHERE (participant_a = $1 AND participant_b = $2)
		    OR (participant_a = $2 AND participant_b = $1)`,
		accountA, accountB).
		Scan(&existing.ID, &existing.ParticipantA, &existing.ParticipantB,
			&lastMessageID, &existing.CreatedAt)
	if err == nil {
		if lastMessageID.Valid {
			existing.LastMessageID = lastMessageID.String
		}
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("会話の検索に失敗しました: %w", err)
	}

	created := &model.Conversation{
		ID:           uuid.New().String(),
		ParticipantA: accountA,
		ParticipantB: accountB,
		CreatedAt:    time.Now(),
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, participant_a, participant_b, created_at)
		 VALUES ($1, $2, $3, $4)`,
		created.ID, created.ParticipantA, created.ParticipantB, created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("会話の作成に失敗しました: %w", err)
	}

	return created, nil
}

// ListByAccount は指定アカウントが参加する会話の一覧を、参加者の表示名と
// 最終メッセージ付きで新しい順に返す。
func (r *PostgresConversationRepo) ListByAccount(ctx context.Context, accountID string) ([]ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id,
		        a.id, a.display_name,
		        b.id, b.display_name,
		        m.id, m.conversation_id, m.sender_id, m.content, m.read, m.sent_at,
		        c.created_at
		 FROM conversations c
		 JOIN accounts a ON a.id = c.participant_a
		 JOIN accounts b ON b.id = c.participant_b
		 LEFT JOIN messages m ON m.id = c.last_message_id
		 WHERE c.participant_a = $1 OR c.participant_b = $1
		 ORDER BY COALESCE(m.sent_at, c.created_at) DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("会話一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var summaries []ConversationSummary
	for rows.Next() {
		var s ConversationSummary
		var pa, pb Participant
		var msgID, msgConvID, msgSender, msgContent sql.NullString
		var msgRead sql.NullBool
		var msgSentAt sql.NullTime
		var createdAt time.Time

		if err := rows.Scan(&s.ID,
			&pa.ID, &pa.DisplayName,
			&pb.ID, &pb.DisplayName,
			&msgID, &msgConvID, &msgSender, &msgContent, &msgRead, &msgSentAt,
			&createdAt); err != nil {
			return nil, fmt.Errorf("会話行の読み取りに失敗しました: %w", err)
		}

		s.Participants = []Participant{pa, pb}
		if msgID.Valid {
			s.LastMessage = &model.Message{
				ID:             msgID.String,
				ConversationID: msgConvID.String,
				SenderID:       msgSender.String,
				Content:        msgContent.String,
				Read:           msgRead.Bool,
				SentAt:         msgSentAt.Time,
			}
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("会話一覧の走査に失敗しました: %w", err)
	}

	return summaries, nil
}

// SetLastMessage は会話の最終メッセージIDを更新する。
func (r *PostgresConversationRepo) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_id = $2 WHERE id = $1`,
		conversationID, messageID,
	)
	if err != nil {
		return fmt.Errorf("最終メッセージの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は会話と所属メッセージをトランザクション内で削除する。
func (r *PostgresConversationRepo) DeleteByID(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// 最終メッセージへの参照を先に外す
	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_id = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("最終メッセージ参照の解除に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = $1`, id)
	if err != nil {
		return fmt.Errorf("メッセージの削除に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("会話の削除に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// DeleteAllForAccount は指定アカウントが参加する全会話とそのメッセージを削除する。
func (r *PostgresConversationRepo) DeleteAllForAccount(ctx context.Context, accountID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_id = NULL
		 WHERE participant_a = $1 OR participant_b = $1`, accountID)
	if err != nil {
		return fmt.Errorf("最終メッセージ参照の解除に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id IN (
			SELECT id FROM conversations
			WHERE participant_a = $1 OR participant_b = $1
		 )`, accountID)
	if err != nil {
		return fmt.Errorf("メッセージの削除に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM conversations
		 WHERE participant_a = $1 OR participant_b = $1`, accountID)
	if err != nil {
		return fmt.Errorf("会話の削除に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// compile-time interface check
var _ ConversationRepository = (*PostgresConversationRepo)(nil)
