package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bandmatch/internal/model"
)

// PostgresReportRepo はPostgreSQLを使用した通報リポジトリ。
type PostgresReportRepo struct {
	db *sql.DB
}

// NewPostgresReportRepo はPostgresReportRepoを生成する。
func NewPostgresReportRepo(db *sql.DB) *PostgresReportRepo {
	return &PostgresReportRepo{db: db}
}

// Create は通報を作成する。
func (r *PostgresReportRepo) Create(ctx context.Context, report *model.Report) error {
	var accountID, conversationID sql.NullString
	if report.ReportedAccountID != "" {
		accountID = sql.NullString{String: report.ReportedAccountID, Valid: true}
	}
	if report.ReportedConversationID != "" {
		conversationID = sql.NullString{String: report.ReportedConversationID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, target, reported_account_id,
			reported_conversation_id, reason, extra_information, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ID, report.Target, accountID, conversationID,
		report.Reason, report.ExtraInformation, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("通報の作成に失敗しました: %w", err)
	}
	return nil
}

// List は全通報を通報対象アカウントの情報付きで新しい順に返す。
// 対象アカウントが削除済みの場合、ReportedAccountはnilになる。
func (r *PostgresReportRepo) List(ctx context.Context) ([]ReportView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.target, r.reported_account_id, r.reported_conversation_id,
		        r.reason, r.extra_information, r.created_at,
		        a.id, a.display_name, a.email
		 FROM reports r
		 LEFT JOIN accounts a ON a.id = r.reported_account_id
		 ORDER BY r.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("通報一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var views []ReportView
	for rows.Next() {
		var v ReportView
		var accountID, conversationID sql.NullString
		var reportedID, reportedName, reportedEmail sql.NullString

		if err := rows.Scan(&v.ID, &v.Target, &accountID, &conversationID,
			&v.Reason, &v.ExtraInformation, &v.CreatedAt,
			&reportedID, &reportedName, &reportedEmail); err != nil {
			return nil, fmt.Errorf("通報行の読み取りに失敗しました: %w", err)
		}

		if accountID.Valid {
			v.ReportedAccountID = accountID.String
		}
		if conversationID.Valid {
			v.ReportedConversationID = conversationID.String
		}
		if reportedID.Valid {
			v.ReportedAccount = &AccountSummary{
				ID:          reportedID.String,
				DisplayName: reportedName.String,
				Email:       reportedEmail.String,
			}
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("通報一覧の走査に失敗しました: %w", err)
	}

	return views, nil
}

// DeleteByID は指定IDの通報を削除する。
func (r *PostgresReportRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("通報の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("report not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ReportRepository = (*PostgresReportRepo)(nil)
