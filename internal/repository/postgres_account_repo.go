package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/bandmatch/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
// 地理検索にはcube/earthdistance拡張を使用する。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `id, email, display_name, password_hash, search_type,
	genres, instruments, longitude, latitude, search_radius_km, description,
	active, admin, email_confirmed, confirm_token, reset_token,
	reset_expires_at, signup_at, last_login_at`

// scanAccount は1行分のアカウントを読み取る。
func scanAccount(row *sql.Row) (*model.Account, error) {
	a := &model.Account{}
	var resetToken sql.NullString
	var resetExpires sql.NullTime

	err := row.Scan(
		&a.ID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.SearchType,
		pq.Array(&a.Genres), pq.Array(&a.Instruments),
		&a.Location.Longitude, &a.Location.Latitude, &a.SearchRadiusKm,
		&a.Description, &a.Active, &a.Admin, &a.EmailConfirmed,
		&a.ConfirmToken, &resetToken, &resetExpires, &a.SignupAt, &a.LastLoginAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if resetToken.Valid {
		a.ResetToken = resetToken.String
	}
	if resetExpires.Valid {
		t := resetExpires.Time
		a.ResetExpiresAt = &t
	}

	return a, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	return account, nil
}

// FindByEmail は小文字化済みメールアドレスでアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)

	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによるアカウントの検索に失敗しました: %w", err)
	}
	return account, nil
}

// FindByResetToken はパスワードリセットトークンでアカウントを検索する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByResetToken(ctx context.Context, resetToken string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE reset_token = $1`, resetToken)

	account, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("リセットトークンによるアカウントの検索に失敗しました: %w", err)
	}
	return account, nil
}

// Create はアカウントを作成する。
func (r *PostgresAccountRepo) Create(ctx context.Context, a *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, display_name, password_hash,
			search_type, genres, instruments, longitude, latitude,
			search_radius_km, description, active, admin, email_confirmed,
			confirm_token, signup_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.SearchType,
		pq.Array(a.Genres), pq.Array(a.Instruments),
		a.Location.Longitude, a.Location.Latitude, a.SearchRadiusKm,
		a.Description, a.Active, a.Admin, a.EmailConfirmed,
		a.ConfirmToken, a.SignupAt, a.LastLoginAt,
	)
	if err != nil {
		return fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateProfile はプロフィール項目を更新する。
func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, a *model.Account) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET email = $2, display_name = $3, search_type = $4, genres = $5,
		     instruments = $6, longitude = $7, latitude = $8,
		     search_radius_km = $9, description = $10, active = $11
		 WHERE id = $1`,
		a.ID, a.Email, a.DisplayName, a.SearchType,
		pq.Array(a.Genres), pq.Array(a.Instruments),
		a.Location.Longitude, a.Location.Latitude,
		a.SearchRadiusKm, a.Description, a.Active,
	)
	if err != nil {
		return fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %s", a.ID)
	}
	return nil
}

// UpdatePasswordHash はパスワードハッシュのみを更新する。
func (r *PostgresAccountRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2 WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("パスワードハッシュの更新に失敗しました: %w", err)
	}
	return nil
}

// SetResetToken はリセットトークンと有効期限を設定する。
func (r *PostgresAccountRepo) SetResetToken(ctx context.Context, id, resetToken string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET reset_token = $2, reset_expires_at = $3 WHERE id = $1`,
		id, resetToken, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("リセットトークンの設定に失敗しました: %w", err)
	}
	return nil
}

// ConsumeResetToken は新しいパスワードハッシュを保存し、同一のUPDATEで
// リセットトークンと有効期限をクリアする。
func (r *PostgresAccountRepo) ConsumeResetToken(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL
		 WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("リセットトークンの消費に失敗しました: %w", err)
	}
	return nil
}

// ConfirmEmail は確認トークンが一致する場合にメール確認済みフラグを立て、トークンをクリアする。
func (r *PostgresAccountRepo) ConfirmEmail(ctx context.Context, id, confirmToken string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET email_confirmed = true, confirm_token = ''
		 WHERE id = $1 AND confirm_token = $2 AND confirm_token <> ''`,
		id, confirmToken,
	)
	if err != nil {
		return false, fmt.Errorf("メールアドレスの確認に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// UpdateLastLogin は最終ログイン日時を更新する。
func (r *PostgresAccountRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("最終ログイン日時の更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのアカウントを削除する。
func (r *PostgresAccountRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// SearchMatches は検索者の条件に合致する候補を取得する。
// 半径はkm単位で受け取り、earth_distanceに合わせてメートルに変換して比較する。
func (r *PostgresAccountRepo) SearchMatches(ctx context.Context, seeker *model.Account, types []model.SearchType) ([]model.MatchCandidate, error) {
	typeStrs := make([]string, len(types))
	for i, t := range types {
		typeStrs[i] = string(t)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, display_name, search_type, genres, instruments, description
		 FROM accounts
		 WHERE active = true
		   AND id <> $1
		   AND search_type = ANY($2)
		   AND earth_distance(ll_to_earth(latitude, longitude), ll_to_earth($3, $4)) <= $5
		   AND genres && $6
		   AND instruments && $7`,
		seeker.ID, pq.Array(typeStrs),
		seeker.Location.Latitude, seeker.Location.Longitude,
		seeker.SearchRadiusKm*1000,
		pq.Array(seeker.Genres), pq.Array(seeker.Instruments),
	)
	if err != nil {
		return nil, fmt.Errorf("マッチ候補の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var candidates []model.MatchCandidate
	for rows.Next() {
		var c model.MatchCandidate
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.SearchType,
			pq.Array(&c.Genres), pq.Array(&c.Instruments), &c.Description); err != nil {
			return nil, fmt.Errorf("マッチ候補の読み取りに失敗しました: %w", err)
		}
		c.FullSearchType = c.SearchType.Description()
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("マッチ候補の検索に失敗しました: %w", err)
	}

	return candidates, nil
}

// SearchByNameOrEmail は表示名またはメールアドレスの部分一致でアカウントを検索する。
func (r *PostgresAccountRepo) SearchByNameOrEmail(ctx context.Context, query, excludeID string) ([]AccountSummary, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, display_name, email
		 FROM accounts
		 WHERE (display_name ILIKE $1 OR email ILIKE $1) AND id <> $2
		 ORDER BY display_name`,
		pattern, excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("アカウントの検索に失敗しました: %w", err)
	}
	defer rows.Close()

	var summaries []AccountSummary
	for rows.Next() {
		var s AccountSummary
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Email); err != nil {
			return nil, fmt.Errorf("検索結果の読み取りに失敗しました: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アカウントの検索に失敗しました: %w", err)
	}

	return summaries, nil
}

// SetAdmin は管理者フラグを設定する。
func (r *PostgresAccountRepo) SetAdmin(ctx context.Context, id string, admin bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET admin = $2 WHERE id = $1`,
		id, admin,
	)
	if err != nil {
		return fmt.Errorf("管理者フラグの更新に失敗しました: %w", err)
	}
	return nil
}

// ClearDescription は説明文を空にする。
func (r *PostgresAccountRepo) ClearDescription(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET description = '' WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("説明文のクリアに失敗しました: %w", err)
	}
	return nil
}

// ClearDisplayName は表示名を既定値に置き換える。
func (r *PostgresAccountRepo) ClearDisplayName(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET display_name = 'No Name' WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("表示名のクリアに失敗しました: %w", err)
	}
	return nil
}

// ListLocations は座標が設定されている全アカウントの座標を返す。
// 未設定の既定値（原点）は除外する。
func (r *PostgresAccountRepo) ListLocations(ctx context.Context) ([]model.GeoPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT longitude, latitude FROM accounts
		 WHERE NOT (longitude = 0 AND latitude = 0)`,
	)
	if err != nil {
		return nil, fmt.Errorf("位置情報の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var points []model.GeoPoint
	for rows.Next() {
		var p model.GeoPoint
		if err := rows.Scan(&p.Longitude, &p.Latitude); err != nil {
			return nil, fmt.Errorf("位置情報の読み取りに失敗しました: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("位置情報の取得に失敗しました: %w", err)
	}

	return points, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
