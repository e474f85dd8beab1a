package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"peerconnect/api/internal/quota"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, credibility_score)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CredibilityScore)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, credibility_score, created_at
		FROM users
		WHERE username=$1
	`, username).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CredibilityScore, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, credibility_score, created_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CredibilityScore, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) MutateCredibility(ctx context.Context, userID string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET credibility_score = credibility_score + $2 WHERE id=$1
	`, userID, delta)
	if err != nil {
		return fmt.Errorf("mutate credibility: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) InsertDoubt(ctx context.Context, doubt Doubt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doubts (id, user_id, title, content, category, is_anonymous, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doubt.ID, doubt.UserID, doubt.Title, doubt.Content, doubt.Category, doubt.IsAnonymous, doubt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert doubt: %w", err)
	}
	return nil
}

// DeleteDoubt removes a doubt and its answers in one transaction.
// Notifications keep their doubt_id; the reference is informational.
func (s *PostgresStore) DeleteDoubt(ctx context.Context, doubtID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete doubt: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE doubt_id=$1`, doubtID); err != nil {
		return fmt.Errorf("delete doubt answers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM doubts WHERE id=$1`, doubtID); err != nil {
		return fmt.Errorf("delete doubt: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) GetDoubt(ctx context.Context, doubtID string) (Doubt, error) {
	var item Doubt
	err := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.user_id, u.username, d.title, d.content, d.category, d.is_anonymous, d.created_at
		FROM doubts d
		JOIN users u ON u.id = d.user_id
		WHERE d.id=$1
	`, doubtID).Scan(
		&item.ID,
		&item.UserID,
		&item.Username,
		&item.Title,
		&item.Content,
		&item.Category,
		&item.IsAnonymous,
		&item.CreatedAt,
	)
	if err != nil {
		return Doubt{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListDoubts(ctx context.Context) ([]Doubt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.user_id, u.username, d.title, d.content, d.category, d.is_anonymous, d.created_at
		FROM doubts d
		JOIN users u ON u.id = d.user_id
		ORDER BY d.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}
	defer rows.Close()

	items := make([]Doubt, 0)
	for rows.Next() {
		var item Doubt
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Username,
			&item.Title,
			&item.Content,
			&item.Category,
			&item.IsAnonymous,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan doubt: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doubts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListDoubtTitles(ctx context.Context) ([]DoubtTitle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM doubts`)
	if err != nil {
		return nil, fmt.Errorf("list doubt titles: %w", err)
	}
	defer rows.Close()

	items := make([]DoubtTitle, 0)
	for rows.Next() {
		var item DoubtTitle
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, fmt.Errorf("scan doubt title: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doubt titles: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertAnswer(ctx context.Context, answer Answer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (id, doubt_id, user_id, step1, step2, step3, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, answer.ID, answer.DoubtID, answer.UserID, answer.Step1, answer.Step2, answer.Step3, answer.IsVerified, answer.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// DeleteAnswer removes a single answer. Used as the compensation when a
// later step of the answer workflow fails after the insert committed.
func (s *PostgresStore) DeleteAnswer(ctx context.Context, answerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM answers WHERE id=$1`, answerID)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnswer(ctx context.Context, answerID string) (Answer, error) {
	var item Answer
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.doubt_id, a.user_id, u.username, a.step1, a.step2, a.step3, a.is_verified, a.created_at
		FROM answers a
		JOIN users u ON u.id = a.user_id
		WHERE a.id=$1
	`, answerID).Scan(
		&item.ID,
		&item.DoubtID,
		&item.UserID,
		&item.Username,
		&item.Step1,
		&item.Step2,
		&item.Step3,
		&item.IsVerified,
		&item.CreatedAt,
	)
	if err != nil {
		return Answer{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListAnswers(ctx context.Context, doubtID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.doubt_id, a.user_id, u.username, a.step1, a.step2, a.step3, a.is_verified, a.created_at
		FROM answers a
		JOIN users u ON u.id = a.user_id
		WHERE a.doubt_id=$1
		ORDER BY a.created_at ASC
	`, doubtID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	items := make([]Answer, 0)
	for rows.Next() {
		var item Answer
		if err := rows.Scan(
			&item.ID,
			&item.DoubtID,
			&item.UserID,
			&item.Username,
			&item.Step1,
			&item.Step2,
			&item.Step3,
			&item.IsVerified,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return items, nil
}

// MarkAnswerVerified flips the verified flag exactly once: the rows-affected
// result distinguishes a fresh verification from an already-verified answer.
func (s *PostgresStore) MarkAnswerVerified(ctx context.Context, answerID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE answers
		SET is_verified=TRUE
		WHERE id=$1 AND NOT is_verified
	`, answerID)
	if err != nil {
		return false, fmt.Errorf("mark answer verified: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark answer verified rows: %w", err)
	}
	return affected > 0, nil
}

// ClearAnswerVerified undoes MarkAnswerVerified when a later step of the
// verification workflow fails, so the rows-affected guard can fire again
// on retry.
func (s *PostgresStore) ClearAnswerVerified(ctx context.Context, answerID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE answers SET is_verified=FALSE WHERE id=$1`, answerID)
	if err != nil {
		return fmt.Errorf("clear answer verified: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertNotification(ctx context.Context, notification Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, message, kind, is_read, doubt_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`, notification.ID, notification.UserID, notification.Message, notification.Kind, notification.IsRead, notification.DoubtID, notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteNotification(ctx context.Context, notificationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id=$1`, notificationID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, kind, is_read, COALESCE(doubt_id, ''), created_at
		FROM notifications
		WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0)
	for rows.Next() {
		var item Notification
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Message,
			&item.Kind,
			&item.IsRead,
			&item.DoubtID,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) MarkNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND NOT is_read
	`, userID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// Daily tracking. These implement quota.TrackingStore; the conditional
// upsert in TryIncrementPosted is the single atomic
// get-or-create-and-increment that serializes same-user same-day posts.

func (s *PostgresStore) Get(ctx context.Context, userID, day string) (quota.Record, error) {
	var record quota.Record
	err := s.db.QueryRowContext(ctx, `
		SELECT doubts_posted, bonus_limit
		FROM daily_tracking
		WHERE user_id=$1 AND tracking_date=$2
	`, userID, day).Scan(&record.PostedToday, &record.BonusLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Record{}, nil
	}
	if err != nil {
		return quota.Record{}, fmt.Errorf("get daily tracking: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) TryIncrementPosted(ctx context.Context, userID, day string, baseLimit int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_tracking (user_id, tracking_date, doubts_posted, bonus_limit)
		VALUES ($1, $2, 1, 0)
		ON CONFLICT (user_id, tracking_date) DO UPDATE
		SET doubts_posted = daily_tracking.doubts_posted + 1, updated_at = NOW()
		WHERE daily_tracking.doubts_posted < $3 + daily_tracking.bonus_limit
	`, userID, day, baseLimit)
	if err != nil {
		return false, fmt.Errorf("increment doubts posted: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment doubts posted rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) DecrementPosted(ctx context.Context, userID, day string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE daily_tracking
		SET doubts_posted = doubts_posted - 1, updated_at = NOW()
		WHERE user_id=$1 AND tracking_date=$2 AND doubts_posted > 0
	`, userID, day)
	if err != nil {
		return fmt.Errorf("decrement doubts posted: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrementBonus(ctx context.Context, userID, day string, amount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_tracking (user_id, tracking_date, doubts_posted, bonus_limit)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (user_id, tracking_date) DO UPDATE
		SET bonus_limit = daily_tracking.bonus_limit + EXCLUDED.bonus_limit, updated_at = NOW()
	`, userID, day, amount)
	if err != nil {
		return fmt.Errorf("increment bonus limit: %w", err)
	}
	return nil
}

// Refresh sessions in Postgres, used when Redis is not configured.

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.username, u.role, u.credibility_score
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Username, &user.Role, &user.CredibilityScore)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
