package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-records/internal/domain/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

var _ notifications.Repository = (*NotificationsRepo)(nil)

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

const notificationColumns = `
	id, recipient_id, pet_id, type, title, message,
	read, read_at, deleted, created_at, send_at`

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		n.ID, n.RecipientID, nullString(n.PetID), string(n.Type), n.Title, n.Message,
		n.Read, nullTime(n.ReadAt), n.Deleted, n.CreatedAt, n.SendAt,
	)
	return err
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return notifications.Notification{}, notifications.ErrNotFound
	}
	return scanNotification(r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id::text = $1`, id))
}

func (r *NotificationsRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]notifications.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_id::text = $1 AND NOT deleted AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC
	`, recipientID, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE, read_at = $2
		WHERE id::text = $1 AND NOT deleted
	`, id, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}

func (r *NotificationsRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET deleted = TRUE WHERE id::text = $1 AND NOT deleted`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}

func scanNotification(row rowScanner) (notifications.Notification, error) {
	var (
		n      notifications.Notification
		petID  sql.NullString
		typ    string
		readAt sql.NullTime
	)
	if err := row.Scan(
		&n.ID, &n.RecipientID, &petID, &typ, &n.Title, &n.Message,
		&n.Read, &readAt, &n.Deleted, &n.CreatedAt, &n.SendAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notifications.Notification{}, notifications.ErrNotFound
		}
		return notifications.Notification{}, err
	}
	n.PetID = petID.String
	n.Type = notifications.Type(typ)
	n.ReadAt = timePtr(readAt)
	return n, nil
}
