package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"birthfire/internal/models"
	"birthfire/internal/store"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, birthday, birthday_md, timezone,
       email_verified, COALESCE(last_birthday_message_date, ''),
       created_at, updated_at`

type postgresUserStore struct {
	db *sql.DB
}

// NewPostgresUserStore creates a UserStore backed by the users table.
func NewPostgresUserStore(db *sql.DB) store.UserStore {
	return &postgresUserStore{db: db}
}

func (r *postgresUserStore) Create(ctx context.Context, user *models.User) (string, error) {
	md, err := models.MonthDay(user.Birthday)
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO birthfire_schema.users (name, email, birthday, birthday_md, timezone, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id string
	err = r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Birthday, md, user.Timezone, user.EmailVerified,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return "", store.ErrEmailTaken
		}
		return "", err
	}

	user.ID = id
	user.BirthdayMD = md
	return id, nil
}

func (r *postgresUserStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM birthfire_schema.users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *postgresUserStore) Update(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	set := "updated_at = now()"
	args := []interface{}{userID}
	argIndex := 2

	add := func(column string, value interface{}) {
		set += fmt.Sprintf(", %s = $%d", column, argIndex)
		args = append(args, value)
		argIndex++
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Timezone != nil {
		add("timezone", *patch.Timezone)
	}
	if patch.EmailVerified != nil {
		add("email_verified", *patch.EmailVerified)
	}
	if patch.Birthday != nil {
		md, err := models.MonthDay(*patch.Birthday)
		if err != nil {
			return nil, err
		}
		add("birthday", *patch.Birthday)
		add("birthday_md", md)
		// The delivery marker refers to the old recurrence; a changed
		// birthday must not suppress the next occurrence.
		set += ", last_birthday_message_date = NULL"
	}

	query := `UPDATE birthfire_schema.users SET ` + set + ` WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (r *postgresUserStore) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM birthfire_schema.users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (r *postgresUserStore) FindEligibleCandidates(ctx context.Context, monthDays, excludedDates []string, verifiedOnly bool) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM birthfire_schema.users
		WHERE birthday_md = ANY($1)
		  AND (last_birthday_message_date IS NULL OR NOT (last_birthday_message_date = ANY($2)))`
	args := []interface{}{pq.Array(monthDays), pq.Array(excludedDates)}

	if verifiedOnly {
		query += ` AND email_verified`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *postgresUserStore) MarkDelivered(ctx context.Context, userID, today string) (bool, error) {
	query := `
		UPDATE birthfire_schema.users
		SET last_birthday_message_date = $2, updated_at = now()
		WHERE id = $1
		  AND last_birthday_message_date IS DISTINCT FROM $2`

	result, err := r.db.ExecContext(ctx, query, userID, today)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *postgresUserStore) ScanAll(ctx context.Context, fn func(models.User) error) error {
	query := `SELECT ` + userColumns + ` FROM birthfire_schema.users ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return err
		}
		if err := fn(*user); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *postgresUserStore) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Birthday,
		&user.BirthdayMD,
		&user.Timezone,
		&user.EmailVerified,
		&user.LastDeliveredDate,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
