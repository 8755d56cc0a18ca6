package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/amadorflix/amadorflix-server/database/model"
)

// UserStore is the sqlx implementation of database.UserStore.
type UserStore struct {
	*conn
}

// NewUserStore opens the users store and creates its schema if necessary.
func NewUserStore(dsn string) (*UserStore, error) {
	c, err := open(dsn)
	if err != nil {
		return nil, err
	}
	if err := c.initSchema(usersSchema); err != nil {
		return nil, err
	}
	return &UserStore{conn: c}, nil
}

const userColumns = `id, email, name, password, access, premium, image, created`

// GetUserByID retrieves a user by their ID.
func (s *UserStore) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE id=? LIMIT 1`)
	if err := s.read.GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their unique email.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := s.rebind(`SELECT ` + userColumns + ` FROM users WHERE email=? LIMIT 1`)
	if err := s.read.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// InsertUser inserts a new user. The email is unique; a taken email returns
// model.ErrDuplicate.
func (s *UserStore) InsertUser(ctx context.Context, user *model.User) error {
	if _, err := s.GetUserByEmail(ctx, user.Email); err == nil {
		return model.ErrDuplicate
	}
	query := s.rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.write.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Password,
		user.Access,
		user.Premium,
		user.Image,
		user.Created)
	return err
}

// SetAccess sets the access level of a user.
func (s *UserStore) SetAccess(ctx context.Context, userID string, access int) error {
	query := s.rebind(`UPDATE users SET access=? WHERE id=?`)
	result, err := s.write.ExecContext(ctx, query, access, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result)
}

// SetPremium flips the premium flag of a user.
func (s *UserStore) SetPremium(ctx context.Context, userID string, premium bool) error {
	query := s.rebind(`UPDATE users SET premium=? WHERE id=?`)
	result, err := s.write.ExecContext(ctx, query, premium, userID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(result)
}

// CountUsers returns the total number of users.
func (s *UserStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.read.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// CountPremiumUsers returns the number of premium users.
func (s *UserStore) CountPremiumUsers(ctx context.Context) (int64, error) {
	var count int64
	query := s.rebind(`SELECT COUNT(*) FROM users WHERE premium=?`)
	err := s.read.GetContext(ctx, &count, query, true)
	return count, err
}

// RecentUsers returns the most recently created users.
func (s *UserStore) RecentUsers(ctx context.Context, limit int) ([]model.User, error) {
	users := []model.User{}
	query := s.rebind(`SELECT ` + userColumns + ` FROM users ORDER BY created DESC LIMIT ?`)
	err := s.read.SelectContext(ctx, &users, query, limit)
	return users, err
}

// InsertPayment records a new pending payment.
func (s *UserStore) InsertPayment(ctx context.Context, payment *model.Payment) error {
	query := s.rebind(`INSERT INTO payments (txid, userid, amount_cents, code, status, created, paid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.write.ExecContext(ctx, query,
		payment.TxID,
		payment.UserID,
		payment.AmountCents,
		payment.Code,
		payment.Status,
		payment.Created,
		nil)
	return err
}

// GetPayment retrieves a payment by transaction ID.
func (s *UserStore) GetPayment(ctx context.Context, txID string) (*model.Payment, error) {
	var row struct {
		model.Payment
		Paid sql.NullTime `db:"paid"`
	}
	query := s.rebind(`SELECT txid, userid, amount_cents, code, status, created, paid
		FROM payments WHERE txid=? LIMIT 1`)
	if err := s.read.GetContext(ctx, &row, query, txID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	payment := row.Payment
	if row.Paid.Valid {
		payment.Paid = row.Paid.Time
	}
	return &payment, nil
}

// MarkPaymentPaid marks a payment as paid. Marking an already paid payment
// leaves it untouched.
func (s *UserStore) MarkPaymentPaid(ctx context.Context, txID string) error {
	query := s.rebind(`UPDATE payments SET status=?, paid=? WHERE txid=? AND status=?`)
	_, err := s.write.ExecContext(ctx, query,
		model.PaymentPaid, time.Now().UTC(), txID, model.PaymentPending)
	return err
}

// affectedOrNotFound maps a zero-row update to model.ErrNotFound.
func affectedOrNotFound(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
