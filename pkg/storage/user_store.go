package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// UserStore defines the interface for user-related storage operations.
type UserStore interface {
	UserAdd(ctx context.Context, newUser model.UserInfo, initialCredits int) (int, error)
	UserGet(ctx context.Context, userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error)
	UserUpdate(ctx context.Context, user *model.User, userUpdateInfo model.UserInfo, userFilter model.UserFilter) error
	UserDelete(ctx context.Context, user *model.User) error
}

// UserStorage implements the UserStore interface.
type UserStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewUserStorage creates a new UserStorage instance.
func NewUserStorage(storage *Storage) *UserStorage {
	return &UserStorage{storage: storage, logger: storage.logger}
}

// UserAdd adds a new user together with its credit balance.
func (s *UserStorage) UserAdd(ctx context.Context, newUser model.UserInfo, initialCredits int) (int, error) {
	db := s.storage.GetDatabase()
	now := time.Now().UTC()

	var id int
	err := db.Transact(ctx, func(q Querier) error {
		var err error
		id, err = q.Insert(ctx,
			"INSERT INTO users (email, username, password_hash, active, created, updated) VALUES (?, ?, ?, ?, ?, ?)",
			newUser.Email, newUser.Username, newUser.PasswordHash, newUser.Active, now, now,
		)
		if err != nil {
			return classify("add user", err)
		}

		if _, err := q.Exec(ctx,
			"INSERT INTO credits (user_id, amount, created, updated) VALUES (?, ?, ?, ?)",
			id, initialCredits, now, now,
		); err != nil {
			return classify("create credit balance", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to add user", log.Fields{"error": err, "email": newUser.Email})
		return 0, err
	}

	s.logger.Info(ctx, "User added", log.Fields{"userID": id})
	return id, nil
}

// UserGet retrieves users based on the provided info and filter.
func (s *UserStorage) UserGet(ctx context.Context, userInfo model.UserInfo, userFilter model.UserFilter) ([]*model.User, error) {
	db := s.storage.GetDatabase()
	query := "SELECT id, email, username, password_hash, active, created, updated FROM users WHERE 1=1"
	var args []interface{}

	if userFilter.ID {
		query += " AND id = ?"
		args = append(args, userInfo.ID)
	}
	if userFilter.Email {
		query += " AND email = ?"
		args = append(args, userInfo.Email)
	}
	if userFilter.Username {
		query += " AND username = ?"
		args = append(args, userInfo.Username)
	}
	if userFilter.Active {
		query += " AND active = ?"
		args = append(args, userInfo.Active)
	}
	query += " ORDER BY id"

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Active, &u.Created, &u.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// UserUpdate updates the fields of user selected by userFilter.
func (s *UserStorage) UserUpdate(ctx context.Context, user *model.User, userUpdateInfo model.UserInfo, userFilter model.UserFilter) error {
	sets := []string{"updated = ?"}
	args := []interface{}{time.Now().UTC()}

	if userFilter.Email {
		sets = append(sets, "email = ?")
		args = append(args, userUpdateInfo.Email)
	}
	if userFilter.Username {
		sets = append(sets, "username = ?")
		args = append(args, userUpdateInfo.Username)
	}
	if userFilter.PasswordHash {
		sets = append(sets, "password_hash = ?")
		args = append(args, userUpdateInfo.PasswordHash)
	}
	if userFilter.Active {
		sets = append(sets, "active = ?")
		args = append(args, userUpdateInfo.Active)
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, user.ID)

	result, err := s.storage.GetDatabase().Exec(ctx, query, args...)
	if err != nil {
		return classify("update user", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return model.NewError(model.ErrNotFound, "update user", "user %d not found", user.ID)
	}
	return nil
}

// UserDelete removes a user from the database. Owned rows go with it through the foreign keys.
func (s *UserStorage) UserDelete(ctx context.Context, user *model.User) error {
	_, err := s.storage.GetDatabase().Exec(ctx, "DELETE FROM users WHERE id = ?", user.ID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
