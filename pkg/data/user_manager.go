// Package data provides data management functionality for the mind-map backend.
// This file contains operations related to user management.
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"github.com/toM7x7/LLM-mindmap/pkg/event"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

// UserOperations defines the interface for user-related operations
type UserOperations interface {
	UserAdd(ctx context.Context, email, username, password string) (*model.User, error)
	UserAuthenticate(ctx context.Context, email, password string) (*model.User, error)
	UserGet(ctx context.Context, id int) (*model.User, error)
	UserGetByEmail(ctx context.Context, email string) (*model.User, error)
	UserUpdate(ctx context.Context, user *model.User, username, password *string) (*model.User, error)
	UserDelete(ctx context.Context, user *model.User) error
}

// UserManager handles all user-related operations.
type UserManager struct {
	userStore    storage.UserStore
	eventManager *event.EventManager
	logger       *log.Logger
	hashCost     int
}

// NewUserManager creates a new UserManager instance.
func NewUserManager(userStore storage.UserStore, eventManager *event.EventManager, logger *log.Logger) (*UserManager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	ctx := context.Background()

	if userStore == nil {
		logger.Error(ctx, "UserStore not initialized", nil)
		return nil, fmt.Errorf("userStore not initialized")
	}
	if eventManager == nil {
		logger.Error(ctx, "EventManager not initialized", nil)
		return nil, fmt.Errorf("eventManager not initialized")
	}

	return &UserManager{
		userStore:    userStore,
		eventManager: eventManager,
		logger:       logger,
		hashCost:     bcrypt.DefaultCost,
	}, nil
}

// SetHashCost changes the bcrypt cost used for new password hashes.
func (um *UserManager) SetHashCost(cost int) {
	um.hashCost = cost
}

// UserAdd registers a new user and grants the initial credit balance.
func (um *UserManager) UserAdd(ctx context.Context, email, username, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return nil, model.NewError(model.ErrValidation, "add user", "email: %v", err)
	}
	if password == "" {
		return nil, model.NewError(model.ErrValidation, "add user", "password must not be empty")
	}

	um.logger.Info(ctx, "Adding new user", log.Fields{"email": email})

	existing, err := um.userStore.UserGet(ctx, model.UserInfo{Email: email}, model.UserFilter{Email: true})
	if err != nil {
		um.logger.Error(ctx, "Error checking user existence", log.Fields{"error": err, "email": email})
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if len(existing) > 0 {
		um.logger.Warn(ctx, "User already exists", log.Fields{"email": email})
		return nil, model.NewError(model.ErrConflict, "add user", "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), um.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := um.userStore.UserAdd(ctx, model.UserInfo{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
	}, model.InitialCredits)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, model.NewError(model.ErrConflict, "add user", "Email already registered")
		}
		um.logger.Error(ctx, "Failed to create user", log.Fields{"error": err, "email": email})
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := um.UserGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	um.eventManager.Publish(event.Event{Type: event.UserCreated, Data: user})
	um.logger.Info(ctx, "User added successfully", log.Fields{"userID": userID})
	return user, nil
}

// UserAuthenticate verifies the credentials and returns the matching active user.
func (um *UserManager) UserAuthenticate(ctx context.Context, email, password string) (*model.User, error) {
	users, err := um.userStore.UserGet(ctx, model.UserInfo{Email: strings.TrimSpace(email)}, model.UserFilter{Email: true})
	if err != nil {
		um.logger.Error(ctx, "Error retrieving user", log.Fields{"error": err})
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	if len(users) == 0 {
		um.logger.Warn(ctx, "Authentication failed: unknown email", nil)
		return nil, model.NewError(model.ErrUnauthorized, "authenticate", "Incorrect email or password")
	}

	user := users[0]
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		um.logger.Warn(ctx, "Authentication failed", log.Fields{"userID": user.ID})
		return nil, model.NewError(model.ErrUnauthorized, "authenticate", "Incorrect email or password")
	}
	if !user.Active {
		return nil, model.NewError(model.ErrUnauthorized, "authenticate", "Inactive user")
	}

	um.logger.Info(ctx, "User authenticated successfully", log.Fields{"userID": user.ID})
	return user, nil
}

// UserGet retrieves a user by id.
func (um *UserManager) UserGet(ctx context.Context, id int) (*model.User, error) {
	users, err := um.userStore.UserGet(ctx, model.UserInfo{ID: id}, model.UserFilter{ID: true})
	if err != nil {
		um.logger.Error(ctx, "Failed to get users", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	if len(users) == 0 {
		return nil, model.NewError(model.ErrNotFound, "get user", "user %d not found", id)
	}
	return users[0], nil
}

// UserGetByEmail retrieves a user by account email.
func (um *UserManager) UserGetByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := um.userStore.UserGet(ctx, model.UserInfo{Email: strings.TrimSpace(email)}, model.UserFilter{Email: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	if len(users) == 0 {
		return nil, model.NewError(model.ErrNotFound, "get user", "no user with email %q", email)
	}
	return users[0], nil
}

// UserUpdate changes the username and/or password of user. Nil arguments are left untouched.
func (um *UserManager) UserUpdate(ctx context.Context, user *model.User, username, password *string) (*model.User, error) {
	var (
		info   model.UserInfo
		filter model.UserFilter
	)
	if username != nil {
		info.Username = strings.TrimSpace(*username)
		filter.Username = true
	}
	if password != nil {
		if *password == "" {
			return nil, model.NewError(model.ErrValidation, "update user", "password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), um.hashCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		info.PasswordHash = hash
		filter.PasswordHash = true
	}

	um.logger.Info(ctx, "Updating user", log.Fields{"userID": user.ID})
	if err := um.userStore.UserUpdate(ctx, user, info, filter); err != nil {
		um.logger.Error(ctx, "Failed to update user", log.Fields{"error": err, "userID": user.ID})
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return um.UserGet(ctx, user.ID)
}

// UserDelete removes a user and all associated data.
func (um *UserManager) UserDelete(ctx context.Context, user *model.User) error {
	um.logger.Info(ctx, "Deleting user", log.Fields{"userID": user.ID})

	if err := um.userStore.UserDelete(ctx, user); err != nil {
		um.logger.Error(ctx, "Failed to delete user", log.Fields{"error": err, "userID": user.ID})
		return fmt.Errorf("failed to delete user: %w", err)
	}

	um.eventManager.Publish(event.Event{
		Type: event.UserDeleted,
		Data: user,
	})

	um.logger.Info(ctx, "User deleted successfully", log.Fields{"userID": user.ID})
	return nil
}
