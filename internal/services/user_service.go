package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/isdelr/kanban-be/internal/database"
	"github.com/isdelr/kanban-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, input RegisterInput) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (string, models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(user models.User) (string, error)
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

var userColumns = []string{"id", "username", "email", "full_name", "password_hash", "created_at"}

// UserService provides business logic for user management.
type UserService struct {
	db       *database.DB
	tokens   TokenIssuer
	hashCost int
	now      func() time.Time
}

// NewUserService creates a new UserService. hashCost is the bcrypt cost.
func NewUserService(db *database.DB, tokens TokenIssuer, hashCost int) *UserService {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &UserService{
		db:       db,
		tokens:   tokens,
		hashCost: hashCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	switch {
	case input.Username == "":
		return models.User{}, invalid("Username is required")
	case input.Email == "":
		return models.User{}, invalid("Email is required")
	case input.FullName == "":
		return models.User{}, invalid("Full name is required")
	case input.Password == "":
		return models.User{}, invalid("Password is required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now(),
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		query, args, err := s.db.Builder().
			Select("COUNT(*)").
			From("users").
			Where(squirrel.Or{squirrel.Eq{"username": user.Username}, squirrel.Eq{"email": user.Email}}).
			ToSql()
		if err != nil {
			return err
		}
		var taken int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&taken); err != nil {
			return err
		}
		if taken > 0 {
			return ErrDuplicateUser
		}

		query, args, err = s.db.Builder().
			Insert("users").
			Columns("username", "email", "full_name", "password_hash", "created_at").
			Values(user.Username, user.Email, user.FullName, user.PasswordHash, user.CreatedAt).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, query, args...).Scan(&user.ID)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) || isUniqueViolation(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, fmt.Errorf("create user %q: %w", user.Username, err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials and issues a bearer token.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (string, models.User, error) {
	user, err := s.getUser(ctx, squirrel.Eq{"username": strings.TrimSpace(username)})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", models.User{}, fmt.Errorf("issue token for user %d: %w", user.ID, err)
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return token, user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	user, err := s.getUser(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ListUsers returns every user in insertion order.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	query, args, err := s.db.Builder().
		Select(userColumns...).
		From("users").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *UserService) getUser(ctx context.Context, where squirrel.Eq) (models.User, error) {
	query, args, err := s.db.Builder().
		Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return models.User{}, err
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user: %w", ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// isUniqueViolation catches a concurrent registration that slipped past the
// existence check. Both drivers report the constraint by name in the message.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// scanUser is a helper function to scan a single row into a User struct.
func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var user models.User
	err := scanner.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash, &user.CreatedAt)
	return user, err
}
