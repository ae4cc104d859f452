package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/kanban-be/internal/database"
	"github.com/isdelr/kanban-be/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gotest.tools/v3/assert"
)

type stubIssuer struct{}

func (stubIssuer) GenerateToken(user models.User) (string, error) {
	return fmt.Sprintf("token-%d", user.ID), nil
}

// stepClock advances one second on every reading.
type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "kanban.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { db.Close() })
	assert.NilError(t, database.Migrate(context.Background(), db))
	return db
}

func newTestServices(t *testing.T) (*UserService, *TaskService, *stepClock) {
	t.Helper()
	db := newTestDB(t)
	clock := &stepClock{t: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	users := NewUserService(db, stubIssuer{}, bcrypt.MinCost)
	users.now = clock.now
	tasks := NewTaskService(db)
	tasks.now = clock.now
	return users, tasks, clock
}

func mustRegister(t *testing.T, users *UserService, name string) models.User {
	t.Helper()
	u, err := users.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		FullName: "User " + name,
		Password: name + "-pw",
	})
	assert.NilError(t, err)
	return u
}

func assertValidation(t *testing.T, err error, msg string) {
	t.Helper()
	var verr *ValidationError
	assert.Assert(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	if msg != "" {
		assert.Equal(t, verr.Message, msg)
	}
}
