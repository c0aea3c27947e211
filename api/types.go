package api

import (
	"context"

	"taskboard/domain"
)

// TaskStore abstracts task persistence for handlers.
type TaskStore interface {
	CreateTask(ctx context.Context, owner, title string) (domain.Task, error)
	ListTasks(ctx context.Context, owner string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, owner, id string) (bool, error)
}

// UserStore abstracts credential persistence for the auth service.
type UserStore interface {
	FindUser(ctx context.Context, username string) (*domain.User, error)
	InsertUser(ctx context.Context, username, passwordHash string) (domain.User, error)
}

// DuplicateUserError is reported by a UserStore whose insert lost to an
// existing record for the same username.
type DuplicateUserError interface {
	error
	DuplicateUser()
}

// AuthService is implemented by types able to register users, exchange
// credentials for tokens and resolve tokens back to usernames.
type AuthService interface {
	SignUp(ctx context.Context, creds domain.Credentials) (domain.User, error)
	LogIn(ctx context.Context, creds domain.Credentials) (string, error)
	UserFromAuthHeader(header string) (string, error)
}
