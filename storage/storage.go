package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/google/uuid"

	"taskboard/domain"
)

// ErrDuplicateUser is returned by InsertUser when the username is taken.
// The uniqueness check is the storage engine's insert itself, so concurrent
// signups for the same name cannot both succeed.
var ErrDuplicateUser = duplicateUserError{}

type duplicateUserError struct{}

func (duplicateUserError) Error() string  { return "username already exists" }
func (duplicateUserError) DuplicateUser() {}

// Storage holds the credential and task stores. Users live in one table
// (PartitionKey = RowKey = username), tasks in another (PartitionKey = owner,
// RowKey = task id) so every task operation is keyed by its owner.
type Storage struct {
	userTable *aztables.Client
	taskTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, usersTable, tasksTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		userTable: svc.NewClient(usersTable),
		taskTable: svc.NewClient(tasksTable),
	}, nil
}

// EnsureTables creates both tables, tolerating ones that already exist. It
// doubles as the startup connectivity probe.
func (s *Storage) EnsureTables(ctx context.Context) error {
	for _, c := range []*aztables.Client{s.userTable, s.taskTable} {
		if _, err := c.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return err
			}
		}
	}
	return nil
}

type userEntity struct {
	aztables.Entity
	PasswordHash string `json:"PasswordHash"`
}

type taskEntity struct {
	aztables.Entity
	Title     string `json:"Title"`
	Completed bool   `json:"Completed"`
	Created   string `json:"Created"`
}

func (e taskEntity) toTask() domain.Task {
	created, _ := strconv.ParseInt(e.Created, 10, 64)
	return domain.Task{
		ID:        e.RowKey,
		Title:     e.Title,
		Completed: e.Completed,
		Owner:     e.PartitionKey,
		Created:   created,
	}
}

// FindUser returns the user record, or nil when the username is unknown.
func (s *Storage) FindUser(ctx context.Context, username string) (*domain.User, error) {
	ent, err := s.userTable.GetEntity(ctx, username, username, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var u userEntity
	if err := json.Unmarshal(ent.Value, &u); err != nil {
		return nil, err
	}
	return &domain.User{Username: u.PartitionKey, PasswordHash: u.PasswordHash}, nil
}

// InsertUser adds a credential record, failing with ErrDuplicateUser when the
// username already exists.
func (s *Storage) InsertUser(ctx context.Context, username, passwordHash string) (domain.User, error) {
	ent := userEntity{
		Entity:       aztables.Entity{PartitionKey: username, RowKey: username},
		PasswordHash: passwordHash,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.User{}, err
	}
	if _, err := s.userTable.AddEntity(ctx, payload, nil); err != nil {
		if isStatus(err, http.StatusConflict) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, err
	}
	return domain.User{Username: username, PasswordHash: passwordHash}, nil
}

// CreateTask stores a fresh task for the owner and returns it.
func (s *Storage) CreateTask(ctx context.Context, owner, title string) (domain.Task, error) {
	ent := taskEntity{
		Entity:  aztables.Entity{PartitionKey: owner, RowKey: uuid.NewString()},
		Title:   title,
		Created: strconv.FormatInt(nextTimestamp(), 10),
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Task{}, err
	}
	return ent.toTask(), nil
}

// ListTasks retrieves all tasks owned by the given user in creation order.
func (s *Storage) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + escapeFilterValue(owner) + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, ent.toTask())
		}
	}
	// The table orders by RowKey; callers expect creation order.
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Created != tasks[j].Created {
			return tasks[i].Created < tasks[j].Created
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// UpdateTask merges the patch into the task identified by (owner, id) and
// returns the updated record, or nil when no such task exists for that owner.
// The merge is a single conditional write keyed on both owner and id, so the
// ownership check cannot race with the mutation.
func (s *Storage) UpdateTask(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if !patch.Empty() {
		fields := map[string]any{
			"PartitionKey": owner,
			"RowKey":       id,
		}
		if patch.Title != nil {
			fields["Title"] = *patch.Title
		}
		if patch.Completed != nil {
			fields["Completed"] = *patch.Completed
		}
		payload, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		et := azcore.ETagAny
		_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
			IfMatch:    &et,
			UpdateMode: aztables.UpdateModeMerge,
		})
		if err != nil {
			if isStatus(err, http.StatusNotFound) {
				return nil, nil
			}
			return nil, err
		}
	}

	ent, err := s.taskTable.GetEntity(ctx, owner, id, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var task taskEntity
	if err := json.Unmarshal(ent.Value, &task); err != nil {
		return nil, err
	}
	updated := task.toTask()
	return &updated, nil
}

// DeleteTask removes the task identified by (owner, id). It reports false when
// nothing was removed; a task owned by someone else looks the same as a task
// that never existed.
func (s *Storage) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	if _, err := s.taskTable.DeleteEntity(ctx, owner, id, nil); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

// escapeFilterValue doubles single quotes so usernames cannot break out of the
// OData filter literal.
func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
