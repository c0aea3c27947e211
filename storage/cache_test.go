package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

type stubBackend struct {
	listTasksFn  func(ctx context.Context, owner string) ([]domain.Task, error)
	createTaskFn func(ctx context.Context, owner, title string) (domain.Task, error)
	updateTaskFn func(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error)
	deleteTaskFn func(ctx context.Context, owner, id string) (bool, error)
}

func (s *stubBackend) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	if s.listTasksFn == nil {
		return nil, errors.New("unexpected ListTasks call")
	}
	return s.listTasksFn(ctx, owner)
}

func (s *stubBackend) CreateTask(ctx context.Context, owner, title string) (domain.Task, error) {
	if s.createTaskFn == nil {
		return domain.Task{}, errors.New("unexpected CreateTask call")
	}
	return s.createTaskFn(ctx, owner, title)
}

func (s *stubBackend) UpdateTask(ctx context.Context, owner, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if s.updateTaskFn == nil {
		return nil, errors.New("unexpected UpdateTask call")
	}
	return s.updateTaskFn(ctx, owner, id, patch)
}

func (s *stubBackend) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	if s.deleteTaskFn == nil {
		return false, errors.New("unexpected DeleteTask call")
	}
	return s.deleteTaskFn(ctx, owner, id)
}

func newTestCache(t *testing.T, base backend, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(base, client, ttl), mr
}

func TestCacheListTasksMissThenHit(t *testing.T) {
	ctx := context.Background()
	owner := "alice"
	expected := []domain.Task{{ID: "t1", Title: "buy milk", Owner: owner}}

	var calls int
	cache, mr := newTestCache(t, &stubBackend{
		listTasksFn: func(ctx context.Context, o string) ([]domain.Task, error) {
			calls++
			if o != owner {
				t.Fatalf("unexpected owner: %s", o)
			}
			return append([]domain.Task(nil), expected...), nil
		},
	}, time.Minute)

	tasks, err := cache.ListTasks(ctx, owner)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if !reflect.DeepEqual(tasks, expected) {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
	if ttl := mr.TTL(tasksCacheKey(owner)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	cached, err := cache.ListTasks(ctx, owner)
	if err != nil {
		t.Fatalf("list cached tasks: %v", err)
	}
	if !reflect.DeepEqual(cached, expected) {
		t.Fatalf("unexpected cached tasks: %#v", cached)
	}
	if calls != 1 {
		t.Fatalf("expected cached fetch to avoid backend, calls=%d", calls)
	}
}

func TestCacheWritesEvict(t *testing.T) {
	ctx := context.Background()
	owner := "alice"

	var listCalls int
	cache, mr := newTestCache(t, &stubBackend{
		listTasksFn: func(ctx context.Context, o string) ([]domain.Task, error) {
			listCalls++
			return []domain.Task{{ID: "t1", Title: "buy milk", Owner: o}}, nil
		},
		createTaskFn: func(ctx context.Context, o, title string) (domain.Task, error) {
			return domain.Task{ID: "t2", Title: title, Owner: o}, nil
		},
		updateTaskFn: func(ctx context.Context, o, id string, patch domain.TaskPatch) (*domain.Task, error) {
			return &domain.Task{ID: id, Title: "renamed", Owner: o}, nil
		},
		deleteTaskFn: func(ctx context.Context, o, id string) (bool, error) {
			return true, nil
		},
	}, time.Minute)

	if _, err := cache.ListTasks(ctx, owner); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if !mr.Exists(tasksCacheKey(owner)) {
		t.Fatal("expected primed cache entry")
	}

	if _, err := cache.CreateTask(ctx, owner, "walk dog"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if mr.Exists(tasksCacheKey(owner)) {
		t.Fatal("create should evict the cached list")
	}

	if _, err := cache.ListTasks(ctx, owner); err != nil {
		t.Fatalf("re-prime cache: %v", err)
	}
	if _, err := cache.UpdateTask(ctx, owner, "t1", domain.TaskPatch{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists(tasksCacheKey(owner)) {
		t.Fatal("update should evict the cached list")
	}

	if _, err := cache.ListTasks(ctx, owner); err != nil {
		t.Fatalf("re-prime cache: %v", err)
	}
	if _, err := cache.DeleteTask(ctx, owner, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(tasksCacheKey(owner)) {
		t.Fatal("delete should evict the cached list")
	}

	if listCalls != 3 {
		t.Fatalf("expected 3 backend list calls, got %d", listCalls)
	}
}

func TestCacheMissedUpdateDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	owner := "alice"

	cache, mr := newTestCache(t, &stubBackend{
		listTasksFn: func(ctx context.Context, o string) ([]domain.Task, error) {
			return []domain.Task{{ID: "t1", Owner: o}}, nil
		},
		updateTaskFn: func(ctx context.Context, o, id string, patch domain.TaskPatch) (*domain.Task, error) {
			return nil, nil
		},
		deleteTaskFn: func(ctx context.Context, o, id string) (bool, error) {
			return false, nil
		},
	}, time.Minute)

	if _, err := cache.ListTasks(ctx, owner); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	task, err := cache.UpdateTask(ctx, owner, "missing", domain.TaskPatch{})
	if err != nil || task != nil {
		t.Fatalf("expected absent update, got task=%#v err=%v", task, err)
	}
	removed, err := cache.DeleteTask(ctx, owner, "missing")
	if err != nil || removed {
		t.Fatalf("expected absent delete, got removed=%v err=%v", removed, err)
	}
	if !mr.Exists(tasksCacheKey(owner)) {
		t.Fatal("no-op writes should leave the cached list in place")
	}
}

func TestCacheCorruptEntryFallsBack(t *testing.T) {
	ctx := context.Background()
	owner := "alice"
	expected := []domain.Task{{ID: "t1", Owner: owner}}

	var calls int
	cache, mr := newTestCache(t, &stubBackend{
		listTasksFn: func(ctx context.Context, o string) ([]domain.Task, error) {
			calls++
			return append([]domain.Task(nil), expected...), nil
		},
	}, time.Minute)

	if err := mr.Set(tasksCacheKey(owner), "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	tasks, err := cache.ListTasks(ctx, owner)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if !reflect.DeepEqual(tasks, expected) {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
	if calls != 1 {
		t.Fatalf("expected fallback to backend, calls=%d", calls)
	}
}

func TestCacheBackendErrorPropagates(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("table unavailable")

	cache, _ := newTestCache(t, &stubBackend{
		listTasksFn: func(ctx context.Context, o string) ([]domain.Task, error) {
			return nil, wantErr
		},
	}, time.Minute)

	if _, err := cache.ListTasks(ctx, "alice"); !errors.Is(err, wantErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
