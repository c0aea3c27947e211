package storage

import (
	"encoding/json"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

func TestTaskEntityToTask(t *testing.T) {
	ent := taskEntity{
		Entity:    aztables.Entity{PartitionKey: "alice", RowKey: "task-1"},
		Title:     "buy milk",
		Completed: true,
		Created:   "1700000000000000001",
	}
	task := ent.toTask()
	if task.ID != "task-1" || task.Owner != "alice" || task.Title != "buy milk" || !task.Completed {
		t.Fatalf("unexpected task: %#v", task)
	}
	if task.Created != 1700000000000000001 {
		t.Fatalf("unexpected created timestamp: %d", task.Created)
	}
}

func TestTaskEntityDecode(t *testing.T) {
	raw := []byte(`{"PartitionKey":"bob","RowKey":"task-2","Title":"walk dog","Completed":false,"Created":"42"}`)
	var ent taskEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		t.Fatalf("decode entity: %v", err)
	}
	task := ent.toTask()
	if task.Owner != "bob" || task.ID != "task-2" || task.Title != "walk dog" || task.Completed {
		t.Fatalf("unexpected task: %#v", task)
	}
}

func TestEscapeFilterValue(t *testing.T) {
	cases := map[string]string{
		"alice":     "alice",
		"o'brien":   "o''brien",
		"a''b":      "a''''b",
		"no quotes": "no quotes",
	}
	for in, want := range cases {
		if got := escapeFilterValue(in); got != want {
			t.Fatalf("escapeFilterValue(%q) = %q, want %q", in, got, want)
		}
	}
}
