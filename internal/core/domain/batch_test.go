package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewBatchID(t *testing.T) {
	before := time.Now().Add(-time.Second)

	id, err := NewBatchID()
	if err != nil {
		t.Fatalf("NewBatchID() error = %v", err)
	}
	if !strings.HasPrefix(id, BatchIDPrefix) {
		t.Errorf("NewBatchID() = %q, missing prefix", id)
	}
	if len(id) != 31 {
		t.Errorf("len(NewBatchID()) = %d, want 31", len(id))
	}
	if id != strings.ToLower(id) {
		t.Errorf("NewBatchID() = %q, want lowercase", id)
	}
	if !ValidateBatchID(id) {
		t.Errorf("ValidateBatchID(%q) = false", id)
	}

	ts, ok := BatchTime(id)
	if !ok {
		t.Fatal("BatchTime() failed on a fresh ID")
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("BatchTime() = %v, not near now", ts)
	}
}

func TestNewBatchID_Ordered(t *testing.T) {
	prev, _ := NewBatchID()
	for i := 0; i < 1000; i++ {
		id, err := NewBatchID()
		if err != nil {
			t.Fatalf("NewBatchID() error = %v", err)
		}
		if id <= prev {
			t.Fatalf("batch IDs not increasing: %q then %q", prev, id)
		}
		prev = id
	}
}

func TestValidateBatchID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"tnbt-01arz3ndektsv4rrffq69g5fav", true},
		{"tnbt-01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"tmss-01arz3ndektsv4rrffq69g5fav", false},
		{"tnbt-01arz3ndektsv4rrffq69g5fa", false},
		{"tnbt-01arz3ndektsv4rrffq69g5fau", false},
		{"tnbt-81arz3ndektsv4rrffq69g5fav", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateBatchID(tt.id); got != tt.want {
			t.Errorf("ValidateBatchID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
