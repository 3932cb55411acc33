package httpapi

import (
	"context"
	"testing"
	"time"
)

func TestJoinContextsCancelsOnEither(t *testing.T) {
	a, cancelA := context.WithCancel(context.Background())
	b := context.Background()
	joined, cancel := joinContexts(a, b)
	defer cancel()

	cancelA()
	select {
	case <-joined.Done():
	case <-time.After(time.Second):
		t.Fatal("joined context not canceled with first parent")
	}
}

func TestJoinContextsSecondParent(t *testing.T) {
	a := context.Background()
	b, cancelB := context.WithCancel(context.Background())
	joined, cancel := joinContexts(a, b)
	defer cancel()

	cancelB()
	select {
	case <-joined.Done():
	case <-time.After(time.Second):
		t.Fatal("joined context not canceled with second parent")
	}
}

func TestSetBaseContextNilResets(t *testing.T) {
	old := serverBaseCtx
	defer SetBaseContext(old)

	SetBaseContext(nil)
	if serverBaseCtx == nil {
		t.Fatal("base context must never be nil")
	}
	if serverBaseCtx.Err() != nil {
		t.Fatal("background context must not be done")
	}
}
