package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// scriptedStore replays a fixed sequence of SetNX outcomes.
type scriptedStore struct {
	claims []bool
	index  int
}

func (s *scriptedStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (s *scriptedStore) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	claimed := false
	if s.index < len(s.claims) {
		claimed = s.claims[s.index]
	}
	s.index++
	return claimed, nil
}

func (s *scriptedStore) IdempotencyKey(scope, id string) string {
	return "lp:idempotency:" + scope + ":" + id
}

func (s *scriptedStore) Del(context.Context, ...string) error {
	return nil
}

func ExampleManager_CheckAndMarkProcessed() {
	ctx := context.Background()
	manager, _ := NewManager(&scriptedStore{claims: []bool{true, false}}, 7*24*time.Hour)
	eventID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	handle := func() {
		already, _ := manager.CheckAndMarkProcessed(ctx, "orders-worker", eventID)
		if already {
			fmt.Println("already processed")
			return
		}
		fmt.Println("processing event")
	}

	handle()
	handle()
	// Output:
	// processing event
	// already processed
}
