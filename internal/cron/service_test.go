package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	return nil
}

type testJob struct {
	name  string
	err   error
	panic bool
	runs  int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	if t.panic {
		panic("job exploded")
	}
	return t.err
}

func newCycleService(t *testing.T, registry *Registry, lock Lock) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	healthy := &testJob{name: "healthy"}
	failing := &testJob{name: "failing", err: errors.New("boom")}
	service := newCycleService(t, NewRegistry(healthy, failing), &fakeLock{})

	service.cycle(context.Background())

	if healthy.runs != 1 {
		t.Fatalf("expected healthy job to run once, ran %d", healthy.runs)
	}
	if failing.runs != 1 {
		t.Fatalf("expected failing job to run once, ran %d", failing.runs)
	}
}

func TestCycleSurvivesPanickingJob(t *testing.T) {
	exploding := &testJob{name: "exploding", panic: true}
	after := &testJob{name: "after"}
	service := newCycleService(t, NewRegistry(exploding, after), &fakeLock{})

	service.cycle(context.Background())

	if exploding.runs != 1 || after.runs != 1 {
		t.Fatalf("expected both jobs to run, got %d and %d", exploding.runs, after.runs)
	}
}

func TestCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "skipped"}
	lock := &fakeLock{held: true}
	service := newCycleService(t, NewRegistry(job), lock)

	service.cycle(context.Background())

	if lock.acquires != 1 {
		t.Fatalf("expected one acquire attempt, got %d", lock.acquires)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped while lock held, ran %d", job.runs)
	}
}
