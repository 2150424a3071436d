package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

type fakeExpirer struct {
	cutoff  time.Time
	expired int
	err     error
}

func (f *fakeExpirer) ExpireStalePending(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.expired, f.err
}

func TestOrderTTLJobUsesConfiguredWindow(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	expirer := &fakeExpirer{expired: 3}
	job, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger: logg,
		Orders: expirer,
		TTL:    48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job.(*orderTTLJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	want := fixed.Add(-48 * time.Hour)
	if !expirer.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", expirer.cutoff, want)
	}
}

func TestOrderTTLJobPropagatesError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger: logg,
		Orders: &fakeExpirer{err: errors.New("db down")},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

type fakeNotificationCleaner struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakeNotificationCleaner) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestNotificationCleanupJobDefaultsRetention(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	cleaner := &fakeNotificationCleaner{deleted: 12}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logg,
		Repository: cleaner,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	job.(*notificationCleanupJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	want := fixed.Add(-notificationRetentionDays * 24 * time.Hour)
	if !cleaner.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", cleaner.cutoff, want)
	}
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutboxRetentionRepo struct {
	cutoff      time.Time
	minAttempts int
	deleted     int64
	err         error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.cutoff = cutoff
	f.minAttempts = minAttemptCount
	return f.deleted, f.err
}

func TestOutboxRetentionJobAppliesDefaults(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	repo := &fakeOutboxRetentionRepo{deleted: 40}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logg,
		DB:         fakeTxRunner{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if repo.minAttempts != outboxMinAttempts {
		t.Fatalf("min attempts = %d, want %d", repo.minAttempts, outboxMinAttempts)
	}
	want := fixed.Add(-outboxRetentionDays * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", repo.cutoff, want)
	}
}

func TestOutboxRetentionJobWrapsError(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logg,
		DB:         fakeTxRunner{},
		Repository: &fakeOutboxRetentionRepo{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
