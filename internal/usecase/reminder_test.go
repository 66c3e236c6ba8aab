package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkSentry/internal/domain"
	"LinkSentry/internal/infrastructure/scheduler"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Alert(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func TestReminder_AlertsOnBacklog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reviews := &fakeReviewLog{}
	require.NoError(t, reviews.Append(ctx, domain.ReviewRecord{RawURL: "https://shady.test/a"}))

	notifier := &fakeNotifier{}
	reminder := NewReminder(scheduler.NewIntervalScheduler(time.Hour), reviews, notifier, nil)

	require.NoError(t, reminder.Start(ctx))
	defer reminder.Stop(ctx)

	// The first digest fires immediately on start.
	require.Eventually(t, func() bool {
		return len(notifier.all()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Contains(t, notifier.all()[0], "https://shady.test/a")
	assert.Contains(t, notifier.all()[0], "1 unsafe verdicts")
}

func TestReminder_QuietWhenEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	notifier := &fakeNotifier{}
	reminder := NewReminder(scheduler.NewIntervalScheduler(time.Hour), &fakeReviewLog{}, notifier, nil)

	require.NoError(t, reminder.Start(ctx))
	defer reminder.Stop(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, notifier.all())
}

func TestReminder_InertWithoutDependencies(t *testing.T) {
	t.Parallel()

	reminder := NewReminder(nil, nil, nil, nil)
	assert.NoError(t, reminder.Start(context.Background()))
	assert.NoError(t, reminder.Stop(context.Background()))
}
