package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"prompt-manager-core/internal/migration"
	"prompt-manager-core/internal/repository/unitofwork"
	"prompt-manager-core/pkg/database"
	"prompt-manager-core/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingForwarder struct {
	mu       sync.Mutex
	received []string
	err      error
}

func (r *recordingForwarder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, event.EventType())
	return r.err
}

func (r *recordingForwarder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.received...)
}

const testTopic = "store.changes"

func newReplicatedStore(t *testing.T, forwarder ChangeForwarder) unitofwork.RepositoryFactory {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	require.NoError(t, NewReplicationService(pubSub, testTopic, forwarder, nopLogger()).Start(ctx))

	db, err := database.OpenQuiet(database.DriverSQLite, filepath.Join(t.TempDir(), "prompts.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, migration.NewEngine(db).Open(ctx))

	return unitofwork.NewRepositoryFactory(db,
		unitofwork.WithChangeSink(events.NewChangePublisher(pubSub, testTopic)),
		unitofwork.WithLogger(nopLogger()),
	)
}

func TestReplication_ForwardsCommittedChanges(t *testing.T) {
	forwarder := &recordingForwarder{}
	factory := newReplicatedStore(t, forwarder)
	prompts := NewPromptService(factory, nopLogger())

	prompt := seedPrompt(t, prompts, "Foo", "hello", []byte("x"))

	require.Eventually(t, func() bool { return len(forwarder.events()) == 3 }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"prompt.insert", "prompt_history.insert", "external_asset.insert"}, forwarder.events())

	require.NoError(t, prompts.DeletePrompt(context.Background(), prompt.Id))
	require.Eventually(t, func() bool { return len(forwarder.events()) == 4 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "prompt.delete", forwarder.events()[3])
}

func TestReplication_RolledBackWritesAreNotForwarded(t *testing.T) {
	forwarder := &recordingForwarder{}
	factory := newReplicatedStore(t, forwarder)
	prompts := NewPromptService(factory, nopLogger())
	ctx := context.Background()

	prompt := seedPrompt(t, prompts, "Foo", "hello")
	require.Eventually(t, func() bool { return len(forwarder.events()) == 2 }, time.Second, 10*time.Millisecond)

	// The last history cannot be deleted, so nothing commits.
	require.ErrorIs(t, prompts.DeleteHistory(ctx, prompt.Histories[0].Id), ErrLastHistory)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, forwarder.events(), 2)
}

func TestReplication_ForwardFailureDoesNotBlockWrites(t *testing.T) {
	forwarder := &recordingForwarder{err: errors.New("nats down")}
	factory := newReplicatedStore(t, forwarder)
	prompts := NewPromptService(factory, nopLogger())

	seedPrompt(t, prompts, "Foo", "hello")
	seedPrompt(t, prompts, "Bar", "world")

	require.Eventually(t, func() bool { return len(forwarder.events()) == 4 }, time.Second, 10*time.Millisecond)
}

func TestReplication_UndecodableMessageIsAcked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	forwarder := &recordingForwarder{}
	require.NoError(t, NewReplicationService(pubSub, testTopic, forwarder, nopLogger()).Start(ctx))

	require.NoError(t, pubSub.Publish(testTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	require.NoError(t, events.NewChangePublisher(pubSub, testTopic).Publish(ctx, []events.ChangeEvent{
		events.NewChangeEvent(events.EntityPrompt, uuid.New(), events.OpUpdate),
	}))

	require.Eventually(t, func() bool { return len(forwarder.events()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "prompt.update", forwarder.events()[0])
}
