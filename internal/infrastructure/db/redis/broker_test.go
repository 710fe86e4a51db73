package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ibadah/tracker/internal/core/domain"
)

func TestNotificationCodec(t *testing.T) {
	n := domain.Notification{
		Timestamp:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Username:      "bob",
		Action:        "admin_delete_user:carol",
		AdminUsername: "root",
	}
	payload, err := encodeNotification(n)
	require.NoError(t, err)

	got, err := decodeNotification(string(payload))
	require.NoError(t, err)
	require.Equal(t, n.Username, got.Username)
	require.Equal(t, n.Action, got.Action)
	require.Equal(t, n.AdminUsername, got.AdminUsername)
	require.True(t, n.Timestamp.Equal(got.Timestamp))

	_, err = decodeNotification(`{"username":"bob"}`)
	require.Error(t, err)
	_, err = decodeNotification("not json")
	require.Error(t, err)
}

func TestBroker_PublishNeverBlocks(t *testing.T) {
	b := NewBroker(nil, "", zerolog.Nop())
	require.Equal(t, DefaultChannel, b.channel)

	done := make(chan struct{})
	go func() {
		for i := 0; i < outboxSize+10; i++ {
			_ = b.Publish(context.Background(), domain.Notification{AdminUsername: "root"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full outbox")
	}
	require.Len(t, b.outbox, outboxSize)
}
