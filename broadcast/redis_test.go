package broadcast_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/broadcast"
	"github.com/warp/folio-engine/hotel"
)

func newPublisher(t *testing.T) (*broadcast.RedisPublisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := broadcast.Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return broadcast.NewRedisPublisher(client, "test"), mr
}

func TestPublish_StoresLatestAndVersion(t *testing.T) {
	pub, mr := newPublisher(t)
	ctx := context.Background()

	snap := hotel.Snapshot{
		Version: 3,
		Rooms:   []hotel.Room{{ID: 1, Number: "101", Status: hotel.RoomVacant}},
	}
	require.NoError(t, pub.Publish(ctx, snap))

	version, err := mr.Get("test:snapshot:version")
	require.NoError(t, err)
	assert.Equal(t, "3", version)

	latest, ok, err := pub.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hotel.Version(3), latest.Version)
	require.Len(t, latest.Rooms, 1)
	assert.Equal(t, "101", latest.Rooms[0].Number)
}

func TestPublish_DropsStaleVersions(t *testing.T) {
	pub, mr := newPublisher(t)
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, hotel.Snapshot{Version: 5}))
	require.NoError(t, pub.Publish(ctx, hotel.Snapshot{Version: 4}))

	version, err := mr.Get("test:snapshot:version")
	require.NoError(t, err)
	assert.Equal(t, "5", version)
}

func TestPublish_ReachesSubscribers(t *testing.T) {
	pub, _ := newPublisher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := pub.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, hotel.Snapshot{Version: 1}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test:snapshot", msg.Channel)

	var got hotel.Snapshot
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, hotel.Version(1), got.Version)
}

func TestLatest_EmptyWhenNothingPublished(t *testing.T) {
	pub, _ := newPublisher(t)
	_, ok, err := pub.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConnect_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := broadcast.Connect(context.Background(), addr)
	assert.Error(t, err)
}
