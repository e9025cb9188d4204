package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerClient(t *testing.T, hub *Hub, userID uint) *Client {
	client := NewClient(hub, nil, userID)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.IsUserOnline(userID) }, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, client *Client) map[string]interface{} {
	select {
	case data := <-client.Send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	return nil
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	first := registerClient(t, hub, 1)
	second := registerClient(t, hub, 1)

	require.NoError(t, hub.SendToUser(1, map[string]interface{}{"type": "notification"}))

	assert.Equal(t, "notification", receive(t, first)["type"])
	assert.Equal(t, "notification", receive(t, second)["type"])
}

func TestHub_GroupBuyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	subscriber := registerClient(t, hub, 1)
	other := registerClient(t, hub, 2)

	hub.HandleClientMessage(subscriber, []byte(`{"type":"subscribe_groupbuy","groupbuy_id":7}`))
	assert.Equal(t, []uint{1}, hub.RoomSubscribers(7))

	require.NoError(t, hub.SendToRoom(7, map[string]interface{}{"status": "bidding"}, 0))
	assert.Equal(t, "bidding", receive(t, subscriber)["status"])

	select {
	case <-other.Send:
		t.Fatal("non-subscriber received room message")
	case <-time.After(50 * time.Millisecond):
	}

	hub.HandleClientMessage(subscriber, []byte(`{"type":"unsubscribe_groupbuy","groupbuy_id":7}`))
	assert.Empty(t, hub.RoomSubscribers(7))
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := registerClient(t, hub, 3)
	hub.JoinRoom(3, 9)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return !hub.IsUserOnline(3) }, time.Second, 5*time.Millisecond)
	assert.Empty(t, hub.RoomSubscribers(9))

	_, ok := <-client.Send
	assert.False(t, ok)
}
