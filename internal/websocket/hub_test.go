package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h, cancel
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	h, _ := startHub(t)
	return h
}

func connect(t *testing.T, h *Hub, filter *uuid.UUID, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: h, Id: uuid.New(), JobFilter: filter, Send: make(chan []byte, buffer)}
	require.True(t, h.Register(c))
	return c
}

func TestNotifyJobRespectsFilter(t *testing.T) {
	h := runHub(t)
	jobA, jobB := uuid.New(), uuid.New()

	all := connect(t, h, nil, 8)
	onlyA := connect(t, h, &jobA, 8)
	require.Eventually(t, func() bool { return h.Clients() == 2 }, time.Second, 5*time.Millisecond)

	h.NotifyJob(events.NewJobProgress(jobA.String(), "RUNNING", map[string]interface{}{"processed": 3}))
	h.NotifyJob(events.NewJobProgress(jobB.String(), "COMPLETED", nil))

	assert.Len(t, all.Send, 2)
	require.Len(t, onlyA.Send, 1)

	var msg jobMessage
	require.NoError(t, json.Unmarshal(<-onlyA.Send, &msg))
	assert.Equal(t, events.JobProgress, msg.Type)
	assert.Equal(t, jobA.String(), msg.Data["job_id"])
	assert.Equal(t, "RUNNING", msg.Data["status"])
	assert.EqualValues(t, 3, msg.Data["processed"])
}

func TestSlowClientIsDropped(t *testing.T) {
	h := runHub(t)
	slow := connect(t, h, nil, 1)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	job := uuid.NewString()
	h.NotifyJob(events.NewJobProgress(job, "RUNNING", nil))
	h.NotifyJob(events.NewJobProgress(job, "RUNNING", nil))

	assert.Eventually(t, func() bool { return h.Clients() == 0 }, time.Second, 5*time.Millisecond)
	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHubCallsReturnAfterShutdown(t *testing.T) {
	h, cancel := startHub(t)
	c := connect(t, h, nil, 1)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-c.Send
	assert.False(t, open)

	returned := make(chan struct{})
	go func() {
		h.Unregister(c)
		h.NotifyJob(events.NewJobProgress(uuid.NewString(), "RUNNING", nil))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after shutdown")
	}

	late := &Client{Hub: h, Id: uuid.New(), Send: make(chan []byte, 1)}
	assert.False(t, h.Register(late))
	assert.Equal(t, 0, h.Clients())
}
