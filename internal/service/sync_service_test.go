package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func similarityConfig() config.SimilarityConfig {
	return config.SimilarityConfig{
		Threshold:     0.9,
		NeighborK:     10,
		SyncBatchSize: 100,
		PairSubject:   "events.similarity.pair",
		AckSubject:    "events.mirror.ack",
		AckDurable:    "test",
	}
}

func TestComputePairs(t *testing.T) {
	f := newFixture()
	svc := NewSimilarityService(f.factory, similarityConfig(), 64, f.log)

	a := f.addEmbedding(t, "mintA", t0, direction(1, 1))
	b := f.addEmbedding(t, "mintB", t0, direction(0.95, 2))
	f.addEmbedding(t, "mintC", t0, direction(0.3, 3))

	created, err := svc.ComputePairs(context.Background(), []uuid.UUID{a.Id, b.Id, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	again, err := svc.ComputePairs(context.Background(), []uuid.UUID{a.Id})
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}

func TestSyncPublishesAndAcks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addEmbedding(t, "mintA", t0, direction(1, 1))
	b := f.addEmbedding(t, "mintB", t0, direction(0.95, 2))
	_, err := NewSimilarityService(f.factory, similarityConfig(), 64, f.log).ComputePairs(ctx, []uuid.UUID{a.Id})
	require.NoError(t, err)

	pub := &fakePairPublisher{}
	svc := NewSyncService(f.factory, pub, nil, similarityConfig(), f.log)

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.TriggerSyncResponse{Published: 1}, *res)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "events.similarity.pair", pub.sent[0].subject)
	assert.Equal(t, events.SimilarityPair, pub.sent[0].event.EventType())

	// In flight pairs are not re-sent before the ack arrives.
	res, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Published)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.SyncStatusResponse{TotalPairs: 1, Synced: 0, Pending: 1}, *status)

	ack := events.BaseEvent{Type: events.MirrorAck, Data: map[string]interface{}{
		"embedding_id_a": b.Id.String(),
		"embedding_id_b": a.Id.String(),
	}}
	require.NoError(t, svc.HandleAck(ctx, ack))
	// Redelivered acks are harmless.
	require.NoError(t, svc.HandleAck(ctx, ack))

	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.SyncStatusResponse{TotalPairs: 1, Synced: 1, Pending: 0}, *status)
}

func TestSyncFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := NewSyncService(f.factory, nil, nil, similarityConfig(), f.log).Sync(ctx)
	assert.ErrorIs(t, err, apperror.ErrMirrorUnavailable)

	a := f.addEmbedding(t, "mintA", t0, direction(1, 1))
	f.addEmbedding(t, "mintB", t0, direction(0.95, 2))
	_, err = NewSimilarityService(f.factory, similarityConfig(), 64, f.log).ComputePairs(ctx, []uuid.UUID{a.Id})
	require.NoError(t, err)

	pub := &fakePairPublisher{err: errors.New("nats: no responders")}
	svc := NewSyncService(f.factory, pub, nil, similarityConfig(), f.log)
	res, err := svc.Sync(ctx)
	assert.ErrorIs(t, err, apperror.ErrMirrorUnavailable)
	assert.Equal(t, 1, res.Failed)

	// Pairs stay pending and go out once the mirror is back.
	pub.err = nil
	res, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)

	// Malformed acks are dropped.
	assert.NoError(t, svc.HandleAck(ctx, events.BaseEvent{Data: map[string]interface{}{"embedding_id_a": "nope"}}))
}

func TestHandleAckBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.addEmbedding(t, "mintA", t0, direction(1, 1))
	b := f.addEmbedding(t, "mintB", t0, direction(0.95, 2))
	c := f.addEmbedding(t, "mintC", t0, direction(0.96, 3))
	_, err := NewSimilarityService(f.factory, similarityConfig(), 64, f.log).ComputePairs(ctx, []uuid.UUID{a.Id})
	require.NoError(t, err)

	svc := NewSyncService(f.factory, &fakePairPublisher{}, nil, similarityConfig(), f.log)
	require.NoError(t, svc.HandleAck(ctx, events.BaseEvent{Data: map[string]interface{}{
		"pairs": []interface{}{
			map[string]interface{}{"embedding_id_a": a.Id.String(), "embedding_id_b": b.Id.String()},
			map[string]interface{}{"embedding_id_a": a.Id.String(), "embedding_id_b": c.Id.String()},
		},
	}}))

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, status.Synced)
}

func TestConsumerComputesPairsFromEvents(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := f.addEmbedding(t, "mintA", t0, direction(1, 1))
	f.addEmbedding(t, "mintB", t0, direction(0.95, 2))

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	pub := &fakePairPublisher{}
	syncSvc := NewSyncService(f.factory, pub, nil, similarityConfig(), f.log)
	similarity := NewSimilarityService(f.factory, similarityConfig(), 64, f.log)
	consumer := NewConsumerService(pubSub, "embeddings_created", similarity, syncSvc, f.log)
	require.NoError(t, consumer.Consume(ctx))

	payload, err := json.Marshal(dto.EmbeddingsCreatedMessage{JobId: uuid.New(), EmbeddingIds: []uuid.UUID{a.Id}})
	require.NoError(t, err)
	require.NoError(t, NewPublisherService("embeddings_created", pubSub).Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.sent) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
