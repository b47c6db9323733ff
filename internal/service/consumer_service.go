package service

import (
	"context"
	"encoding/json"
	"errors"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns EMBEDDINGS_CREATED events into similarity pairs and
// pushes them toward the mirror.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	similarityService ISimilarityService
	syncService       ISyncService
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	similarityService ISimilarityService,
	syncService ISyncService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		similarityService: similarityService,
		syncService:       syncService,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbeddingsCreatedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // redelivery cannot fix a malformed payload
		return
	}

	created, err := cs.similarityService.ComputePairs(ctx, payload.EmbeddingIds)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to compute similarity pairs", map[string]interface{}{
			"job_id": payload.JobId,
			"error":  err.Error(),
		})
		if apperror.From(err).Retryable() {
			msg.Nack()
			return
		}
		msg.Ack()
		return
	}

	if created > 0 && cs.syncService != nil {
		if _, err := cs.syncService.Sync(ctx); err != nil && !errors.Is(err, apperror.ErrMirrorUnavailable) {
			cs.logger.Warn("CONSUMER", "Mirror sync after pair computation failed", map[string]interface{}{"error": err.Error()})
		}
	}
	msg.Ack()
}
