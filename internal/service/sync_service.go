package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/events"
	pktNats "token-pattern-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// inflightTTL is how long a published but unacknowledged pair is left alone
// before it is sent again. It stays below the JetStream duplicate window.
const inflightTTL = 5 * time.Minute

// PairPublisher is the outbound side of the mirror queue.
type PairPublisher interface {
	PublishTo(ctx context.Context, subject, msgID string, event events.Event) error
}

// AckSubscriber delivers the mirror's acknowledgements.
type AckSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type ISyncService interface {
	Start(ctx context.Context) error
	// Sync publishes pending pairs that are not already in flight.
	Sync(ctx context.Context) (*dto.TriggerSyncResponse, error)
	Status(ctx context.Context) (*dto.SyncStatusResponse, error)
	HandleAck(ctx context.Context, event events.BaseEvent) error
}

type syncService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  PairPublisher
	subscriber AckSubscriber
	cfg        config.SimilarityConfig
	logger     logger.ILogger

	// one Sync at a time; concurrent callers would publish the same batch
	mu       sync.Mutex
	inflight *cache.Cache
}

func NewSyncService(
	uowFactory unitofwork.RepositoryFactory,
	publisher PairPublisher,
	subscriber AckSubscriber,
	cfg config.SimilarityConfig,
	log logger.ILogger,
) ISyncService {
	return &syncService{
		uowFactory: uowFactory,
		publisher:  publisher,
		subscriber: subscriber,
		cfg:        cfg,
		logger:     log,
		inflight:   cache.New(inflightTTL, time.Minute),
	}
}

func (s *syncService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Warn("SYNC", "No mirror subscriber configured; pairs stay pending", nil)
		return nil
	}
	return s.subscriber.Subscribe(ctx, s.cfg.AckSubject, s.cfg.AckDurable, s.HandleAck)
}

func inflightKey(k entity.PairKey) string {
	return k.A.String() + ":" + k.B.String()
}

func (s *syncService) Sync(ctx context.Context) (*dto.TriggerSyncResponse, error) {
	if s.publisher == nil {
		return nil, apperror.ErrMirrorUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	pending, err := uow.SimilarityPairRepository().FindPending(ctx, s.cfg.SyncBatchSize)
	if err != nil {
		return nil, err
	}

	res := &dto.TriggerSyncResponse{}
	for _, p := range pending {
		key := inflightKey(p.Key())
		if _, busy := s.inflight.Get(key); busy {
			continue
		}

		a, b := p.EmbeddingIdA.String(), p.EmbeddingIdB.String()
		evt := events.NewSimilarityPair(a, b, p.Similarity, p.ComputedAt)
		if err := s.publisher.PublishTo(ctx, s.cfg.PairSubject, events.PairMsgID(a, b), evt); err != nil {
			res.Failed++
			s.logger.Warn("SYNC", "Failed to publish similarity pair", map[string]interface{}{
				"pair":  key,
				"error": err.Error(),
			})
			continue
		}
		s.inflight.Set(key, struct{}{}, cache.DefaultExpiration)
		res.Published++
	}

	if res.Published > 0 || res.Failed > 0 {
		s.logger.Info("SYNC", "Similarity pairs published", map[string]interface{}{
			"published": res.Published,
			"failed":    res.Failed,
			"pending":   len(pending),
		})
	}
	if res.Failed > 0 && res.Published == 0 {
		return res, apperror.ErrMirrorUnavailable.WithMessage("all %d pair publishes failed", res.Failed)
	}
	return res, nil
}

func (s *syncService) Status(ctx context.Context) (*dto.SyncStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	st, err := uow.SimilarityPairRepository().Status(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SyncStatusResponse{
		TotalPairs: st.TotalPairs,
		Synced:     st.Synced,
		Pending:    st.Pending,
	}, nil
}

// HandleAck marks the acknowledged pairs synced. An ack names one pair with
// embedding_id_a/embedding_id_b, or several under "pairs". Acks for unknown
// or already synced pairs are no-ops, so redelivery is harmless.
func (s *syncService) HandleAck(ctx context.Context, event events.BaseEvent) error {
	keys, err := ackKeys(event.Data)
	if err != nil {
		s.logger.Warn("SYNC", "Dropping malformed mirror ack", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if len(keys) == 0 {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	n, err := uow.SimilarityPairRepository().MarkSynced(ctx, keys, time.Now().UTC())
	if err != nil {
		return err
	}
	for _, k := range keys {
		s.inflight.Delete(inflightKey(k))
	}

	s.logger.Debug("SYNC", "Mirror ack applied", map[string]interface{}{"pairs": len(keys), "marked": n})
	return nil
}

func ackKeys(data map[string]interface{}) ([]entity.PairKey, error) {
	parse := func(m map[string]interface{}) (entity.PairKey, error) {
		a, _ := m["embedding_id_a"].(string)
		b, _ := m["embedding_id_b"].(string)
		ida, err := uuid.Parse(a)
		if err != nil {
			return entity.PairKey{}, fmt.Errorf("embedding_id_a: %w", err)
		}
		idb, err := uuid.Parse(b)
		if err != nil {
			return entity.PairKey{}, fmt.Errorf("embedding_id_b: %w", err)
		}
		return entity.NewPairKey(ida, idb), nil
	}

	if raw, ok := data["pairs"].([]interface{}); ok {
		keys := make([]entity.PairKey, 0, len(raw))
		for _, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("pairs entry is %T", item)
			}
			k, err := parse(m)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		return keys, nil
	}

	k, err := parse(data)
	if err != nil {
		return nil, err
	}
	return []entity.PairKey{k}, nil
}
