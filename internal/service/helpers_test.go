package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/memory"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/events"
	"token-pattern-be/pkg/hnsw"
	"token-pattern-be/pkg/ingestion"
	"token-pattern-be/pkg/vectorizer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// t0 sits on a 300s boundary from the Unix epoch.
var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	factory unitofwork.RepositoryFactory
	source  *ingestion.MemorySource
	log     logger.ILogger
}

func newFixture() *fixture {
	return &fixture{
		factory: memory.NewRepositoryFactory(memory.NewStore(hnsw.DefaultConfig())),
		source:  ingestion.NewMemorySource(),
		log:     logger.NewNopLogger(),
	}
}

func (f *fixture) uow() unitofwork.UnitOfWork {
	return f.factory.NewUnitOfWork(context.Background())
}

func genConfig() config.GenerationConfig {
	return config.GenerationConfig{
		Interval:            time.Minute,
		BatchSize:           2,
		ReloadEvery:         10,
		CollaboratorTimeout: time.Second,
		InitialLookback:     10 * time.Minute,
		Workers:             4,
	}
}

func (f *fixture) addConfig(t *testing.T, name string, windowSeconds, overlap, minSnapshots int) *entity.EmbeddingConfig {
	t.Helper()
	c := &entity.EmbeddingConfig{
		Name:                 name,
		Strategy:             vectorizer.StrategyHandcraftedV1,
		WindowSeconds:        windowSeconds,
		WindowOverlapSeconds: overlap,
		MinSnapshots:         minSnapshots,
		Normalization:        vectorizer.NormalizationMinMax,
		IsActive:             true,
	}
	require.NoError(t, f.uow().EmbeddingConfigRepository().Create(context.Background(), c))
	return c
}

// series returns n snapshots of mint spaced step apart from start.
func series(mint string, start time.Time, n int, step time.Duration) []vectorizer.Snapshot {
	out := make([]vectorizer.Snapshot, n)
	for i := range out {
		x := float64(i)
		out[i] = vectorizer.Snapshot{
			EntityId:       mint,
			Timestamp:      start.Add(time.Duration(i) * step),
			PhaseId:        1,
			Price:          1 + 0.01*x + 0.005*math.Sin(x),
			VolumeBuy:      100 + 10*x,
			VolumeSell:     80 + 5*x,
			BuyCount:       5 + i,
			SellCount:      3 + i%2,
			UniqueWallets:  50 + 3*i,
			Top10HolderPct: 40 - 0.2*x,
			DevHoldingPct:  5,
			SniperPct:      2,
			Liquidity:      1000 + 20*x,
		}
	}
	return out
}

// direction returns a unit vector at cosine cos from axis 0, tilted toward
// the given axis.
func direction(cos float64, axis int) []float32 {
	v := make([]float32, vectorizer.Dimension)
	v[0] = float32(cos)
	v[axis] = float32(math.Sqrt(1 - cos*cos))
	return v
}

func (f *fixture) addEmbedding(t *testing.T, mint string, start time.Time, vec []float32) *entity.Embedding {
	t.Helper()
	e := &entity.Embedding{
		EntityId:      mint,
		ConfigId:      uuid.New(),
		Strategy:      vectorizer.StrategyHandcraftedV1,
		LayoutVersion: "handcrafted_v1.0",
		PhaseId:       1,
		Vector:        vec,
		WindowStart:   start,
		WindowEnd:     start.Add(5 * time.Minute),
		NumSnapshots:  10,
		QualityScore:  1,
	}
	_, err := f.uow().EmbeddingRepository().Upsert(context.Background(), e)
	require.NoError(t, err)
	return e
}

func (f *fixture) label(t *testing.T, id uuid.UUID, label string) {
	t.Helper()
	require.NoError(t, f.uow().LabelRepository().Upsert(context.Background(), &entity.Label{
		EmbeddingId: id,
		Label:       label,
		Confidence:  1,
		Source:      entity.LabelSourceManual,
	}))
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.BaseEvent
}

func (n *recordingNotifier) NotifyJob(e events.BaseEvent) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) statuses() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events {
		out = append(out, e.String("status"))
	}
	return out
}

type publishedPair struct {
	subject, msgID string
	event          events.Event
}

type fakePairPublisher struct {
	mu   sync.Mutex
	sent []publishedPair
	err  error
}

func (p *fakePairPublisher) PublishTo(ctx context.Context, subject, msgID string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, publishedPair{subject: subject, msgID: msgID, event: event})
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	p.payloads = append(p.payloads, payload)
	p.mu.Unlock()
	return nil
}
