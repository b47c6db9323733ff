package events

import "time"

const (
	// EmbeddingsCreated is published in-process after a generation cycle
	// commits new embeddings.
	EmbeddingsCreated = "EMBEDDINGS_CREATED"
	// SimilarityPair carries one pair delta to the graph mirror.
	SimilarityPair = "similarity.pair"
	// MirrorAck is sent back by the graph mirror once a pair is stored.
	MirrorAck = "mirror.ack"
	// JobProgress is fanned out to job WebSocket clients.
	JobProgress = "JOB_PROGRESS"
)

func NewSimilarityPair(a, b string, similarity float64, computedAt time.Time) BaseEvent {
	return BaseEvent{
		Type: SimilarityPair,
		Data: map[string]interface{}{
			"embedding_id_a": a,
			"embedding_id_b": b,
			"similarity":     similarity,
			"computed_at":    computedAt.UTC().Format(time.RFC3339Nano),
		},
		OccurredAt: time.Now(),
	}
}

func NewJobProgress(jobId, status string, details map[string]interface{}) BaseEvent {
	data := map[string]interface{}{"job_id": jobId, "status": status}
	for k, v := range details {
		data[k] = v
	}
	return BaseEvent{Type: JobProgress, Data: data, OccurredAt: time.Now()}
}

// PairMsgID is the JetStream de-duplication id of a pair delta. Re-sending an
// unacknowledged pair inside the duplicate window is dropped by the server.
func PairMsgID(a, b string) string {
	return "pair:" + a + ":" + b
}
