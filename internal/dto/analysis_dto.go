package dto

import "github.com/google/uuid"

type ClusterRequest struct {
	K        int     `json:"k" validate:"omitempty,min=2,max=20"`
	Strategy *string `json:"strategy"`
	Limit    int     `json:"limit" validate:"omitempty,min=100,max=50000"`
	Seed     *int64  `json:"seed"`
}

type ClusterAssignment struct {
	EmbeddingId uuid.UUID `json:"embedding_id"`
	Mint        string    `json:"mint"`
	Cluster     int       `json:"cluster"`
}

type ClusterSummary struct {
	Cluster int            `json:"cluster"`
	Size    int            `json:"size"`
	Labels  map[string]int `json:"labels"` // unlabeled members are not counted
}

type ClusterResponse struct {
	K             int                 `json:"k"`
	Total         int                 `json:"total"`
	Iterations    int                 `json:"iterations"`
	Inertia       float64             `json:"inertia"`
	Clusters      []ClusterSummary    `json:"clusters"`
	EmptyClusters []int               `json:"empty_clusters"`
	Assignments   []ClusterAssignment `json:"assignments"`
}

type OutlierRequest struct {
	SampleSize int    `json:"sample_size" validate:"required,min=2,max=50000"`
	Seed       *int64 `json:"seed"`
}

type OutlierScore struct {
	EmbeddingId uuid.UUID `json:"embedding_id"`
	Mint        string    `json:"mint"`
	Label       *string   `json:"label"`
	Score       float64   `json:"score"`
}

type OutlierResponse struct {
	SampleSize int            `json:"sample_size"`
	Results    []OutlierScore `json:"results"`
}
