package dto

type SyncStatusResponse struct {
	TotalPairs int64 `json:"total_pairs"`
	Synced     int64 `json:"synced"`
	Pending    int64 `json:"pending"`
}

type TriggerSyncResponse struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

type IndexStatsResponse struct {
	Embeddings int64                `json:"embeddings"`
	Dimensions []DimensionStatEntry `json:"dimensions"`
}

type DimensionStatEntry struct {
	Strategy      string `json:"strategy"`
	LayoutVersion string `json:"layout_version"`
	Dimension     int    `json:"dimension"`
	Count         int64  `json:"count"`
	Valid         bool   `json:"valid"`
}
