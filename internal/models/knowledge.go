package models

import "time"

// KnowledgeDocument is a chunked, embedded text artifact searchable by
// semantic similarity.
type KnowledgeDocument struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	ProjectID  string    `json:"project_id,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchHit is one scored chunk returned by semantic search.
type SearchHit struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Chunk      string  `json:"chunk"`
	Score      float64 `json:"score"`
}

// Quote is a market-data snapshot for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SymbolInfo is one match from a symbol search.
type SymbolInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// Task statuses reported by GET /tasks/{id}.
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// TaskStatus is the state of an asynchronous backend job, such as knowledge
// ingestion.
type TaskStatus struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Terminal reports whether the task has finished, successfully or not.
func (t TaskStatus) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
