package models

import "time"

// HistoryEntry records one successful generation. Entries are never modified after creation.
type HistoryEntry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Model     string    `json:"model"` // Display name of the model used
	CreatedAt time.Time `json:"timestamp"`
}
