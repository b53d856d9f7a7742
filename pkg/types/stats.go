package types

// SyncStats - сводка прогона по категориям итогов.
type SyncStats struct {
	Total       int `json:"total"`
	Created     int `json:"created"`
	Skipped     int `json:"skipped"`
	Overwritten int `json:"overwritten"`
	Failed      int `json:"failed"`
}
