package dto

type CreateRecordRequest struct {
	Name string `json:"name"`
}

// UpdateRecordRequest requires the name key; an empty value is accepted.
type UpdateRecordRequest struct {
	Name *string `json:"name" binding:"required"`
}

type RecordResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type ListRecordsResponse struct {
	Items []RecordResponse `json:"items"`
}

type StatsResponse struct {
	Total             int    `json:"total"`
	LastModified      string `json:"lastModified"`
	LongestName       string `json:"longestName"`
	LongestNameLength int    `json:"longestNameLength"`
	EarliestRecord    string `json:"earliestRecord"`
	LatestRecord      string `json:"latestRecord"`
	LatestBackup      string `json:"latestBackup,omitempty"`
}
