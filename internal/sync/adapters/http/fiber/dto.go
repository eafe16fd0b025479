package fiber

type SyncResponse struct {
	Fetched      bool `json:"fetched"`
	Clicks       int  `json:"clicks"`
	Sessions     int  `json:"sessions"`
	FailedWrites int  `json:"failedWrites"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"snapshot_not_found"`
	Message string `json:"message" example:"record not found"`
}
