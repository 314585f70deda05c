package domain

// Feed represents a subscribed feed as reported by the remote service.
// FolderID is a weak reference: 0 means unfiled, and a folder deletion does
// not cascade to its feeds. UnreadCount and StarredCount are derived from
// item state and maintained by the counter recompute pass.
type Feed struct {
	ID               int64  `json:"id"`
	FolderID         int64  `json:"folder_id"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	Link             string `json:"link"`
	FaviconLink      string `json:"favicon_link,omitempty"`
	Ordering         int    `json:"ordering"`
	Pinned           bool   `json:"pinned"`
	UpdateErrorCount int    `json:"update_error_count"`
	LastUpdateError  string `json:"last_update_error,omitempty"`
	UnreadCount      int    `json:"unread_count"`
	StarredCount     int    `json:"starred_count"`
}
