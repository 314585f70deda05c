package domain

// Item represents a single article mirrored from the remote service.
// FeedID is a weak reference to a Feed; deleting a feed removes its items.
// PubDate and LastModified are unix seconds, matching the wire format.
type Item struct {
	ID            int64  `json:"id"`
	FeedID        int64  `json:"feed_id"`
	GUIDHash      string `json:"guid_hash"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	Author        string `json:"author,omitempty"`
	URL           string `json:"url"`
	EnclosureLink string `json:"enclosure_link,omitempty"`
	EnclosureMime string `json:"enclosure_mime,omitempty"`
	PubDate       int64  `json:"pub_date"`
	LastModified  int64  `json:"last_modified"`
	Unread        bool   `json:"unread"`
	Starred       bool   `json:"starred"`
}
