package remote

import "github.com/newsmirror/newsmirror/pkg/domain"

// wire representations of the aggregation service JSON API (News API v1-2)

type userResponse struct {
	UserID             string `json:"userId"`
	DisplayName        string `json:"displayName"`
	LastLoginTimestamp int64  `json:"lastLoginTimestamp"`
}

type folderJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type foldersResponse struct {
	Folders []folderJSON `json:"folders"`
}

type feedJSON struct {
	ID               int64  `json:"id"`
	FolderID         int64  `json:"folderId"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	Link             string `json:"link"`
	FaviconLink      string `json:"faviconLink"`
	Ordering         int    `json:"ordering"`
	Pinned           bool   `json:"pinned"`
	UpdateErrorCount int    `json:"updateErrorCount"`
	LastUpdateError  string `json:"lastUpdateError"`
	UnreadCount      int    `json:"unreadCount"`
}

type feedsResponse struct {
	Feeds []feedJSON `json:"feeds"`
}

type itemJSON struct {
	ID            int64  `json:"id"`
	FeedID        int64  `json:"feedId"`
	GUIDHash      string `json:"guidHash"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	Author        string `json:"author"`
	URL           string `json:"url"`
	EnclosureLink string `json:"enclosureLink"`
	EnclosureMime string `json:"enclosureMime"`
	PubDate       int64  `json:"pubDate"`
	LastModified  int64  `json:"lastModified"`
	Unread        bool   `json:"unread"`
	Starred       bool   `json:"starred"`
}

type itemsResponse struct {
	Items []itemJSON `json:"items"`
}

type itemIDsRequest struct {
	Items []int64 `json:"items"`
}

// StarRef identifies an item for star/unstar pushes; the protocol keys
// starred state by feed id and guid hash rather than item id
type StarRef struct {
	FeedID   int64  `json:"feedId"`
	GUIDHash string `json:"guidHash"`
}

type starRefsRequest struct {
	Items []StarRef `json:"items"`
}

func (f *folderJSON) toDomain() domain.Folder {
	return domain.Folder{ID: f.ID, Title: f.Name}
}

func (f *feedJSON) toDomain() domain.Feed {
	return domain.Feed{
		ID:               f.ID,
		FolderID:         f.FolderID,
		Title:            f.Title,
		URL:              f.URL,
		Link:             f.Link,
		FaviconLink:      f.FaviconLink,
		Ordering:         f.Ordering,
		Pinned:           f.Pinned,
		UpdateErrorCount: f.UpdateErrorCount,
		LastUpdateError:  f.LastUpdateError,
		UnreadCount:      f.UnreadCount,
	}
}

func (i *itemJSON) toDomain() domain.Item {
	return domain.Item{
		ID:            i.ID,
		FeedID:        i.FeedID,
		GUIDHash:      i.GUIDHash,
		Title:         i.Title,
		Body:          i.Body,
		Author:        i.Author,
		URL:           i.URL,
		EnclosureLink: i.EnclosureLink,
		EnclosureMime: i.EnclosureMime,
		PubDate:       i.PubDate,
		LastModified:  i.LastModified,
		Unread:        i.Unread,
		Starred:       i.Starred,
	}
}
