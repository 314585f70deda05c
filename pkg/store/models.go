package store

import "github.com/newsmirror/newsmirror/pkg/domain"

// dbFolder is the database representation of domain.Folder
type dbFolder struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

// dbFeed is the database representation of domain.Feed
type dbFeed struct {
	ID               int64  `db:"id"`
	FolderID         int64  `db:"folder_id"`
	Title            string `db:"title"`
	URL              string `db:"url"`
	Link             string `db:"link"`
	FaviconLink      string `db:"favicon_link"`
	Ordering         int    `db:"ordering"`
	Pinned           bool   `db:"pinned"`
	UpdateErrorCount int    `db:"update_error_count"`
	LastUpdateError  string `db:"last_update_error"`
	UnreadCount      int    `db:"unread_count"`
	StarredCount     int    `db:"starred_count"`
}

// dbItem is the database representation of domain.Item
type dbItem struct {
	ID            int64  `db:"id"`
	FeedID        int64  `db:"feed_id"`
	GUIDHash      string `db:"guid_hash"`
	Title         string `db:"title"`
	Body          string `db:"body"`
	Author        string `db:"author"`
	URL           string `db:"url"`
	EnclosureLink string `db:"enclosure_link"`
	EnclosureMime string `db:"enclosure_mime"`
	PubDate       int64  `db:"pub_date"`
	LastModified  int64  `db:"last_modified"`
	Unread        bool   `db:"unread"`
	Starred       bool   `db:"starred"`
}

func toDBFeed(f *domain.Feed) dbFeed {
	return dbFeed{
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
		StarredCount:     f.StarredCount,
	}
}

func (f *dbFeed) toDomain() domain.Feed {
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
		StarredCount:     f.StarredCount,
	}
}

func toDBItem(i *domain.Item) dbItem {
	return dbItem{
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

func (i *dbItem) toDomain() domain.Item {
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
