// Package domain defines the entities mirrored from the remote aggregation
// service and the shared value types used across the application.
package domain

// Folder groups feeds on the server side. Folders are owned by the remote
// service: they are created and removed only through reconciliation.
type Folder struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
