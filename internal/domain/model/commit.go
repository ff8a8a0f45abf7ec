package model

import "time"

// Commit is the subset of commit metadata the watcher cares about.
type Commit struct {
	SHA        string
	AuthorName string
	AuthoredAt time.Time
	Message    string
	URL        string
}

// ShortSHA returns the abbreviated commit identifier used in user-facing text.
func (c Commit) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}
