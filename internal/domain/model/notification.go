package model

// NotificationJob describes one detected change and its intended recipients.
// Jobs are transient: built by the poll loop, consumed once by the dispatcher,
// and never persisted or retried.
type NotificationJob struct {
	RepoFullName string
	Commit       Commit
	Recipients   []string
}
