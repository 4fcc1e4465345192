package delivery

import "github.com/google/uuid"

// Task is one pending delivery: a newsletter issue addressed to a single
// subscriber. NRetries counts failed attempts so far.
type Task struct {
	IssueID  uuid.UUID
	Email    string
	NRetries int16
}

// IssueContent is the renderable part of a newsletter issue.
type IssueContent struct {
	Title       string
	TextContent string
	HTMLContent string
}
