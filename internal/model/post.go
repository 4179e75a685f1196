// Package model holds the transient values that flow through one
// request/response cycle: the Post resource, the validated inbound
// requests, and the response envelopes.
//
// Nothing here is persisted.
package model

import (
	"encoding/json"
)

// Post is the resource exchanged with the upstream.
//
// Every field is a pointer so "not sent" and "zero" stay distinct: a partial
// update must not overwrite fields the caller left out.
type Post struct {
	// ID is assigned by the upstream and only ever appears in responses.
	ID     *int64   `json:"id,omitempty"`
	Title  *string  `json:"title,omitempty"`
	Body   *string  `json:"body,omitempty"`
	UserID *float64 `json:"userId,omitempty"`
}

// MessageResponse is the {message} success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// UpdatePostResponse is the {message, post} envelope returned by update.
//
// Post is the upstream's representation, passed through verbatim.
type UpdatePostResponse struct {
	Message string          `json:"message"`
	Post    json.RawMessage `json:"post"`
}

// Success messages.
const (
	MessagePostCreated = "Post was created successfully"
	MessagePostUpdated = "Post was updated successfully"
	MessagePostDeleted = "Post deleted"
)
