// Package feed stores published composites and the community metadata
// around them: likes, comments and per-handle profiles.
package feed

import "time"

// Comment is a remark left on a post.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Post is one published composite.
type Post struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	BlobKey       string    `json:"blobKey,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Caps          int       `json:"caps"`
	Likes         int       `json:"likes"`
	Comments      []Comment `json:"comments"`
	TwitterHandle string    `json:"twitterHandle,omitempty"`
}

// Profile aggregates the posts published under one handle.
type Profile struct {
	Handle         string    `json:"handle"`
	TotalCreations int       `json:"totalCreations"`
	TotalLikes     int       `json:"totalLikes"`
	JoinedDate     time.Time `json:"joinedDate"`
	Posts          []Post    `json:"images"`
}

// PublishRequest carries an exported composite to Publish.
type PublishRequest struct {
	PNG    []byte
	Caps   int
	Handle string
}
