package models

import "encoding/json"

type Post struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  *User  `json:"author,omitempty"`
	// AuthorUsername is sent by older API versions instead of Author.
	AuthorUsername string    `json:"authorUsername,omitempty"`
	CreatedAt      Timestamp `json:"createdAt"`
	LikeCount      int       `json:"likeCount"`
	IsLiked        bool      `json:"isLiked"`
	CommentCount   int       `json:"commentCount"`
	Comments       []Comment `json:"comments,omitempty"`
}

// UnmarshalJSON accepts Mongo-style "_id" keys as well as "id".
func (p *Post) UnmarshalJSON(b []byte) error {
	type alias Post
	var raw struct {
		alias
		MongoID ID `json:"_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Post(raw.alias)
	if p.ID.Empty() {
		p.ID = raw.MongoID
	}
	return nil
}

// AuthorName is the name shown on the post's author line.
func (p Post) AuthorName() string {
	if p.Author != nil {
		if n := p.Author.Name(); n != "" {
			return n
		}
	}
	if p.AuthorUsername != "" {
		return p.AuthorUsername
	}
	return "unknown"
}

// AuthorUser returns the embedded author, synthesising one from the legacy
// username field when needed.
func (p Post) AuthorUser() User {
	if p.Author != nil {
		return *p.Author
	}
	return User{Username: p.AuthorUsername}
}

// TotalComments prefers the server count and falls back to the embedded list.
func (p Post) TotalComments() int {
	if p.CommentCount > 0 || len(p.Comments) == 0 {
		return p.CommentCount
	}
	return len(p.Comments)
}

type Comment struct {
	ID        ID        `json:"id,omitempty"`
	Content   string    `json:"content"`
	Author    *User     `json:"author,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// LikeResult is the server's authoritative like state after a toggle.
type LikeResult struct {
	LikeCount int  `json:"likeCount"`
	IsLiked   bool `json:"isLiked"`
}
