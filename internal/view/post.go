// Package view turns server objects into plain data for the renderers.
// Nothing here touches the network or the session.
package view

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/crucial707/blog-client/internal/models"
)

const (
	HeartFilled  = "♥"
	HeartOutline = "♡"
	// VerifiedMark follows the author name of admin posts.
	VerifiedMark = "✔"

	timeLayout = "Jan 2, 2006, 3:04 PM"
)

type PostView struct {
	ID             models.ID
	Title          string
	Content        string
	Author         string
	AuthorVerified bool
	Timestamp      string
	AvatarURL      string
	Initials       string
	Like           LikeView
	Comments       CommentsView
	CanEdit        bool

	// Post is kept so edit actions can prefill the editor.
	Post models.Post
}

type LikeView struct {
	Count int
	Liked bool
}

// Glyph is the filled heart when liked and the outline heart otherwise.
func (l LikeView) Glyph() string {
	if l.Liked {
		return HeartFilled
	}
	return HeartOutline
}

type CommentsView struct {
	Count int
	Items []CommentView
	Open  bool
}

type CommentView struct {
	Author    string
	AvatarURL string
	Initials  string
	Content   string
	Timestamp string
}

// FormatTime renders t in loc. Zero times render empty.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timeLayout)
}

// Initials is the first letter of name, upper-cased, used when there is no avatar.
func Initials(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// BuildPost returns the view of p for viewer (nil when signed out). It reports
// false for posts without an identifier; those are not rendered at all.
func BuildPost(p models.Post, viewer *models.User, loc *time.Location) (PostView, bool) {
	if p.ID.Empty() {
		return PostView{}, false
	}
	author := p.AuthorUser()
	name := p.AuthorName()

	v := PostView{
		ID:             p.ID,
		Title:          p.Title,
		Content:        p.Content,
		Author:         name,
		AuthorVerified: author.IsAdmin(),
		Timestamp:      FormatTime(p.CreatedAt.Time, loc),
		AvatarURL:      author.Avatar,
		Initials:       Initials(name),
		Like:           LikeView{Count: p.LikeCount, Liked: p.IsLiked},
		Comments:       CommentsView{Count: p.TotalComments()},
		Post:           p,
	}
	for _, c := range p.Comments {
		v.Comments.Items = append(v.Comments.Items, BuildComment(c, loc))
	}
	if viewer != nil {
		v.CanEdit = viewer.IsAdmin() || viewer.Same(author)
	}
	return v, true
}

// BuildList renders the feed, skipping malformed posts.
func BuildList(posts []models.Post, viewer *models.User, loc *time.Location) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		if v, ok := BuildPost(p, viewer, loc); ok {
			out = append(out, v)
		}
	}
	return out
}

// BuildOwnList renders the caller's own posts; every entry gets owner actions.
func BuildOwnList(posts []models.Post, viewer *models.User, loc *time.Location) []PostView {
	out := BuildList(posts, viewer, loc)
	for i := range out {
		out[i].CanEdit = true
	}
	return out
}

func BuildComment(c models.Comment, loc *time.Location) CommentView {
	author := models.User{}
	if c.Author != nil {
		author = *c.Author
	}
	name := author.Name()
	if name == "" {
		name = "unknown"
	}
	return CommentView{
		Author:    name,
		AvatarURL: author.Avatar,
		Initials:  Initials(name),
		Content:   c.Content,
		Timestamp: FormatTime(c.CreatedAt.Time, loc),
	}
}

// LocalComment builds a comment from the caller's cached profile rather than
// from the server's echo.
func LocalComment(author models.User, content string, at time.Time, loc *time.Location) CommentView {
	return BuildComment(models.Comment{
		Content:   content,
		Author:    &author,
		CreatedAt: models.Timestamp{Time: at},
	}, loc)
}

// Clone copies posts so a new state can patch entries without touching the old one.
func Clone(posts []PostView) []PostView {
	if posts == nil {
		return nil
	}
	return append([]PostView(nil), posts...)
}

// Find returns the index of the post with id, or -1.
func Find(posts []PostView, id models.ID) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

// ApplyLike sets the like widget of post id to the server's result.
func ApplyLike(posts []PostView, id models.ID, res models.LikeResult) {
	if i := Find(posts, id); i >= 0 {
		posts[i].Like = LikeView{Count: res.LikeCount, Liked: res.IsLiked}
		posts[i].Post.LikeCount = res.LikeCount
		posts[i].Post.IsLiked = res.IsLiked
	}
}

// AppendComment adds c to post id and bumps its displayed count by one.
// The comment slice is copied so earlier states are left untouched.
func AppendComment(posts []PostView, id models.ID, c CommentView) {
	if i := Find(posts, id); i >= 0 {
		items := make([]CommentView, 0, len(posts[i].Comments.Items)+1)
		posts[i].Comments.Items = append(append(items, posts[i].Comments.Items...), c)
		posts[i].Comments.Count++
		posts[i].Comments.Open = true
	}
}
