package domain

import (
	"errors"
	"time"
)

// ArticleStatus represents the publication state of an article.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
)

// ErrSlugTaken is returned by repositories when a slug collides with an
// existing article. It never leaves the service layer.
var ErrSlugTaken = errors.New("slug already taken")

// Article is a blog post authored by an account.
type Article struct {
	ID             string        `json:"id" bson:"_id,omitempty"`
	Slug           string        `json:"slug" bson:"slug"`
	Title          string        `json:"title" bson:"title"`
	Description    string        `json:"description" bson:"description"`
	Body           string        `json:"body" bson:"body"`
	Tags           []string      `json:"tags" bson:"tags"`
	Status         ArticleStatus `json:"status" bson:"status"`
	AuthorID       string        `json:"authorId" bson:"author_id"`
	AuthorUsername string        `json:"authorUsername" bson:"author_username"`
	ViewCount      int64         `json:"viewCount" bson:"view_count"`
	PublishedAt    *time.Time    `json:"publishedAt,omitempty" bson:"published_at,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updated_at"`
}

// VisibleTo reports whether viewer may read a. viewer is nil for anonymous
// callers.
func (a *Article) VisibleTo(viewer *Identity) bool {
	if a.Status == ArticlePublished {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.AccountID == a.AuthorID || viewer.CanModerate()
}

// EditableBy reports whether id may change a's content.
func (a *Article) EditableBy(id Identity) bool {
	return id.AccountID == a.AuthorID || id.CanModerate()
}

// DeletableBy reports whether id may delete a.
func (a *Article) DeletableBy(id Identity) bool {
	return id.AccountID == a.AuthorID || id.Role == RoleAdmin
}

// TagCount is the number of published articles carrying a tag.
type TagCount struct {
	Tag   string `json:"tag" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}
