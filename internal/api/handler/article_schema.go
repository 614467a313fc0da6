package handler

import "time"

type createArticleRequest struct {
	Title       string   `json:"title" example:"Hello, world"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	Tags        []string `json:"tags" example:"go,backend"`
}

type updateArticleRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Body        *string   `json:"body,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// listArticlesQuery is bound from the query string of GET /articles.
type listArticlesQuery struct {
	Tag    string `query:"tag" json:"tag" validate:"omitempty,max=30"`
	Author string `query:"author" json:"author" validate:"omitempty,max=30"`
	Status string `query:"status" json:"status" validate:"omitempty,oneof=draft published"`
	Search string `query:"q" json:"q" validate:"omitempty,max=100"`
	Page   int    `query:"page" json:"page" validate:"gte=0,max=1000000"`
	Limit  int    `query:"limit" json:"limit" validate:"gte=0"`
}

type articleLinks struct {
	Self string `json:"self"`
}

type articleResponse struct {
	ID             string       `json:"id"`
	Slug           string       `json:"slug"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Body           string       `json:"body"`
	Tags           []string     `json:"tags"`
	Status         string       `json:"status"`
	AuthorID       string       `json:"authorId"`
	AuthorUsername string       `json:"authorUsername"`
	ViewCount      int64        `json:"viewCount"`
	PublishedAt    *time.Time   `json:"publishedAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	Links          articleLinks `json:"_links"`
}

// articleSummaryResponse is the list item. It omits the body to keep pages
// small.
type articleSummaryResponse struct {
	Slug           string       `json:"slug"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Tags           []string     `json:"tags"`
	Status         string       `json:"status"`
	AuthorUsername string       `json:"authorUsername"`
	ViewCount      int64        `json:"viewCount"`
	PublishedAt    *time.Time   `json:"publishedAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	Links          articleLinks `json:"_links"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type listArticlesResponse struct {
	Data       []articleSummaryResponse `json:"data"`
	Pagination paginationResponse       `json:"pagination"`
}

type tagResponse struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type listTagsResponse struct {
	Tags []tagResponse `json:"tags"`
}
