package handler

import (
	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Email:        req.Email,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Password:     req.Password,
		AgreeToTerms: req.AgreeToTerms,
	}
}

func toLoginInput(req loginRequest) ports.LoginInput {
	return ports.LoginInput{Email: req.Email, Password: req.Password, RememberMe: req.RememberMe}
}

func toUpdateProfileInput(req updateProfileRequest) ports.UpdateProfileInput {
	return ports.UpdateProfileInput{DisplayName: req.DisplayName, Bio: req.Bio, AvatarURL: req.AvatarURL}
}

func toChangePasswordInput(req changePasswordRequest) ports.ChangePasswordInput {
	return ports.ChangePasswordInput{OldPassword: req.OldPassword, NewPassword: req.NewPassword}
}

func toCreateArticleInput(req createArticleRequest) ports.CreateArticleInput {
	return ports.CreateArticleInput{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Tags:        req.Tags,
	}
}

func toUpdateArticleInput(req updateArticleRequest) ports.UpdateArticleInput {
	return ports.UpdateArticleInput{
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Tags:        req.Tags,
	}
}

func toListArticlesInput(q listArticlesQuery, viewer *domain.Identity) ports.ListArticlesInput {
	return ports.ListArticlesInput{
		Viewer: viewer,
		Tag:    q.Tag,
		Author: q.Author,
		Status: q.Status,
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	}
}

// --- Service result → HTTP response ---

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{Account: r.Account, Token: r.Token, ExpiresAt: r.ExpiresAt.UTC()}
}

func articleLink(slug string) articleLinks {
	return articleLinks{Self: "/api/articles/" + slug}
}

func toArticleResponse(a *domain.Article) articleResponse {
	return articleResponse{
		ID:             a.ID,
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		Tags:           nonNilTags(a.Tags),
		Status:         string(a.Status),
		AuthorID:       a.AuthorID,
		AuthorUsername: a.AuthorUsername,
		ViewCount:      a.ViewCount,
		PublishedAt:    a.PublishedAt,
		CreatedAt:      a.CreatedAt.UTC(),
		UpdatedAt:      a.UpdatedAt.UTC(),
		Links:          articleLink(a.Slug),
	}
}

func toListArticlesResponse(r *ports.ListArticlesResult) listArticlesResponse {
	data := make([]articleSummaryResponse, 0, len(r.Items))
	for _, a := range r.Items {
		data = append(data, articleSummaryResponse{
			Slug:           a.Slug,
			Title:          a.Title,
			Description:    a.Description,
			Tags:           nonNilTags(a.Tags),
			Status:         string(a.Status),
			AuthorUsername: a.AuthorUsername,
			ViewCount:      a.ViewCount,
			PublishedAt:    a.PublishedAt,
			CreatedAt:      a.CreatedAt.UTC(),
			Links:          articleLink(a.Slug),
		})
	}
	return listArticlesResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toListTagsResponse(tags []domain.TagCount) listTagsResponse {
	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagResponse{Tag: t.Tag, Count: t.Count})
	}
	return listTagsResponse{Tags: out}
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
