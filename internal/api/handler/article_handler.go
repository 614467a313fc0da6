package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillpress/blog-api/internal/api/metrics"
	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

type ArticleHandler struct {
	articles ports.ArticleService
	views    ports.ViewRecorder
}

// NewArticleHandler returns an ArticleHandler. views may be nil, in which
// case reads are not counted.
func NewArticleHandler(articles ports.ArticleService, views ports.ViewRecorder) *ArticleHandler {
	return &ArticleHandler{articles: articles, views: views}
}

// List returns a page of articles visible to the caller.
//
// @Summary      List articles
// @Tags         articles
// @Produce      json
// @Param        tag     query     string  false  "Filter by tag"
// @Param        author  query     string  false  "Filter by author username"
// @Param        status  query     string  false  "draft or published"
// @Param        q       query     string  false  "Search title and description"
// @Param        page    query     int     false  "Page number (default 1, max 1000000)"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Success      200     {object}  listArticlesResponse
// @Failure      400     {object}  ErrorResponse
// @Router       /articles [get]
func (h *ArticleHandler) List(c echo.Context) error {
	var q listArticlesQuery
	if err := bind(c, &q, "query"); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	res, err := h.articles.ListArticles(c.Request().Context(), toListArticlesInput(q, optionalIdentity(c)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListArticlesResponse(res))
}

// Get returns a single article and counts the read when it is published.
//
// @Summary      Get an article by slug
// @Tags         articles
// @Produce      json
// @Param        slug  path      string  true  "Article slug"
// @Success      200   {object}  articleResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /articles/{slug} [get]
func (h *ArticleHandler) Get(c echo.Context) error {
	viewer := optionalIdentity(c)
	article, err := h.articles.GetArticle(c.Request().Context(), c.Param("slug"), viewer)
	if err != nil {
		return err
	}

	if h.views != nil && article.Status == domain.ArticlePublished {
		key := c.RealIP()
		if viewer != nil {
			key = viewer.AccountID
		}
		h.views.Enqueue(ports.ArticleView{ArticleID: article.ID, ViewerKey: key})
	}
	return c.JSON(http.StatusOK, toArticleResponse(article))
}

// Create stores a new draft owned by the caller.
//
// @Summary      Create an article
// @Tags         articles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createArticleRequest  true  "Article content"
// @Success      201   {object}  articleResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /articles [post]
func (h *ArticleHandler) Create(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req createArticleRequest
	if err := bind(c, &req, "body"); err != nil {
		return err
	}

	article, err := h.articles.CreateArticle(c.Request().Context(), id, toCreateArticleInput(req))
	if err != nil {
		return err
	}
	metrics.ArticleWritesTotal.WithLabelValues("create").Inc()
	c.Response().Header().Set(echo.HeaderLocation, articleLink(article.Slug).Self)
	return c.JSON(http.StatusCreated, toArticleResponse(article))
}

// Update changes an article's content. Authors may edit their own articles;
// editors and admins may edit any.
//
// @Summary      Update an article
// @Tags         articles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string                true  "Article slug"
// @Param        body  body      updateArticleRequest  true  "Fields to change"
// @Success      200   {object}  articleResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /articles/{slug} [patch]
func (h *ArticleHandler) Update(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req updateArticleRequest
	if err := bind(c, &req, "body"); err != nil {
		return err
	}

	article, err := h.articles.UpdateArticle(c.Request().Context(), id, c.Param("slug"), toUpdateArticleInput(req))
	if err != nil {
		return err
	}
	metrics.ArticleWritesTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toArticleResponse(article))
}

// Delete removes an article. Only its author or an admin may delete it.
//
// @Summary      Delete an article
// @Tags         articles
// @Security     BearerAuth
// @Param        slug  path  string  true  "Article slug"
// @Success      204
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /articles/{slug} [delete]
func (h *ArticleHandler) Delete(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.articles.DeleteArticle(c.Request().Context(), id, c.Param("slug")); err != nil {
		return err
	}
	metrics.ArticleWritesTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Publish makes a draft public.
//
// @Summary      Publish an article
// @Tags         articles
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Article slug"
// @Success      200   {object}  articleResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /articles/{slug}/publish [post]
func (h *ArticleHandler) Publish(c echo.Context) error {
	return h.moderate(c, "publish", h.articles.PublishArticle)
}

// Unpublish returns an article to draft.
//
// @Summary      Unpublish an article
// @Tags         articles
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Article slug"
// @Success      200   {object}  articleResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /articles/{slug}/unpublish [post]
func (h *ArticleHandler) Unpublish(c echo.Context) error {
	return h.moderate(c, "unpublish", h.articles.UnpublishArticle)
}

type moderationFunc func(ctx context.Context, actor domain.Identity, slug string) (*domain.Article, error)

func (h *ArticleHandler) moderate(c echo.Context, action string, fn moderationFunc) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	article, err := fn(c.Request().Context(), id, c.Param("slug"))
	if err != nil {
		return err
	}
	metrics.ArticleWritesTotal.WithLabelValues(action).Inc()
	return c.JSON(http.StatusOK, toArticleResponse(article))
}

// Tags lists tag usage over published articles.
//
// @Summary      List tags
// @Tags         articles
// @Produce      json
// @Success      200  {object}  listTagsResponse
// @Router       /tags [get]
func (h *ArticleHandler) Tags(c echo.Context) error {
	tags, err := h.articles.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListTagsResponse(tags))
}
