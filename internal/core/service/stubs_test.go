package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory account repository
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Account
	nextID  int
	findErr error // if set, every Find* returns this error
	// hideOnFind makes FindByEmail miss while Create still enforces
	// uniqueness, as when another request inserts between the two calls.
	hideOnFind bool
	updates    int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func (r *stubAccountRepo) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.hideOnFind {
		return nil, domain.ErrUserNotFound
	}
	for _, a := range r.byID {
		if match(a) {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

// FindByUsername matches case-insensitively, like the unique index collation.
func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return strings.EqualFold(a.Username, username) })
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ID == id })
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrEmailExists
		}
		if strings.EqualFold(existing.Username, a.Username) {
			return nil, domain.ErrUsernameExists
		}
	}
	r.nextID++
	clone := *a
	clone.ID = fmt.Sprintf("acc-%d", r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubAccountRepo) Update(_ context.Context, id string, p ports.AccountPatch) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if p.DisplayName != nil {
		a.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		a.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		a.AvatarURL = *p.AvatarURL
	}
	if p.PasswordHash != nil {
		a.PasswordHash = *p.PasswordHash
	}
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		a.LastLoginAt = &t
	}
	a.UpdatedAt = p.UpdatedAt
	r.updates++
	clone := *a
	return &clone, nil
}

// seed stores an account directly, bypassing the service.
func (r *stubAccountRepo) seed(a domain.Account) *domain.Account {
	created, err := r.Create(context.Background(), &a)
	if err != nil {
		panic(err)
	}
	return created
}

// ---------------------------------------------------------------------------
// In-memory article repository
// ---------------------------------------------------------------------------

type stubArticleRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Article
	nextID    int
	listErr   error
	lastList  ports.ListArticlesFilter
	viewCalls int
	// takenOnCreate lists slugs that Create rejects once even though
	// SlugExists reported them free.
	takenOnCreate map[string]bool
}

func newStubArticleRepo() *stubArticleRepo {
	return &stubArticleRepo{byID: make(map[string]*domain.Article), takenOnCreate: make(map[string]bool)}
}

func (r *stubArticleRepo) bySlug(slug string) *domain.Article {
	for _, a := range r.byID {
		if a.Slug == slug {
			return a
		}
	}
	return nil
}

func (r *stubArticleRepo) Create(_ context.Context, a *domain.Article) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenOnCreate[a.Slug] {
		delete(r.takenOnCreate, a.Slug)
		r.nextID++
		r.byID[fmt.Sprintf("race-%d", r.nextID)] = &domain.Article{Slug: a.Slug, Status: domain.ArticleDraft}
		return nil, domain.ErrSlugTaken
	}
	if r.bySlug(a.Slug) != nil {
		return nil, domain.ErrSlugTaken
	}
	r.nextID++
	clone := *a
	clone.ID = fmt.Sprintf("art-%d", r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubArticleRepo) FindBySlug(_ context.Context, slug string) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.bySlug(slug)
	if a == nil {
		return nil, domain.ErrArticleNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubArticleRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bySlug(slug) != nil, nil
}

func (r *stubArticleRepo) Update(_ context.Context, id string, p ports.ArticlePatch) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Body != nil {
		a.Body = *p.Body
	}
	if p.Tags != nil {
		a.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.PublishedAt != nil {
		a.PublishedAt = *p.PublishedAt
	}
	a.UpdatedAt = p.UpdatedAt
	clone := *a
	return &clone, nil
}

func (r *stubArticleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrArticleNotFound
	}
	delete(r.byID, id)
	return nil
}

// List applies the same filters the real repositories use.
func (r *stubArticleRepo) List(_ context.Context, f ports.ListArticlesFilter) ([]*domain.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = f
	if r.listErr != nil {
		return nil, 0, r.listErr
	}

	var matched []*domain.Article
	for _, a := range r.byID {
		if f.Status != "" && string(a.Status) != f.Status {
			continue
		}
		if f.AuthorID != "" && a.AuthorID != f.AuthorID {
			continue
		}
		if f.Tag != "" && !containsString(a.Tags, f.Tag) {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(a.Title), q) && !strings.Contains(strings.ToLower(a.Description), q) {
				continue
			}
		}
		clone := *a
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.Article{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubArticleRepo) Tags(_ context.Context, limit int) ([]domain.TagCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, a := range r.byID {
		if a.Status != domain.ArticlePublished {
			continue
		}
		for _, t := range a.Tags {
			counts[t]++
		}
	}
	out := make([]domain.TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, domain.TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubArticleRepo) IncrementViews(_ context.Context, id string, n int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewCalls++
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrArticleNotFound
	}
	a.ViewCount += n
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

// plainHasher is a fast, reversible stand-in for bcrypt.
type plainHasher struct{ err error }

func (h plainHasher) Hash(p string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + p, nil
}

func (plainHasher) Verify(p, cred string) bool { return cred == "hashed:"+p }

// fixedClock returns a clock that always reads t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
