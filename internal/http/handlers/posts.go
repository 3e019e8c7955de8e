package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/postboard/internal/cache"
	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/geocoder89/postboard/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type PostsStore interface {
	Create(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error)
	List(ctx context.Context, limit int) ([]post.ListedPost, error)
	ListAfter(ctx context.Context, limit int, afterCreatedAt time.Time, afterID string) ([]post.ListedPost, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error)
	Delete(ctx context.Context, id string) error
}

type PostsHandler struct {
	repo  PostsStore
	cache *cache.Cache
}

// NewPostsHandler wires the posts CRUD surface. cache may be nil to disable
// listing memoization.
func NewPostsHandler(repo PostsStore, listCache *cache.Cache) *PostsHandler {
	return &PostsHandler{repo: repo, cache: listCache}
}

type listPostsResponse struct {
	Posts      []post.ListedPost `json:"posts"`
	NextCursor *string           `json:"nextCursor,omitempty"`
}

func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	limit := 0

	if rawLimit := ctx.Query("limit"); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)

		if err != nil || n < 1 {
			RespondBadRequest(ctx, "invalid_limit", "limit must be a positive integer", nil)
			return
		}

		if n > maxPageLimit {
			n = maxPageLimit
		}

		limit = n
	}

	rawCursor := ctx.Query("cursor")

	cacheKey := utils.BuildPostsListCacheKey(limit, rawCursor)

	if h.cache != nil {
		if cached, ok := h.cache.Get(cacheKey); ok {
			if resp, ok := cached.(listPostsResponse); ok {
				RespondJSONWithETag(ctx, http.StatusOK, resp)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	var (
		posts []post.ListedPost
		err   error
	)

	if rawCursor != "" {
		cursor, decodeErr := utils.DecodePostCursor(rawCursor)

		if decodeErr != nil {
			RespondBadRequest(ctx, "invalid_cursor", "cursor is malformed", nil)
			return
		}

		if limit == 0 {
			limit = defaultPageLimit
		}

		posts, err = h.repo.ListAfter(cctx, limit, cursor.CreatedAt, cursor.ID)
	} else {
		posts, err = h.repo.List(cctx, limit)
	}

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	resp := listPostsResponse{Posts: posts}

	// a full page means there may be more
	if limit > 0 && len(posts) == limit {
		last := posts[len(posts)-1]

		next, encodeErr := utils.EncodePostCursor(last.CreatedAt, last.ID)
		if encodeErr == nil {
			resp.NextCursor = &next
		}
	}

	if h.cache != nil {
		h.cache.Set(cacheKey, resp)
	}

	RespondJSONWithETag(ctx, http.StatusOK, resp)
}

func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, userID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create post")
		return
	}

	h.invalidateListings()

	ctx.JSON(http.StatusOK, gin.H{
		"post": created,
	})
}

func (h *PostsHandler) UpdatePost(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	postID := ctx.Param("postId")

	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, "Post not found")
		return
	}

	var req post.UpdatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, postID)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not update post")
		return
	}

	// existence first, then ownership; id equality on the store's native type
	if existing.OwnerID != userID {
		RespondForbidden(ctx, "You are not authorized to edit this post")
		return
	}

	_, err = h.repo.Update(cctx, postID, req)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not update post")
		return
	}

	h.invalidateListings()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
	})
}

func (h *PostsHandler) DeletePost(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	postID := ctx.Param("postId")

	if !utils.IsUUID(postID) {
		RespondNotFound(ctx, "Post not found")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, postID)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not delete post")
		return
	}

	if existing.OwnerID != userID {
		RespondForbidden(ctx, "You are not authorized to delete this post")
		return
	}

	err = h.repo.Delete(cctx, postID)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}

		RespondInternal(ctx, "Could not delete post")
		return
	}

	h.invalidateListings()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Post deleted successfully",
	})
}

func (h *PostsHandler) invalidateListings() {
	if h.cache != nil {
		h.cache.Clear()
	}
}
