package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/http/handlers"
	"github.com/geocoder89/postboard/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Fake posts store implementing handlers.PostsStore

type fakePostsRepo struct {
	createFn    func(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error)
	listFn      func(ctx context.Context, limit int) ([]post.ListedPost, error)
	listAfterFn func(ctx context.Context, limit int, afterCreatedAt time.Time, afterID string) ([]post.ListedPost, error)
	getFn       func(ctx context.Context, id string) (post.Post, error)
	updateFn    func(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error)
	deleteFn    func(ctx context.Context, id string) error
}

func (f *fakePostsRepo) Create(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}
	return post.Post{}, nil
}

func (f *fakePostsRepo) List(ctx context.Context, limit int) ([]post.ListedPost, error) {
	if f.listFn != nil {
		return f.listFn(ctx, limit)
	}
	return []post.ListedPost{}, nil
}

func (f *fakePostsRepo) ListAfter(ctx context.Context, limit int, afterCreatedAt time.Time, afterID string) ([]post.ListedPost, error) {
	if f.listAfterFn != nil {
		return f.listAfterFn(ctx, limit, afterCreatedAt, afterID)
	}
	return []post.ListedPost{}, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return post.Post{}, post.ErrNotFound
}

func (f *fakePostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return post.Post{}, post.ErrNotFound
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return post.ErrNotFound
}

// setupPostsRouter mounts the posts surface behind the real auth guard so
// tests exercise the token path end to end.
func setupPostsRouter(repo *fakePostsRepo) *gin.Engine {
	r := gin.New()

	h := handlers.NewPostsHandler(repo, nil)
	mw := middlewares.NewAuthMiddleware(newTestJWT(), nil)

	r.GET("/posts", h.ListPosts)

	protected := r.Group("/")
	protected.Use(mw.RequireAuth())
	protected.POST("/posts", h.CreatePost)
	protected.PUT("/posts/:postId", h.UpdatePost)
	protected.DELETE("/posts/:postId", h.DeletePost)

	return r
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()

	token, err := newTestJWT().GenerateAccessToken(userID, userID+"@x.com")
	if err != nil {
		t.Fatalf("could not issue token: %v", err)
	}
	return token
}

func doAuthedJSON(t *testing.T, r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if token != "" {
		req.Header.Set("auth-token", token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestCreatePostHandler(t *testing.T) {
	ownerID := uuid.NewString()

	tests := []struct {
		name           string
		token          string
		body           string
		repoSetUp      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name:  "success_sets_owner_from_token",
			token: tokenFor(t, ownerID),
			body:  `{"title":"Hi","body":"B","image":"i.png"}`,
			repoSetUp: func(f *fakePostsRepo) {
				f.createFn = func(ctx context.Context, gotOwner string, req post.CreatePostRequest) (post.Post, error) {
					if gotOwner != ownerID {
						t.Fatalf("owner = %q, want %q", gotOwner, ownerID)
					}
					return post.Post{
						ID:      uuid.NewString(),
						Title:   req.Title,
						Body:    req.Body,
						Image:   req.Image,
						OwnerID: gotOwner,
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_token",
			token:          "",
			body:           `{"title":"Hi","body":"B","image":"i.png"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "garbage_token",
			token:          "not.a.token",
			body:           `{"title":"Hi","body":"B","image":"i.png"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "validation_error",
			token:          tokenFor(t, ownerID),
			body:           `{"title":"Hi"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			r := setupPostsRouter(repo)

			w := doAuthedJSON(t, r, http.MethodPost, "/posts", tt.token, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Post post.Post `json:"post"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("could not decode body: %v", err)
			}

			if resp.Post.OwnerID != ownerID {
				t.Fatalf("post owner = %q, want %q", resp.Post.OwnerID, ownerID)
			}
		})
	}
}

func TestListPostsHandler(t *testing.T) {
	owner := post.Owner{ID: uuid.NewString(), Name: "Al", Email: "a@x.com"}

	listed := []post.ListedPost{
		{
			Post: post.Post{
				ID:      uuid.NewString(),
				Title:   "Hi",
				Body:    "B",
				Image:   "i.png",
				OwnerID: owner.ID,
			},
			Owner: owner,
		},
	}

	repo := &fakePostsRepo{
		listFn: func(ctx context.Context, limit int) ([]post.ListedPost, error) {
			return listed, nil
		},
	}

	r := setupPostsRouter(repo)

	w := doAuthedJSON(t, r, http.MethodGet, "/posts", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	body := w.Body.String()

	if !strings.Contains(body, `"posts"`) {
		t.Fatalf("response missing posts array: %s", body)
	}

	if !strings.Contains(body, owner.Name) || !strings.Contains(body, owner.Email) {
		t.Fatalf("listing should include owner name and email: %s", body)
	}

	// the hash must never leak through the projection
	if strings.Contains(body, "passwordHash") || strings.Contains(body, "password_hash") {
		t.Fatalf("listing leaked a password field: %s", body)
	}

	if w.Header().Get("ETag") == "" {
		t.Fatal("expected an ETag header on the listing")
	}
}

func TestListPostsNotModified(t *testing.T) {
	repo := &fakePostsRepo{
		listFn: func(ctx context.Context, limit int) ([]post.ListedPost, error) {
			return []post.ListedPost{}, nil
		},
	}

	r := setupPostsRouter(repo)

	first := doAuthedJSON(t, r, http.MethodGet, "/posts", "", "")
	etag := first.Header().Get("ETag")

	if etag == "" {
		t.Fatal("expected an ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("If-None-Match", etag)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
}

func TestUpdatePostHandler(t *testing.T) {
	ownerID := uuid.NewString()
	strangerID := uuid.NewString()
	postID := uuid.NewString()

	existing := post.Post{
		ID:      postID,
		Title:   "Hi",
		Body:    "B",
		Image:   "i.png",
		OwnerID: ownerID,
	}

	body := `{"title":"New","body":"NB","image":"n.png"}`

	tests := []struct {
		name           string
		token          string
		path           string
		repoSetUp      func(*fakePostsRepo)
		wantStatusCode int
		wantUpdated    bool
	}{
		{
			name:  "owner_can_update",
			token: tokenFor(t, ownerID),
			path:  "/posts/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.getFn = func(ctx context.Context, id string) (post.Post, error) {
					return existing, nil
				}
				f.updateFn = func(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
					updated := existing
					updated.Title = req.Title
					updated.Body = req.Body
					updated.Image = req.Image
					return updated, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantUpdated:    true,
		},
		{
			name:  "non_owner_forbidden",
			token: tokenFor(t, strangerID),
			path:  "/posts/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.getFn = func(ctx context.Context, id string) (post.Post, error) {
					return existing, nil
				}
				f.updateFn = func(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
					t.Fatal("update must not run for a non-owner")
					return post.Post{}, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing_post",
			token:          tokenFor(t, ownerID),
			path:           "/posts/" + uuid.NewString(),
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_post_id",
			token:          tokenFor(t, ownerID),
			path:           "/posts/not-a-uuid",
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			r := setupPostsRouter(repo)

			w := doAuthedJSON(t, r, http.MethodPut, tt.path, tt.token, body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantUpdated && !strings.Contains(w.Body.String(), "Post updated successfully") {
				t.Fatalf("missing confirmation message: %s", w.Body.String())
			}
		})
	}
}

func TestDeletePostHandler(t *testing.T) {
	ownerID := uuid.NewString()
	strangerID := uuid.NewString()
	postID := uuid.NewString()

	existing := post.Post{ID: postID, OwnerID: ownerID}

	tests := []struct {
		name           string
		token          string
		path           string
		repoSetUp      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name:  "owner_can_delete",
			token: tokenFor(t, ownerID),
			path:  "/posts/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.getFn = func(ctx context.Context, id string) (post.Post, error) {
					return existing, nil
				}
				f.deleteFn = func(ctx context.Context, id string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "non_owner_forbidden",
			token: tokenFor(t, strangerID),
			path:  "/posts/" + postID,
			repoSetUp: func(f *fakePostsRepo) {
				f.getFn = func(ctx context.Context, id string) (post.Post, error) {
					return existing, nil
				}
				f.deleteFn = func(ctx context.Context, id string) error {
					t.Fatal("delete must not run for a non-owner")
					return nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing_post",
			token:          tokenFor(t, ownerID),
			path:           "/posts/" + uuid.NewString(),
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "missing_token",
			token:          "",
			path:           "/posts/" + postID,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			r := setupPostsRouter(repo)

			w := doAuthedJSON(t, r, http.MethodDelete, tt.path, tt.token, "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
