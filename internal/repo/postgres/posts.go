package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *PostsRepo) Create(ctx context.Context, ownerID string, req post.CreatePostRequest) (post.Post, error) {
	now := time.Now().UTC()

	p := post.Post{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Body:      req.Body,
		Image:     req.Image,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.observe("posts.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO posts (id, title, body, image, owner_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Title, p.Body, p.Image, p.OwnerID, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

const listSelect = `
	SELECT p.id, p.title, p.body, p.image, p.owner_id, p.created_at, p.updated_at,
	       u.id, u.name, u.email
	FROM posts p
	JOIN users u ON u.id = p.owner_id
`

// List returns posts joined with their owner's public identity, newest first.
// A zero limit means no page bound.
func (r *PostsRepo) List(ctx context.Context, limit int) ([]post.ListedPost, error) {
	query := listSelect + ` ORDER BY p.created_at DESC, p.id DESC`
	args := []interface{}{}

	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var out []post.ListedPost

	err := r.observe("posts.list", func() error {
		rows, e := r.pool.Query(ctx, query, args...)

		if e != nil {
			return e
		}

		defer rows.Close()

		out, e = scanListedPosts(rows)
		return e
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// ListAfter is the keyset variant: posts strictly older than the cursor row.
func (r *PostsRepo) ListAfter(ctx context.Context, limit int, afterCreatedAt time.Time, afterID string) ([]post.ListedPost, error) {
	query := listSelect + `
	WHERE (p.created_at, p.id) < ($1, $2)
	ORDER BY p.created_at DESC, p.id DESC
	LIMIT $3`

	var out []post.ListedPost

	err := r.observe("posts.list_after", func() error {
		rows, e := r.pool.Query(ctx, query, afterCreatedAt, afterID, limit)

		if e != nil {
			return e
		}

		defer rows.Close()

		out, e = scanListedPosts(rows)
		return e
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func scanListedPosts(rows pgx.Rows) ([]post.ListedPost, error) {
	out := make([]post.ListedPost, 0)

	for rows.Next() {
		var lp post.ListedPost

		err := rows.Scan(
			&lp.ID, &lp.Title, &lp.Body, &lp.Image, &lp.OwnerID, &lp.CreatedAt, &lp.UpdatedAt,
			&lp.Owner.ID, &lp.Owner.Name, &lp.Owner.Email,
		)

		if err != nil {
			return nil, err
		}

		out = append(out, lp)
	}

	return out, rows.Err()
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, title, body, image, owner_id, created_at, updated_at
			 FROM posts
			 WHERE id = $1`,
			id,
		).Scan(&p.ID, &p.Title, &p.Body, &p.Image, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	return p, nil
}

// Update rewrites the mutable fields only. owner_id is never part of the SET
// list, so ownership cannot move after creation.
func (r *PostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE posts
				SET title = $2,
						body = $3,
						image = $4,
						updated_at = NOW()
			WHERE id = $1
			RETURNING id, title, body, image, owner_id, created_at, updated_at`,
			id,
			req.Title,
			req.Body,
			req.Image,
		).Scan(
			&p.ID,
			&p.Title,
			&p.Body,
			&p.Image,
			&p.OwnerID,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		// if it is any other type of error
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	var tag int64

	err := r.observe("posts.delete", func() error {
		res, e := r.pool.Exec(ctx, `
			DELETE from posts WHERE id = $1
		`, id)

		if e != nil {
			return e
		}

		tag = res.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag == 0 {
		return post.ErrNotFound
	}

	return nil
}
