package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrForbidden is returned when a principal edits a post it did not author.
var ErrForbidden = errors.New("not the author")

// Post is a user-authored article.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Posts stores posts in memory.
type Posts struct {
	items *Memory[Post]
	now   func() time.Time
}

// NewPosts returns an empty post store. A nil clock means time.Now.
func NewPosts(now func() time.Time) *Posts {
	if now == nil {
		now = time.Now
	}
	return &Posts{
		items: NewMemory(func(p Post) string { return p.ID }),
		now:   now,
	}
}

func (s *Posts) Create(authorID, title, content string) (Post, error) {
	ts := s.now().UTC()
	p := Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.items.Insert(p); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *Posts) Get(id string) (Post, error) {
	return s.items.Find(id)
}

func (s *Posts) List() []Post {
	return s.items.List()
}

// Update replaces title and content. Only the original author may update.
func (s *Posts) Update(id, authorID, title, content string) (Post, error) {
	return s.items.Update(id, func(p *Post) error {
		if p.AuthorID != authorID {
			return ErrForbidden
		}
		p.Title = title
		p.Content = content
		p.UpdatedAt = s.now().UTC()
		return nil
	})
}
