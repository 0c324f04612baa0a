package view

import (
	"github.com/pictora/pictora/internal/entities"
)

// Carousel pages through a post's media in display order.
type Carousel struct {
	media []*entities.PostMedia
	index int
}

// NewCarousel ...
func NewCarousel(p *entities.Post) *Carousel {
	return &Carousel{media: p.Media}
}

// Current returns the displayed media, nil for a post without media.
func (c *Carousel) Current() *entities.PostMedia {
	if len(c.media) == 0 {
		return nil
	}

	return c.media[c.index]
}

// Next moves forward, reporting whether the index changed.
func (c *Carousel) Next() bool {
	if c.index >= len(c.media)-1 {
		return false
	}

	c.index++

	return true
}

// Prev moves backward, reporting whether the index changed.
func (c *Carousel) Prev() bool {
	if c.index == 0 {
		return false
	}

	c.index--

	return true
}

// Index ...
func (c *Carousel) Index() int { return c.index }

// Len ...
func (c *Carousel) Len() int { return len(c.media) }
