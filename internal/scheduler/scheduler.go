package scheduler

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// EagerPageCount is how many leading pages are rendered before any
// viewport geometry is known ("above the fold" default).
const EagerPageCount = 10

// Viewport describes the visible slice of the scroll container, in the
// same units as Layout.
type Viewport struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Layout describes the thumbnail grid geometry the client renders.
type Layout struct {
	Columns    int     `json:"columns"`
	ItemHeight float64 `json:"item_height"`
	Gap        float64 `json:"gap"`
}

func (l Layout) valid() bool { return l.Columns > 0 && l.ItemHeight > 0 }

// RenderFunc renders a single page. Failures are contained per page.
type RenderFunc func(ctx context.Context, page int) error

// Scheduler decides which pages must be rendered for the current
// viewport and drives their rendering without touching pages that are
// already materialized. It is safe for concurrent use.
type Scheduler struct {
	render RenderFunc

	mu        sync.Mutex
	pageCount int
	loaded    map[int]bool
	gen       uint64
}

// New builds a scheduler for a document of pageCount pages.
func New(pageCount int, render RenderFunc) *Scheduler {
	return &Scheduler{
		render:    render,
		pageCount: pageCount,
		loaded:    make(map[int]bool),
	}
}

// Reset rebinds the scheduler to a fresh document. The loaded set is
// discarded and in-flight completions from the old document are
// ignored when they land.
func (s *Scheduler) Reset(pageCount int, render RenderFunc) {
	s.mu.Lock()
	s.pageCount = pageCount
	s.loaded = make(map[int]bool)
	s.gen++
	if render != nil {
		s.render = render
	}
	s.mu.Unlock()
}

// Visible computes which pages of the given display order intersect the
// viewport. With no usable geometry it falls back to the first
// min(N, EagerPageCount) pages of the order.
func (s *Scheduler) Visible(order []int, vp Viewport, layout Layout) []int {
	if !layout.valid() || vp.Height <= 0 {
		n := len(order)
		if n > EagerPageCount {
			n = EagerPageCount
		}
		return append([]int(nil), order[:n]...)
	}

	rowH := layout.ItemHeight + layout.Gap
	var visible []int
	for i, page := range order {
		top := float64(i/layout.Columns) * rowH
		bottom := top + layout.ItemHeight
		if bottom >= vp.Top && top <= vp.Top+vp.Height {
			visible = append(visible, page)
		}
	}
	return visible
}

// Schedule renders every page in pages that is not already loaded. The
// batch runs in parallel and members complete in any order; a page's
// failure is logged and does not abort its batch. Returns the pages
// newly recorded as loaded.
func (s *Scheduler) Schedule(ctx context.Context, pages []int) []int {
	s.mu.Lock()
	gen := s.gen
	var batch []int
	for _, p := range pages {
		if p < 1 || p > s.pageCount || s.loaded[p] {
			continue
		}
		batch = append(batch, p)
	}
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	done := make([]bool, len(batch))
	var wg sync.WaitGroup
	for i, page := range batch {
		wg.Add(1)
		go func(i, page int) {
			defer wg.Done()
			if err := s.render(ctx, page); err != nil {
				log.Warn().Err(err).Int("page", page).Msg("page render failed in batch")
				return
			}
			done[i] = true
		}(i, page)
	}
	wg.Wait()

	var newly []int
	s.mu.Lock()
	if s.gen == gen {
		for i, ok := range done {
			if ok && !s.loaded[batch[i]] {
				s.loaded[batch[i]] = true
				newly = append(newly, batch[i])
			}
		}
	}
	s.mu.Unlock()

	sort.Ints(newly)
	return newly
}

// Loaded returns the sorted set of pages recorded as rendered.
func (s *Scheduler) Loaded() []int {
	s.mu.Lock()
	pages := make([]int, 0, len(s.loaded))
	for p := range s.loaded {
		pages = append(pages, p)
	}
	s.mu.Unlock()
	sort.Ints(pages)
	return pages
}

// IsLoaded reports whether page p has been rendered for the current
// document.
func (s *Scheduler) IsLoaded(p int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[p]
}
