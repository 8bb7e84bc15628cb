package memstore

import (
	"context"
	"sync"

	"github.com/ariefcatur/orial-storefront/internal/discount"
)

type Selections struct {
	mu sync.Mutex
	m  map[int64]discount.Selection
}

func NewSelections() *Selections {
	return &Selections{m: map[int64]discount.Selection{}}
}

func (s *Selections) Get(_ context.Context, owner int64) (discount.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[owner], nil
}

func (s *Selections) Save(_ context.Context, owner int64, sel discount.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[owner] = sel
	return nil
}

func (s *Selections) Clear(_ context.Context, owner int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, owner)
	return nil
}

var _ discount.SelectionStore = (*Selections)(nil)
