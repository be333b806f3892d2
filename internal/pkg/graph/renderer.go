package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anicoll/strom-graph/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("renderer already registered")

// Source reads the round-robin database.
type Source interface {
	// Channels lists the data sources of the database.
	Channels(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, cf model.ConsolidationFn, start, end time.Time) (*model.Dataset, error)
}

// Renderer turns a spec into encoded image bytes. Renderers that draw from
// data read it through src; others may go to the database directly.
type Renderer interface {
	Render(ctx context.Context, spec *Spec, src Source) ([]byte, error)
}

var (
	renderersMu sync.RWMutex
	renderers   = make(map[string]Renderer)
)

func RegisterRenderer(name string, r Renderer) error {
	renderersMu.Lock()
	defer renderersMu.Unlock()
	if _, ok := renderers[name]; ok {
		return fmt.Errorf("%w: %s", errAlreadyRegistered, name)
	}
	renderers[name] = r
	return nil
}

func LookupRenderer(name string) (Renderer, error) {
	renderersMu.RLock()
	defer renderersMu.RUnlock()
	r, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownRenderer, name, rendererNames())
	}
	return r, nil
}

func rendererNames() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
