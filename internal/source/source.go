package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrSetNotFound is reported by a Provider when the remote catalog has no
// set under the requested name.
var ErrSetNotFound = errors.New("sticker set not found")

// ItemRef is an opaque handle to one item in a remote set.
type ItemRef struct {
	ID   string
	Size int64
	Kind string
}

// Provider is the remote catalog the pipeline pulls sets and item content
// from.
type Provider interface {
	LookupSet(ctx context.Context, name string) ([]ItemRef, error)
	ResolveContentLocation(ctx context.Context, ref ItemRef) (string, error)
}

// Resolver looks up a set and caps it to the per-job processing limit.
type Resolver struct {
	provider Provider
	maxItems int
}

func NewResolver(provider Provider, maxItems int) *Resolver {
	return &Resolver{provider: provider, maxItems: maxItems}
}

// Resolve returns at most maxItems refs in source order. A missing set
// satisfies errors.Is(err, ErrSetNotFound); any other provider failure is
// treated as transient by callers.
func (r *Resolver) Resolve(ctx context.Context, name string) ([]ItemRef, error) {
	refs, err := r.provider.LookupSet(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("looking up set %q: %w", name, err)
	}
	if r.maxItems > 0 && len(refs) > r.maxItems {
		refs = refs[:r.maxItems]
	}
	return refs, nil
}
