package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

// SourceAllowList is a case-insensitive set of trusted sources that can be
// swapped at runtime.
type SourceAllowList struct {
	set atomic.Pointer[map[string]struct{}]
}

func NewSourceAllowList(sources []string) *SourceAllowList {
	a := &SourceAllowList{}
	a.Set(sources)
	return a
}

// Set replaces the allow-list.
func (a *SourceAllowList) Set(sources []string) {
	m := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			m[s] = struct{}{}
		}
	}
	a.set.Store(&m)
}

// Allowed reports whether source is trusted.
func (a *SourceAllowList) Allowed(source string) bool {
	m := a.set.Load()
	if m == nil {
		return false
	}
	_, ok := (*m)[strings.ToLower(source)]
	return ok
}

// Sources returns the current allow-list, sorted.
func (a *SourceAllowList) Sources() []string {
	m := a.set.Load()
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(*m))
	for s := range *m {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SourceValidator rejects envelopes from sources outside the allow-list.
type SourceValidator struct {
	Sources *SourceAllowList
}

func (v SourceValidator) Validate(ctx context.Context, env *models.Envelope) error {
	_ = ctx
	if v.Sources == nil || !v.Sources.Allowed(env.Source) {
		return fmt.Errorf("%w: %s", ErrUntrustedSource, env.Source)
	}
	return nil
}
