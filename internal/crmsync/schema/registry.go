// Package schema resolves human-readable CRM field names to the provider's
// numeric field identifiers. Identifiers are discovered at runtime, never
// hardcoded at call sites.
package schema

import (
	"context"
	"strings"
	"sync"
	"time"

	"qabul_backend/internal/crm"
	"qabul_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

// Kind selects which entity schema a field belongs to.
type Kind string

const (
	KindContact Kind = "contacts"
	KindDeal    Kind = "leads"
)

// FieldSource fetches the provider's custom-field schema. Satisfied by *crm.Client.
type FieldSource interface {
	ContactCustomFields(ctx context.Context) ([]crm.CustomField, error)
	LeadCustomFields(ctx context.Context) ([]crm.CustomField, error)
}

type entry struct {
	fields    map[string]int64
	fetchedAt time.Time
}

// Registry caches the field name to id mapping per entity kind. The first
// resolution for a kind triggers one schema fetch; concurrent first uses are
// coalesced so the schema is fetched at most once per kind. A failed fetch
// caches an empty mapping: resolutions then report absent instead of failing,
// and payload builders silently omit the affected fields.
type Registry struct {
	source FieldSource
	log    *logger.Logger
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[Kind]entry
	group singleflight.Group
}

// New creates a field registry. A zero ttl caches for the process lifetime;
// a positive ttl bounds staleness by re-fetching after expiry.
func New(source FieldSource, ttl time.Duration, log *logger.Logger) *Registry {
	return &Registry{
		source: source,
		log:    log,
		ttl:    ttl,
		cache:  make(map[Kind]entry),
	}
}

// Resolve maps a field name to the provider's numeric id for the given entity
// kind. Reports false when the schema has no such field, including after a
// failed schema fetch.
func (r *Registry) Resolve(ctx context.Context, kind Kind, name string) (int64, bool) {
	fields := r.fields(ctx, kind)
	id, ok := fields[strings.ToLower(name)]
	return id, ok
}

// Refresh drops the cached mapping for a kind so the next resolution
// re-fetches the schema.
func (r *Registry) Refresh(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, kind)
}

func (r *Registry) fields(ctx context.Context, kind Kind) map[string]int64 {
	r.mu.RLock()
	cached, ok := r.cache[kind]
	r.mu.RUnlock()
	if ok && !r.expired(cached) {
		return cached.fields
	}

	result, _, _ := r.group.Do(string(kind), func() (any, error) {
		// Re-check under the flight: a concurrent caller may have stored it.
		r.mu.RLock()
		cached, ok := r.cache[kind]
		r.mu.RUnlock()
		if ok && !r.expired(cached) {
			return cached.fields, nil
		}

		fields := r.fetch(ctx, kind)
		r.mu.Lock()
		r.cache[kind] = entry{fields: fields, fetchedAt: time.Now()}
		r.mu.Unlock()
		return fields, nil
	})

	return result.(map[string]int64)
}

func (r *Registry) fetch(ctx context.Context, kind Kind) map[string]int64 {
	var (
		raw []crm.CustomField
		err error
	)
	switch kind {
	case KindContact:
		raw, err = r.source.ContactCustomFields(ctx)
	case KindDeal:
		raw, err = r.source.LeadCustomFields(ctx)
	}
	if err != nil {
		// Cache empty rather than propagate: from here on every field of this
		// kind resolves absent until a refresh or TTL expiry.
		r.log.CRMError("fetch "+string(kind)+" custom fields", err)
		return map[string]int64{}
	}

	fields := make(map[string]int64, len(raw))
	for _, f := range raw {
		fields[strings.ToLower(f.Name)] = f.ID
	}
	return fields
}

func (r *Registry) expired(e entry) bool {
	if r.ttl <= 0 {
		return false
	}
	return time.Since(e.fetchedAt) > r.ttl
}
