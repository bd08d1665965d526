package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/sma-rollcall-api/internal/models"
	appErrors "github.com/noah-isme/sma-rollcall-api/pkg/errors"
)

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

type termRepoFake struct {
	mu        sync.Mutex
	terms     []models.Term
	listErr   error
	listCalls int
	created   []models.Term
	updates   map[string]models.TermState
}

func (f *termRepoFake) List(ctx context.Context, periodID string) ([]models.Term, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Term(nil), f.terms...), nil
}

func (f *termRepoFake) FindByID(ctx context.Context, id string) (*models.Term, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, term := range f.terms {
		if term.ID == id {
			t := term
			return &t, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "trimestre no encontrado")
}

func (f *termRepoFake) Create(ctx context.Context, term *models.Term) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	term.ID = "t-new"
	f.created = append(f.created, *term)
	f.terms = append(f.terms, *term)
	return nil
}

func (f *termRepoFake) UpdateState(ctx context.Context, id string, state models.TermState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string]models.TermState{}
	}
	for i := range f.terms {
		if f.terms[i].ID == id {
			f.updates[id] = state
			f.terms[i].DeclaredState = string(state)
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "trimestre no encontrado")
}

// termGetter serves Get from a fixed map.
type termGetter map[string]models.Term

func (g termGetter) Get(ctx context.Context, id string) (*models.Term, error) {
	term, ok := g[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "trimestre no encontrado")
	}
	return &term, nil
}

type rollCallRepoFake struct {
	mu         sync.Mutex
	rows       []models.RollCall
	listErr    error
	createErr  error
	listCalls  int
	createCall int
	nextID     string
	// onList runs before List answers; used to simulate concurrent creations.
	onList func(filter models.RollCallFilter)
}

func (f *rollCallRepoFake) List(ctx context.Context, filter models.RollCallFilter) ([]models.RollCall, error) {
	if f.onList != nil {
		f.onList(filter)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.RollCall
	for _, rc := range f.rows {
		if filter.SectionID != "" && rc.SectionID != filter.SectionID {
			continue
		}
		if filter.Date != "" && rc.Date != filter.Date {
			continue
		}
		out = append(out, rc)
	}
	return out, nil
}

func (f *rollCallRepoFake) FindByID(ctx context.Context, id string) (*models.RollCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rc := range f.rows {
		if rc.ID == id {
			r := rc
			return &r, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "jornada no encontrada")
}

func (f *rollCallRepoFake) Create(ctx context.Context, rc *models.RollCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCall++
	if f.createErr != nil {
		return f.createErr
	}
	rc.ID = f.nextID
	if rc.ID == "" {
		rc.ID = "rc-new"
	}
	f.rows = append(f.rows, *rc)
	return nil
}

func (f *rollCallRepoFake) add(rc models.RollCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rc)
}

type scopeStub struct {
	modifyErr error
	viewErr   error
	scope     models.Scope
}

func (s scopeStub) RequireView(ctx context.Context, actor *models.JWTClaims, sectionID string) error {
	return s.viewErr
}

func (s scopeStub) RequireModify(ctx context.Context, actor *models.JWTClaims, sectionID string) error {
	return s.modifyErr
}

func (s scopeStub) Resolve(ctx context.Context, actor *models.JWTClaims) (models.Scope, error) {
	return s.scope, nil
}

type rosterFake struct {
	entries []models.RosterEntry
	err     error
	asOf    []string
}

func (f *rosterFake) ListBySection(ctx context.Context, sectionID, asOf string) ([]models.RosterEntry, error) {
	f.asOf = append(f.asOf, asOf)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RosterEntry
	for _, entry := range f.entries {
		if entry.SectionID == sectionID {
			out = append(out, entry)
		}
	}
	return out, nil
}
