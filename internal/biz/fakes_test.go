package biz

import (
	"context"
	"errors"
	"sync"
	"time"

	"flashlink/internal/domain"
	"flashlink/internal/domain/event"
)

var errStore = errors.New("store unreachable")

// fakeLinkRepo is an in-memory LinkRepository with error injection.
type fakeLinkRepo struct {
	mu    sync.Mutex
	links map[string]*domain.ShortLink

	existsErr      error
	saveErr        error
	saveConflicts  int
	findErr        error
	deleteErr      error
	deleteExpErr   error
	existsCalls    int
	saveCalls      int
	redirectCalls  int
	deleteExpCalls int
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*domain.ShortLink)}
}

func (r *fakeLinkRepo) put(link *domain.ShortLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[link.ShortCode.String()] = link.Clone()
}

func (r *fakeLinkRepo) get(code string) *domain.ShortLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.links[code].Clone()
}

func (r *fakeLinkRepo) Exists(_ context.Context, code domain.ShortCode) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsCalls++
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.links[code.String()]
	return ok, nil
}

func (r *fakeLinkRepo) Save(_ context.Context, link *domain.ShortLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.saveConflicts > 0 {
		r.saveConflicts--
		return domain.ErrShortCodeExists
	}
	if _, ok := r.links[link.ShortCode.String()]; ok {
		return domain.ErrShortCodeExists
	}
	r.links[link.ShortCode.String()] = link.Clone()
	return nil
}

func (r *fakeLinkRepo) FindByShortCode(_ context.Context, code domain.ShortCode) (*domain.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.links[code.String()].Clone(), nil
}

func (r *fakeLinkRepo) RecordRedirect(_ context.Context, code domain.ShortCode, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirectCalls++
	link, ok := r.links[code.String()]
	if !ok {
		return domain.ErrLinkNotFound
	}
	link.RedirectCount++
	link.LastRedirectAt = &at
	return nil
}

func (r *fakeLinkRepo) Delete(_ context.Context, code domain.ShortCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.links[code.String()]; !ok {
		return domain.ErrLinkNotFound
	}
	delete(r.links, code.String())
	return nil
}

func (r *fakeLinkRepo) DeleteExpired(_ context.Context, now time.Time) ([]domain.ShortCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteExpCalls++
	if r.deleteExpErr != nil {
		return nil, r.deleteExpErr
	}
	var codes []domain.ShortCode
	for key, link := range r.links {
		if link.IsExpired(now) {
			codes = append(codes, link.ShortCode)
			delete(r.links, key)
		}
	}
	return codes, nil
}

// sequenceIDs hands out ids in order, then repeats the last one.
type sequenceIDs struct {
	mu  sync.Mutex
	ids []int64
	err error
	n   int
}

func (g *sequenceIDs) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return 0, g.err
	}
	id := g.ids[min(g.n, len(g.ids)-1)]
	g.n++
	return id, nil
}

// recordingProducer keeps every event it is given.
type recordingProducer struct {
	mu     sync.Mutex
	events []event.AnalyticsEvent
}

func (p *recordingProducer) Publish(_ context.Context, e event.AnalyticsEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingProducer) Events() []event.AnalyticsEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.AnalyticsEvent(nil), p.events...)
}

type stubLimiter struct {
	allow bool
	calls []string
}

func (l *stubLimiter) IsAllowed(_ context.Context, id string) bool {
	l.calls = append(l.calls, id)
	return l.allow
}

// fakePublisher is an EventPublisher that can fail or block.
type fakePublisher struct {
	mu      sync.Mutex
	events  []event.AnalyticsEvent
	err     error
	release chan struct{}
}

func (p *fakePublisher) Publish(ctx context.Context, e event.AnalyticsEvent) error {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Events() []event.AnalyticsEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.AnalyticsEvent(nil), p.events...)
}
