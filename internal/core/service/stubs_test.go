package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID        map[string]*domain.User
	updateCalls int
	createErr   error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	var matched []*domain.User
	for _, u := range r.byID {
		if f.ID != "" && u.ID != f.ID {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(f.Name)) {
			continue
		}
		clone := *u
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, f.Page), int64(len(matched)), nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, p patch.UserPatch, at time.Time) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	r.updateCalls++
	p.Apply(u)
	u.UpdatedAt = at
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubRefundRepo struct {
	byID        map[string]*domain.Refund
	updateCalls int
	createErr   error
}

func newStubRefundRepo() *stubRefundRepo {
	return &stubRefundRepo{byID: make(map[string]*domain.Refund)}
}

func (r *stubRefundRepo) Create(_ context.Context, rf *domain.Refund) error {
	if r.createErr != nil {
		return r.createErr
	}
	clone := *rf
	r.byID[rf.ID] = &clone
	return nil
}

func (r *stubRefundRepo) FindByID(_ context.Context, id string) (*domain.Refund, error) {
	rf, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRefundNotFound
	}
	clone := *rf
	return &clone, nil
}

func (r *stubRefundRepo) List(_ context.Context, f ports.RefundFilter) ([]*domain.Refund, int64, error) {
	var matched []*domain.Refund
	for _, rf := range r.byID {
		if f.UserID != "" && rf.UserID != f.UserID {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(rf.Name), strings.ToLower(f.Name)) {
			continue
		}
		clone := *rf
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, f.Page), int64(len(matched)), nil
}

func (r *stubRefundRepo) Update(_ context.Context, id string, p patch.RefundPatch, at time.Time) (*domain.Refund, error) {
	rf, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRefundNotFound
	}
	r.updateCalls++
	p.Apply(rf)
	rf.UpdatedAt = at
	clone := *rf
	return &clone, nil
}

func (r *stubRefundRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrRefundNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubRefundRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, rf := range r.byID {
		if rf.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *stubRefundRepo) CountByFilename(_ context.Context, filename string) (int64, error) {
	var n int64
	for _, rf := range r.byID {
		if rf.Filename == filename {
			n++
		}
	}
	return n, nil
}

func paginate[T any](items []T, p domain.Page) []T {
	skip := p.Skip()
	if skip >= len(items) {
		return []T{}
	}
	end := skip + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

// ---------------------------------------------------------------------------
// Collaborator fakes
// ---------------------------------------------------------------------------

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Verify(plain, hash string) (bool, error) {
	return hash == "hashed:"+plain, nil
}

// stubIdempotency mirrors the SETNX semantics of the redis store.
type stubIdempotency struct {
	mu         sync.Mutex
	keys       map[string]string
	reserveErr error
	released   int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, userID, key string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return false, "", s.reserveErr
	}
	k := userID + ":" + key
	id, taken := s.keys[k]
	if !taken {
		s.keys[k] = ""
		return true, "", nil
	}
	return false, id, nil
}

func (s *stubIdempotency) Complete(_ context.Context, userID, key, refundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[userID+":"+key] = refundID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, userID+":"+key)
	s.released++
	return nil
}

type recordingCleaner struct {
	files []string
}

func (c *recordingCleaner) Enqueue(filename string) {
	c.files = append(c.files, filename)
}

var errBoom = errors.New("boom")

var discardLogger = zerolog.Nop()

var (
	employeeA = domain.AuthUser{ID: "emp-a", Role: domain.RoleEmployee}
	employeeB = domain.AuthUser{ID: "emp-b", Role: domain.RoleEmployee}
	managerM  = domain.AuthUser{ID: "mgr-m", Role: domain.RoleManager}
)

// knownUsers returns a user repository holding every test actor.
func knownUsers() *stubUserRepo {
	repo := newStubUserRepo()
	for _, a := range []domain.AuthUser{employeeA, employeeB, managerM} {
		repo.byID[a.ID] = &domain.User{ID: a.ID, Name: a.ID, Email: a.ID + "@example.com", Role: a.Role}
	}
	return repo
}

func ptr[T any](v T) *T { return &v }

func firstPage(perPage int) domain.Page {
	return domain.Page{Page: 1, PerPage: perPage}
}
