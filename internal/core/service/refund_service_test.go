package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expensehub/refund-api/internal/core/domain"
	"github.com/expensehub/refund-api/internal/core/patch"
	"github.com/expensehub/refund-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func taxiInput() ports.CreateRefundInput {
	return ports.CreateRefundInput{
		Name:     "Taxi",
		Amount:   decimal.NewFromInt(50),
		Category: domain.CategoryFood,
		Filename: "f.png",
	}
}

func seedRefund(repo *stubRefundRepo, id, owner string) *domain.Refund {
	r := &domain.Refund{
		ID:        id,
		Name:      "Lunch",
		Amount:    decimal.RequireFromString("25.90"),
		Category:  domain.CategoryFood,
		Filename:  id + ".png",
		UserID:    owner,
		CreatedAt: time.Now().UTC(),
	}
	repo.byID[id] = r
	return r
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestRefundService_Create_OwnerIsActor(t *testing.T) {
	repo := newStubRefundRepo()
	svc := NewRefundService(repo, knownUsers(), nil, nil, discardLogger)

	res, err := svc.Create(context.Background(), employeeA, taxiInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Refund.UserID != employeeA.ID {
		t.Errorf("expected owner %s, got %s", employeeA.ID, res.Refund.UserID)
	}
	if res.Replayed {
		t.Error("expected Replayed=false for new refund")
	}
	if res.Refund.CreatedAt.IsZero() {
		t.Error("CreatedAt must not be zero")
	}
	if _, ok := repo.byID[res.Refund.ID]; !ok {
		t.Error("refund not persisted")
	}
}

func TestRefundService_Create_Validation(t *testing.T) {
	svc := NewRefundService(newStubRefundRepo(), knownUsers(), nil, nil, discardLogger)

	cases := map[string]func(*ports.CreateRefundInput){
		"name":     func(in *ports.CreateRefundInput) { in.Name = "ab" },
		"amount":   func(in *ports.CreateRefundInput) { in.Amount = decimal.Zero },
		"category": func(in *ports.CreateRefundInput) { in.Category = "gadgets" },
		"filename": func(in *ports.CreateRefundInput) { in.Filename = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := taxiInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), employeeA, in)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := ve.Fields[field]; !ok {
				t.Fatalf("expected error on %s, got %v", field, ve.Fields)
			}
		})
	}
}

func TestRefundService_Create_NegativeAmount(t *testing.T) {
	svc := NewRefundService(newStubRefundRepo(), knownUsers(), nil, nil, discardLogger)
	in := taxiInput()
	in.Amount = decimal.NewFromInt(-5)

	if _, err := svc.Create(context.Background(), employeeA, in); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestRefundService_Create_RepoError(t *testing.T) {
	repo := newStubRefundRepo()
	repo.createErr = errBoom
	svc := NewRefundService(repo, knownUsers(), nil, nil, discardLogger)

	if _, err := svc.Create(context.Background(), employeeA, taxiInput()); !errors.Is(err, errBoom) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestRefundService_Create_IdempotentReplay(t *testing.T) {
	repo := newStubRefundRepo()
	idem := newStubIdempotency()
	svc := NewRefundService(repo, knownUsers(), idem, nil, discardLogger)

	in := taxiInput()
	in.IdempotencyKey = "key-1"

	first, err := svc.Create(context.Background(), employeeA, in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.Create(context.Background(), employeeA, in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !second.Replayed {
		t.Fatal("expected replay on repeated key")
	}
	if second.Refund.ID != first.Refund.ID {
		t.Fatalf("expected same refund, got %s and %s", first.Refund.ID, second.Refund.ID)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected 1 stored refund, got %d", len(repo.byID))
	}

	// Same key from another user is independent.
	other, err := svc.Create(context.Background(), employeeB, in)
	if err != nil {
		t.Fatalf("other user create: %v", err)
	}
	if other.Replayed {
		t.Fatal("keys must be scoped per user")
	}
}

func TestRefundService_Create_IdempotencyFailureDegrades(t *testing.T) {
	repo := newStubRefundRepo()
	idem := newStubIdempotency()
	idem.reserveErr = errBoom
	svc := NewRefundService(repo, knownUsers(), idem, nil, discardLogger)

	in := taxiInput()
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(context.Background(), employeeA, in); err != nil {
		t.Fatalf("cache failure must not fail create: %v", err)
	}
}

func TestRefundService_Create_KeyInFlight(t *testing.T) {
	repo := newStubRefundRepo()
	idem := newStubIdempotency()
	svc := NewRefundService(repo, knownUsers(), idem, nil, discardLogger)

	// A first request reserved the key and has not written its refund yet.
	if reserved, _, _ := idem.Reserve(context.Background(), employeeA.ID, "key-1"); !reserved {
		t.Fatal("setup: expected to reserve key")
	}

	in := taxiInput()
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(context.Background(), employeeA, in); !errors.Is(err, domain.ErrIdempotencyInFlight) {
		t.Fatalf("expected ErrIdempotencyInFlight, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("concurrent retry must not create, got %d refunds", len(repo.byID))
	}
}

func TestRefundService_Create_ConcurrentRetriesCreateOnce(t *testing.T) {
	repo := &lockedRefundRepo{stubRefundRepo: newStubRefundRepo()}
	svc := NewRefundService(repo, knownUsers(), newStubIdempotency(), nil, discardLogger)

	in := taxiInput()
	in.IdempotencyKey = "key-1"

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Create(context.Background(), employeeA, in)
		}()
	}
	wg.Wait()

	if n := repo.count(); n != 1 {
		t.Fatalf("expected exactly 1 refund for one key, got %d", n)
	}
}

func TestRefundService_Create_FailedCreateReleasesKey(t *testing.T) {
	repo := newStubRefundRepo()
	repo.createErr = errBoom
	idem := newStubIdempotency()
	svc := NewRefundService(repo, knownUsers(), idem, nil, discardLogger)

	in := taxiInput()
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(context.Background(), employeeA, in); !errors.Is(err, errBoom) {
		t.Fatalf("expected repo error, got %v", err)
	}
	if idem.released != 1 {
		t.Fatalf("expected key released once, got %d", idem.released)
	}

	repo.createErr = nil
	res, err := svc.Create(context.Background(), employeeA, in)
	if err != nil || res.Replayed {
		t.Fatalf("retry after failure must create, got %+v err=%v", res, err)
	}
}

func TestRefundService_Create_DeletedOwner(t *testing.T) {
	repo := newStubRefundRepo()
	users := knownUsers()
	delete(users.byID, employeeA.ID)
	svc := NewRefundService(repo, users, nil, nil, discardLogger)

	if _, err := svc.Create(context.Background(), employeeA, taxiInput()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatal("refund without an existing owner must not be stored")
	}
}

func TestRefundService_Create_AmountBounds(t *testing.T) {
	svc := NewRefundService(newStubRefundRepo(), knownUsers(), nil, nil, discardLogger)

	cases := map[string]string{
		"too large":      "1e12",
		"at the limit":   "10000000000",
		"huge exponent":  "1e200000000",
		"three decimals": "50.005",
		"tiny exponent":  "1e-200000000",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			in := taxiInput()
			in.Amount = decimal.RequireFromString(raw)

			var ve *domain.ValidationError
			if _, err := svc.Create(context.Background(), employeeA, in); !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Fields["amount"] == "" {
				t.Fatalf("expected amount error, got %v", ve.Fields)
			}
		})
	}

	for _, raw := range []string{"9999999999.99", "50.100", "0.01"} {
		in := taxiInput()
		in.Amount = decimal.RequireFromString(raw)
		if _, err := svc.Create(context.Background(), employeeA, in); err != nil {
			t.Errorf("amount %s: unexpected error %v", raw, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Show
// ---------------------------------------------------------------------------

func TestRefundService_Show_Ownership(t *testing.T) {
	repo := newStubRefundRepo()
	svc := NewRefundService(repo, knownUsers(), nil, nil, discardLogger)
	seedRefund(repo, "r1", employeeB.ID)

	if _, err := svc.Show(context.Background(), employeeA, "r1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("employee A on B's refund: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Show(context.Background(), managerM, "r1"); err != nil {
		t.Fatalf("manager show: %v", err)
	}
	if _, err := svc.Show(context.Background(), employeeB, "r1"); err != nil {
		t.Fatalf("owner show: %v", err)
	}
	if _, err := svc.Show(context.Background(), managerM, "nope"); !errors.Is(err, domain.ErrRefundNotFound) {
		t.Fatalf("expected ErrRefundNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestRefundService_List_Scoping(t *testing.T) {
	repo := newStubRefundRepo()
	svc := NewRefundService(repo, knownUsers(), nil, nil, discardLogger)
	seedRefund(repo, "a1", employeeA.ID)
	seedRefund(repo, "a2", employeeA.ID)
	seedRefund(repo, "b1", employeeB.ID)

	own, err := svc.List(context.Background(), employeeA, ports.ListInput{Page: firstPage(10)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if own.TotalRecords != 2 {
		t.Fatalf("employee should see 2 refunds, got %d", own.TotalRecords)
	}
	for _, r := range own.Items {
		if r.UserID != employeeA.ID {
			t.Fatalf("leaked refund %s of %s", r.ID, r.UserID)
		}
	}

	all, err := svc.List(context.Background(), managerM, ports.ListInput{Page: firstPage(10)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.TotalRecords != 3 {
		t.Fatalf("manager should see 3 refunds, got %d", all.TotalRecords)
	}
}

func TestRefundService_List_Pagination(t *testing.T) {
	repo := newStubRefundRepo()
	svc := NewRefundService(repo, knownUsers(), nil, nil, discardLogger)
	base := time.Now().UTC()
	for i := 1; i <= 7; i++ {
		r := seedRefund(repo, fmt.Sprintf("r%d", i), employeeA.ID)
		r.CreatedAt = base.Add(-time.Duration(i) * time.Minute)
	}

	page1, err := svc.List(context.Background(), managerM, ports.ListInput{Page: firstPage(3)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page1.TotalPages != 3 || page1.TotalRecords != 7 {
		t.Fatalf("expected 3 pages / 7 records, got %d / %d", page1.TotalPages, page1.TotalRecords)
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if page1.Items[i].ID != want {
			t.Errorf("item %d: expected %s, got %s", i, want, page1.Items[i].ID)
		}
	}

	page3, err := svc.List(context.Background(), managerM, ports.ListInput{Page: domain.Page{Page: 3, PerPage: 3}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page3.Items) != 1 || page3.Items[0].ID != "r7" {
		t.Fatalf("expected only r7 on page 3, got %+v", page3.Items)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestRefundService_Update_OnlyChangedWritten(t *testing.T) {
	repo := newStubRefundRepo()
	cleaner := &recordingCleaner{}
	svc := NewRefundService(repo, knownUsers(), nil, cleaner, discardLogger)
	seedRefund(repo, "r1", employeeA.ID)

	res, err := svc.Update(context.Background(), employeeA, "r1", patch.RefundInput{
		Amount:   ptr(decimal.RequireFromString("25.9")),
		Filename: ptr("new.png"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Outcome != patch.Changed {
		t.Fatalf("expected Changed, got %s", res.Outcome)
	}
	if res.Refund.Filename != "new.png" {
		t.Errorf("filename not updated: %s", res.Refund.Filename)
	}
	if len(cleaner.files) != 1 || cleaner.files[0] != "r1.png" {
		t.Errorf("expected old file queued for cleanup, got %v", cleaner.files)
	}
}

func TestRefundService_Update_NoOp(t *testing.T) {
	repo := newStubRefundRepo()
	svc := NewRefundService(repo, knownUsers(), nil, nil, discardLogger)
	seedRefund(repo, "r1", employeeA.ID)

	res, err := svc.Update(context.Background(), employeeA, "r1", patch.RefundInput{})
	if err != nil || res.Outcome != patch.NothingSubmitted {
		t.Fatalf("expected NothingSubmitted, got %+v err=%v", res, err)
	}
	res, err = svc.Update(context.Background(), employeeA, "r1", patch.RefundInput{Name: ptr("Lunch")})
	if err != nil || res.Outcome != patch.Unchanged {
		t.Fatalf("expected Unchanged, got %+v err=%v", res, err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("no-op must not write, got %d writes", repo.updateCalls)
	}
}

func TestRefundService_Update_Errors(t *testing.T) {
	repo := newStubRefundRepo()
	svc := NewRefundService(repo, knownUsers(), nil, nil, discardLogger)
	seedRefund(repo, "r1", employeeB.ID)

	if _, err := svc.Update(context.Background(), employeeA, "r1", patch.RefundInput{Name: ptr("Mine")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(context.Background(), employeeB, "missing", patch.RefundInput{}); !errors.Is(err, domain.ErrRefundNotFound) {
		t.Fatalf("expected ErrRefundNotFound, got %v", err)
	}
	_, err := svc.Update(context.Background(), employeeB, "r1", patch.RefundInput{Amount: ptr(decimal.Zero)})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Remove
// ---------------------------------------------------------------------------

func TestRefundService_Remove(t *testing.T) {
	repo := newStubRefundRepo()
	cleaner := &recordingCleaner{}
	svc := NewRefundService(repo, knownUsers(), nil, cleaner, discardLogger)
	seedRefund(repo, "r1", employeeB.ID)

	if err := svc.Remove(context.Background(), employeeA, "r1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Remove(context.Background(), employeeB, "r1"); err != nil {
		t.Fatalf("owner remove: %v", err)
	}
	if _, ok := repo.byID["r1"]; ok {
		t.Fatal("refund should be deleted")
	}
	if len(cleaner.files) != 1 || cleaner.files[0] != "r1.png" {
		t.Fatalf("expected file cleanup, got %v", cleaner.files)
	}
	if err := svc.Remove(context.Background(), employeeB, "r1"); !errors.Is(err, domain.ErrRefundNotFound) {
		t.Fatalf("expected ErrRefundNotFound, got %v", err)
	}
}

func TestRefundService_Remove_KeepsSharedFile(t *testing.T) {
	repo := newStubRefundRepo()
	cleaner := &recordingCleaner{}
	svc := NewRefundService(repo, knownUsers(), nil, cleaner, discardLogger)
	seedRefund(repo, "r1", employeeA.ID).Filename = "receipt.png"
	seedRefund(repo, "r2", employeeA.ID).Filename = "receipt.png"

	if err := svc.Remove(context.Background(), employeeA, "r1"); err != nil {
		t.Fatalf("remove r1: %v", err)
	}
	if len(cleaner.files) != 0 {
		t.Fatalf("r2 still references the file, got cleanup %v", cleaner.files)
	}

	if err := svc.Remove(context.Background(), employeeA, "r2"); err != nil {
		t.Fatalf("remove r2: %v", err)
	}
	if len(cleaner.files) != 1 || cleaner.files[0] != "receipt.png" {
		t.Fatalf("expected cleanup of the last reference, got %v", cleaner.files)
	}
}

func TestRefundService_Update_KeepsSharedFile(t *testing.T) {
	repo := newStubRefundRepo()
	cleaner := &recordingCleaner{}
	svc := NewRefundService(repo, knownUsers(), nil, cleaner, discardLogger)
	seedRefund(repo, "r1", employeeA.ID).Filename = "receipt.png"
	seedRefund(repo, "r2", employeeA.ID).Filename = "receipt.png"

	if _, err := svc.Update(context.Background(), employeeA, "r1", patch.RefundInput{Filename: ptr("new.png")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(cleaner.files) != 0 {
		t.Fatalf("r2 still references the file, got cleanup %v", cleaner.files)
	}
}

// lockedRefundRepo makes the map-backed stub safe for concurrent callers.
type lockedRefundRepo struct {
	mu sync.Mutex
	*stubRefundRepo
}

func (r *lockedRefundRepo) Create(ctx context.Context, rf *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stubRefundRepo.Create(ctx, rf)
}

func (r *lockedRefundRepo) FindByID(ctx context.Context, id string) (*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stubRefundRepo.FindByID(ctx, id)
}

func (r *lockedRefundRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
