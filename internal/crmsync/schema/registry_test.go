package schema

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"qabul_backend/internal/crm"
	"qabul_backend/platform/logger"
)

type fakeSource struct {
	mu           sync.Mutex
	contactCalls int
	leadCalls    int
	contactErr   error
	contacts     []crm.CustomField
	leads        []crm.CustomField
}

func (f *fakeSource) ContactCustomFields(context.Context) ([]crm.CustomField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contactCalls++
	return f.contacts, f.contactErr
}

func (f *fakeSource) LeadCustomFields(context.Context) ([]crm.CustomField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leadCalls++
	return f.leads, nil
}

func TestResolveFetchesOncePerKind(t *testing.T) {
	src := &fakeSource{contacts: []crm.CustomField{{ID: 11, Name: "Ism"}, {ID: 12, Name: "Familya"}}}
	reg := New(src, 0, logger.New("development"))

	id, ok := reg.Resolve(context.Background(), KindContact, "ism")
	if !ok || id != 11 {
		t.Fatalf("expected (11,true), got (%d,%v)", id, ok)
	}
	if _, ok := reg.Resolve(context.Background(), KindContact, "ism"); !ok {
		t.Fatal("second resolve should hit cache")
	}
	if src.contactCalls != 1 {
		t.Fatalf("expected exactly one schema fetch, got %d", src.contactCalls)
	}
}

func TestResolveLowercasesNames(t *testing.T) {
	src := &fakeSource{leads: []crm.CustomField{{ID: 21, Name: "Talim Tili"}}}
	reg := New(src, 0, logger.New("development"))

	if _, ok := reg.Resolve(context.Background(), KindDeal, "talim tili"); !ok {
		t.Fatal("expected provider name to be matched case-insensitively")
	}
}

func TestFetchFailureCachesEmpty(t *testing.T) {
	src := &fakeSource{contactErr: errors.New("boom")}
	reg := New(src, 0, logger.New("development"))

	if _, ok := reg.Resolve(context.Background(), KindContact, "ism"); ok {
		t.Fatal("expected absent after failed fetch")
	}
	if _, ok := reg.Resolve(context.Background(), KindContact, "familya"); ok {
		t.Fatal("expected absent from cached empty mapping")
	}
	if src.contactCalls != 1 {
		t.Fatalf("failed fetch must still be cached, got %d calls", src.contactCalls)
	}
}

func TestRefreshForcesRefetch(t *testing.T) {
	src := &fakeSource{contacts: []crm.CustomField{{ID: 11, Name: "ism"}}}
	reg := New(src, 0, logger.New("development"))

	reg.Resolve(context.Background(), KindContact, "ism")
	reg.Refresh(KindContact)
	reg.Resolve(context.Background(), KindContact, "ism")

	if src.contactCalls != 2 {
		t.Fatalf("expected refetch after Refresh, got %d calls", src.contactCalls)
	}
}

func TestTTLExpiryRefetches(t *testing.T) {
	src := &fakeSource{contacts: []crm.CustomField{{ID: 11, Name: "ism"}}}
	reg := New(src, time.Nanosecond, logger.New("development"))

	reg.Resolve(context.Background(), KindContact, "ism")
	time.Sleep(2 * time.Millisecond)
	reg.Resolve(context.Background(), KindContact, "ism")

	if src.contactCalls != 2 {
		t.Fatalf("expected refetch after TTL expiry, got %d calls", src.contactCalls)
	}
}

func TestConcurrentFirstUseCoalesces(t *testing.T) {
	src := &fakeSource{contacts: []crm.CustomField{{ID: 11, Name: "ism"}}}
	reg := New(src, 0, logger.New("development"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Resolve(context.Background(), KindContact, "ism")
		}()
	}
	wg.Wait()

	if src.contactCalls != 1 {
		t.Fatalf("concurrent first resolutions must share one fetch, got %d", src.contactCalls)
	}
}

func TestKindsAreIndependent(t *testing.T) {
	src := &fakeSource{
		contacts: []crm.CustomField{{ID: 11, Name: "ism"}},
		leads:    []crm.CustomField{{ID: 21, Name: "talim tili"}},
	}
	reg := New(src, 0, logger.New("development"))

	if _, ok := reg.Resolve(context.Background(), KindContact, "talim tili"); ok {
		t.Fatal("deal field must not resolve under contact kind")
	}
	if _, ok := reg.Resolve(context.Background(), KindDeal, "talim tili"); !ok {
		t.Fatal("deal field should resolve under deal kind")
	}
}
