package service

import (
	"context"
	"sync"
	"testing"

	"staffhub/backend/internal/identity/domain"
	"staffhub/backend/internal/identity/repository"
	"staffhub/backend/internal/security"
	"staffhub/backend/internal/store"
)

func newTestResolver(t *testing.T) (*Resolver, *repository.DocumentRepository) {
	t.Helper()
	repo := repository.NewDocumentRepository(store.NewMemoryStore(store.DefaultUniques...))
	return NewResolver(repo, security.NewHasher(4)), repo
}

func TestResolveOrCreatePhoneIdentity_CreatesOwner(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()
	ident, err := r.ResolveOrCreatePhoneIdentity(ctx, "+15550001")
	if err != nil {
		t.Fatalf("ResolveOrCreatePhoneIdentity: %v", err)
	}
	if ident.ID == "" {
		t.Error("identity id should be assigned")
	}
	if ident.Role != domain.RoleOwner {
		t.Errorf("role = %q, want %q", ident.Role, domain.RoleOwner)
	}
	again, err := r.ResolveOrCreatePhoneIdentity(ctx, "+15550001")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again.ID != ident.ID {
		t.Errorf("second resolve id = %q, want %q", again.ID, ident.ID)
	}
}

func TestResolveOrCreatePhoneIdentity_Concurrent(t *testing.T) {
	r, repo := newTestResolver(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ident, err := r.ResolveOrCreatePhoneIdentity(ctx, "+15550002")
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			ids[i] = ident.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent resolves returned different ids: %v", ids)
		}
	}
	all, _ := repo.List(ctx)
	if len(all) != 1 {
		t.Errorf("identities = %d, want 1", len(all))
	}
}

func TestResolveEmailPassword(t *testing.T) {
	r, repo := newTestResolver(t)
	ctx := context.Background()
	hash, err := security.NewHasher(4).Hash("s3cret!")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, &domain.AuthIdentity{Email: "a@x.com", PasswordHash: hash, Role: domain.RoleEmployee}); err != nil {
		t.Fatal(err)
	}

	ident, err := r.ResolveEmailPassword(ctx, "a@x.com", "s3cret!")
	if err != nil {
		t.Fatalf("ResolveEmailPassword: %v", err)
	}
	if ident.Role != domain.RoleEmployee {
		t.Errorf("role = %q, want employee", ident.Role)
	}

	cases := []struct{ email, password string }{
		{"a@x.com", "wrong"},
		{"nobody@x.com", "s3cret!"},
		{"", "s3cret!"},
		{"a@x.com", ""},
	}
	for _, c := range cases {
		if _, err := r.ResolveEmailPassword(ctx, c.email, c.password); err != ErrInvalidCredentials {
			t.Errorf("ResolveEmailPassword(%q, %q) = %v, want ErrInvalidCredentials", c.email, c.password, err)
		}
	}
	all, _ := repo.List(ctx)
	if len(all) != 1 {
		t.Errorf("failed lookups must not create identities, got %d", len(all))
	}
}

func TestResolveEmailPassword_NoPasswordHash(t *testing.T) {
	r, repo := newTestResolver(t)
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.AuthIdentity{Email: "b@x.com", Role: domain.RoleEmployee})
	if _, err := r.ResolveEmailPassword(ctx, "b@x.com", "anything"); err != ErrInvalidCredentials {
		t.Errorf("got = %v, want ErrInvalidCredentials", err)
	}
}

func TestLookup(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()
	created, _ := r.ResolveOrCreatePhoneIdentity(ctx, "+15550003")
	got, err := r.Lookup(ctx, domain.ChannelPhone, "+15550003")
	if err != nil || got == nil || got.ID != created.ID {
		t.Fatalf("Lookup = %v, %v", got, err)
	}
	missing, err := r.Lookup(ctx, domain.ChannelEmail, "none@x.com")
	if err != nil || missing != nil {
		t.Errorf("Lookup missing = %v, %v; want nil, nil", missing, err)
	}
	byID, err := r.Get(ctx, created.ID)
	if err != nil || byID == nil || byID.Phone != "+15550003" {
		t.Errorf("Get = %v, %v", byID, err)
	}
}
