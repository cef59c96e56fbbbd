package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"staffhub/backend/internal/employee/domain"
	"staffhub/backend/internal/employee/repository"
	identitydomain "staffhub/backend/internal/identity/domain"
	identityrepo "staffhub/backend/internal/identity/repository"
	"staffhub/backend/internal/security"
	"staffhub/backend/internal/session"
	"staffhub/backend/internal/store"
)

type sentInvitation struct {
	email, name, link string
}

type memSender struct {
	mu   sync.Mutex
	sent []sentInvitation
	err  error
}

func (s *memSender) SendInvitation(ctx context.Context, email, name, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentInvitation{email, name, link})
	return s.err
}

type fixture struct {
	mgr        *InvitationManager
	sender     *memSender
	employees  *repository.DocumentRepository
	identities *identityrepo.DocumentRepository
	codec      *security.TokenCodec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore(store.DefaultUniques...)
	f := &fixture{
		sender:     &memSender{},
		employees:  repository.NewDocumentRepository(st),
		identities: identityrepo.NewDocumentRepository(st),
		codec:      security.NewTestTokenCodec(),
	}
	f.mgr = NewInvitationManager(
		f.employees,
		f.identities,
		security.NewHasher(4),
		f.codec,
		session.NewIssuer(f.codec, session.Options{}),
		f.sender,
		Config{InviteBaseURL: "http://localhost:3000/auth/verify-email"},
		zerolog.Nop(),
	)
	return f
}

func (f *fixture) tokenFromLink(t *testing.T, i int) string {
	t.Helper()
	if len(f.sender.sent) <= i {
		t.Fatalf("invitation %d not sent", i)
	}
	u, err := url.Parse(f.sender.sent[i].link)
	if err != nil {
		t.Fatal(err)
	}
	return u.Query().Get("token")
}

func TestCreateEmployee_SendsInvitation(t *testing.T) {
	f := newFixture(t)
	e, err := f.mgr.CreateEmployee(context.Background(), "Ann", "+15550001", "ann@x.com")
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	if e.ID == "" || e.HasAccount || e.Role != identitydomain.RoleEmployee {
		t.Errorf("employee = %+v", e)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(f.sender.sent))
	}
	inv := f.sender.sent[0]
	if inv.email != "ann@x.com" || inv.name != "Ann" {
		t.Errorf("invitation = %+v", inv)
	}
	if !strings.HasPrefix(inv.link, "http://localhost:3000/auth/verify-email?token=") {
		t.Errorf("link = %q", inv.link)
	}
	claims, err := f.codec.Verify(f.tokenFromLink(t, 0), security.PurposeInvitation)
	if err != nil {
		t.Fatalf("invitation token: %v", err)
	}
	if claims.UID != e.ID || claims.Email != "ann@x.com" || claims.Role != "employee" {
		t.Errorf("claims = %+v", claims)
	}
	if until := time.Until(claims.ExpiresAt.Time); until < 71*time.Hour {
		t.Errorf("invitation expires in %v, want about 72h", until)
	}
}

func TestCreateEmployee_MailFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("smtp down")
	e, err := f.mgr.CreateEmployee(context.Background(), "Ann", "", "ann@x.com")
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	got, _ := f.employees.GetByID(context.Background(), e.ID)
	if got == nil {
		t.Error("record should survive a mail failure")
	}
}

func TestCreateEmployee_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.mgr.CreateEmployee(ctx, "Ann", "+15550001", "ann@x.com"); err != nil {
		t.Fatal(err)
	}
	if err := f.identities.Create(ctx, &identitydomain.AuthIdentity{Phone: "+15550009", Role: identitydomain.RoleOwner}); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name, phone, email string
		want               error
	}{
		{"same email", "+15550002", "ann@x.com", ErrEmailExists},
		{"email checked before phone", "+15550001", "ann@x.com", ErrEmailExists},
		{"employee phone", "+15550001", "bob@x.com", ErrPhoneExists},
		{"identity phone", "+15550009", "bob@x.com", ErrPhoneExists},
	}
	for _, c := range cases {
		if _, err := f.mgr.CreateEmployee(ctx, "X", c.phone, c.email); !errors.Is(err, c.want) {
			t.Errorf("%s: got = %v, want %v", c.name, err, c.want)
		}
	}
	list, _ := f.mgr.ListEmployees(ctx)
	if len(list) != 1 {
		t.Errorf("employees = %d, want 1", len(list))
	}
}

func TestCompleteInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, _ := f.mgr.CreateEmployee(ctx, "Ann", "", "ann@x.com")
	token := f.tokenFromLink(t, 0)

	preview, err := f.mgr.PreviewInvitation(ctx, token)
	if err != nil || preview.ID != e.ID {
		t.Fatalf("PreviewInvitation = %+v, %v", preview, err)
	}

	ident, s, err := f.mgr.CompleteInvitation(ctx, token, "ann", "s3cret!")
	if err != nil {
		t.Fatalf("CompleteInvitation: %v", err)
	}
	if ident.Role != identitydomain.RoleEmployee || ident.Email != "ann@x.com" || ident.Username != "ann" {
		t.Errorf("identity = %+v", ident)
	}
	if ident.PasswordHash == "" || ident.PasswordHash == "s3cret!" {
		t.Error("password must be stored hashed")
	}
	if s.Cookie.Name != session.CookieName || s.Token == "" {
		t.Errorf("session = %+v", s)
	}
	got, _ := f.employees.GetByID(ctx, e.ID)
	if !got.HasAccount {
		t.Error("has_account should be true after completion")
	}

	if _, _, err := f.mgr.CompleteInvitation(ctx, token, "ann", "again"); !errors.Is(err, ErrAccountExists) {
		t.Errorf("second completion = %v, want ErrAccountExists", err)
	}
	if _, err := f.mgr.PreviewInvitation(ctx, token); !errors.Is(err, ErrAccountExists) {
		t.Errorf("preview after completion = %v, want ErrAccountExists", err)
	}
}

type failingUpdates struct {
	*repository.DocumentRepository
	err error
}

func (r *failingUpdates) Update(ctx context.Context, id string, patch map[string]any) error {
	return r.err
}

func TestCompleteInvitation_RosterUpdateFailureRemovesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, _ := f.mgr.CreateEmployee(ctx, "Ann", "", "ann@x.com")
	token := f.tokenFromLink(t, 0)

	boom := errors.New("store unavailable")
	broken := NewInvitationManager(&failingUpdates{f.employees, boom}, f.identities, security.NewHasher(4), f.codec,
		session.NewIssuer(f.codec, session.Options{}), f.sender, Config{InviteBaseURL: "http://localhost:3000/auth/verify-email"}, zerolog.Nop())
	if _, _, err := broken.CompleteInvitation(ctx, token, "ann", "s3cret!"); !errors.Is(err, boom) {
		t.Fatalf("got = %v, want %v", err, boom)
	}
	if ident, _ := f.identities.GetByChannel(ctx, identitydomain.ChannelEmail, "ann@x.com"); ident != nil {
		t.Fatal("identity should be removed when the roster update fails")
	}

	if _, _, err := f.mgr.CompleteInvitation(ctx, token, "ann", "s3cret!"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	got, _ := f.employees.GetByID(ctx, e.ID)
	if !got.HasAccount {
		t.Error("has_account should be true after the retry")
	}
}

func TestCompleteInvitation_PasswordTooLong(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mgr.CreateEmployee(ctx, "Ann", "", "ann@x.com")
	long := strings.Repeat("p", security.MaxPasswordBytes+1)
	if _, _, err := f.mgr.CompleteInvitation(ctx, f.tokenFromLink(t, 0), "ann", long); !errors.Is(err, security.ErrPasswordTooLong) {
		t.Errorf("got = %v, want ErrPasswordTooLong", err)
	}
	if ident, _ := f.identities.GetByChannel(ctx, identitydomain.ChannelEmail, "ann@x.com"); ident != nil {
		t.Error("no identity should be created")
	}
}

func TestCompleteInvitation_InvalidToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, _, err := f.mgr.CompleteInvitation(ctx, "garbage", "u", "p"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage = %v, want ErrInvalidToken", err)
	}
	sessionTok, _, _ := f.codec.Sign(security.Claims{UID: "u1", Role: "employee", Email: "ann@x.com", Purpose: security.PurposeSession}, time.Hour)
	if _, _, err := f.mgr.CompleteInvitation(ctx, sessionTok, "u", "p"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("session token = %v, want ErrInvalidToken", err)
	}
	expired, _, _ := f.codec.Sign(security.Claims{UID: "e1", Role: "employee", Email: "ann@x.com", Purpose: security.PurposeInvitation}, time.Hour)
	f.codec.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	if _, _, err := f.mgr.CompleteInvitation(ctx, expired, "u", "p"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired = %v, want ErrInvalidToken", err)
	}
}

func TestCompleteInvitation_NoInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, _ := f.mgr.CreateEmployee(ctx, "Ann", "", "ann@x.com")
	token := f.tokenFromLink(t, 0)
	if err := f.mgr.RemoveEmployee(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.mgr.CompleteInvitation(ctx, token, "ann", "pw"); !errors.Is(err, ErrNoInvitation) {
		t.Errorf("got = %v, want ErrNoInvitation", err)
	}
	if ident, _ := f.identities.GetByChannel(ctx, identitydomain.ChannelEmail, "ann@x.com"); ident != nil {
		t.Error("no identity should be created")
	}
}

func TestRemoveEmployee_CascadesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, _ := f.mgr.CreateEmployee(ctx, "Ann", "", "ann@x.com")
	if _, _, err := f.mgr.CompleteInvitation(ctx, f.tokenFromLink(t, 0), "ann", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := f.mgr.RemoveEmployee(ctx, e.ID); err != nil {
		t.Fatalf("RemoveEmployee: %v", err)
	}
	if ident, _ := f.identities.GetByChannel(ctx, identitydomain.ChannelEmail, "ann@x.com"); ident != nil {
		t.Error("identity should be removed with the employee")
	}
	if err := f.mgr.RemoveEmployee(ctx, e.ID); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("second remove = %v, want ErrEmployeeNotFound", err)
	}
}

func TestUpdateEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann, _ := f.mgr.CreateEmployee(ctx, "Ann", "+15550001", "ann@x.com")
	bob, _ := f.mgr.CreateEmployee(ctx, "Bob", "+15550002", "bob@x.com")
	_ = f.identities.Create(ctx, &identitydomain.AuthIdentity{Phone: "+15550009", Role: identitydomain.RoleOwner})

	if err := f.mgr.UpdateEmployee(ctx, "missing", domain.Update{Email: "x@x.com", Name: "X"}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("missing = %v, want ErrEmployeeNotFound", err)
	}
	if err := f.mgr.UpdateEmployee(ctx, ann.ID, domain.Update{Email: "ann@x.com", Phone: "+15550002"}); !errors.Is(err, ErrPhoneExists) {
		t.Errorf("phone of bob = %v, want ErrPhoneExists", err)
	}
	if err := f.mgr.UpdateEmployee(ctx, ann.ID, domain.Update{Email: "ann@x.com", Phone: "+15550009"}); !errors.Is(err, ErrPhoneExists) {
		t.Errorf("phone of owner = %v, want ErrPhoneExists", err)
	}
	if err := f.mgr.UpdateEmployee(ctx, ann.ID, domain.Update{Email: "ann@x.com", Name: "Annie", Phone: "+15550001"}); err != nil {
		t.Fatalf("own phone: %v", err)
	}
	got, _ := f.mgr.GetEmployee(ctx, ann.ID)
	if got.Name != "Annie" || got.Phone != "+15550001" || got.UpdatedAt == nil {
		t.Errorf("updated = %+v", got)
	}
	if err := f.mgr.UpdateEmployee(ctx, bob.ID, domain.Update{Email: "bob@x.com"}); err != nil {
		t.Errorf("empty update: %v", err)
	}
	unchanged, _ := f.mgr.GetEmployee(ctx, bob.ID)
	if unchanged.UpdatedAt != nil {
		t.Error("empty update should not stamp updated_at")
	}
}

func TestGetEmployee_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.GetEmployee(context.Background(), "nope"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("got = %v, want ErrEmployeeNotFound", err)
	}
}
