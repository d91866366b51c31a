package invitation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/internal/mailer"
	"github.com/cowriteapp/cowrite/internal/policy"
)

type memberKey struct{ circleID, userID int64 }

type fakeStore struct {
	mu          sync.Mutex
	nextID      int64
	invitations map[string]*Invitation
	members     map[memberKey]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invitations: make(map[string]*Invitation),
		members:     make(map[memberKey]bool),
	}
}

func (f *fakeStore) Create(ctx context.Context, circleID int64, email, token string, invitedByID int64, expiresAt time.Time) (*Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inv := &Invitation{
		ID:          f.nextID,
		CircleID:    circleID,
		Email:       email,
		Token:       token,
		Status:      StatusPending,
		InvitedByID: invitedByID,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
		CircleName:  "Test Circle",
		InviterName: "Inviter",
	}
	f.invitations[token] = inv
	return inv, nil
}

func (f *fakeStore) GetByToken(ctx context.Context, token string) (*Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invitations[token]
	if !ok {
		return nil, nil
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeStore) MemberExists(ctx context.Context, circleID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[memberKey{circleID, userID}], nil
}

func (f *fakeStore) Accept(ctx context.Context, token string, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invitations[token]
	if !ok || inv.Status != StatusPending {
		return false, nil
	}
	inv.Status = StatusAccepted
	f.members[memberKey{inv.CircleID, userID}] = true
	return true, nil
}

type allowAllAuthz struct{}

func (allowAllAuthz) CanViewCircle(ctx context.Context, p *auth.Principal, circleID int64) error {
	return nil
}

type recordingMailer struct {
	sent chan mailer.Invite
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan mailer.Invite, 8)}
}

func (m *recordingMailer) SendInvitation(ctx context.Context, inv mailer.Invite) error {
	m.sent <- inv
	return nil
}

var (
	erin  = &auth.Principal{ID: 41, Email: "erin@example.com", Name: "Erin"}
	frank = &auth.Principal{ID: 42, Email: "frank@example.com", Name: "Frank"}
)

func newTestService(store *fakeStore) (*Service, *recordingMailer) {
	m := newRecordingMailer()
	svc := NewService(store, allowAllAuthz{}, m, zap.NewNop(), "https://cowrite.example.com")
	return svc, m
}

func TestCreateSendsInviteMail(t *testing.T) {
	svc, m := newTestService(newFakeStore())

	created, err := svc.Create(context.Background(), erin, 1, &CreateInvitationRequest{Email: "Frank@Example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Email != "frank@example.com" {
		t.Errorf("expected lowercased email, got %q", created.Email)
	}

	select {
	case invite := <-m.sent:
		if invite.Email != "frank@example.com" {
			t.Errorf("expected mail to frank, got %q", invite.Email)
		}
		want := "https://cowrite.example.com/invitations/" + created.Token
		if invite.AcceptURL != want {
			t.Errorf("expected accept URL %q, got %q", want, invite.AcceptURL)
		}
	case <-time.After(time.Second):
		t.Fatal("expected invitation mail")
	}
}

func TestCreateRejectsInvalidEmail(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	for _, email := range []string{"", "not-an-email", "a@b", "has space@example.com"} {
		if _, err := svc.Create(context.Background(), erin, 1, &CreateInvitationRequest{Email: email}); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestCreateDeniedForNonMember(t *testing.T) {
	store := newFakeStore()
	m := newRecordingMailer()
	svc := NewService(store, denyAuthz{}, m, zap.NewNop(), "https://cowrite.example.com")

	if _, err := svc.Create(context.Background(), frank, 1, &CreateInvitationRequest{Email: "x@example.com"}); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

type denyAuthz struct{}

func (denyAuthz) CanViewCircle(ctx context.Context, p *auth.Principal, circleID int64) error {
	return policy.ErrForbidden
}

func TestLookupUnknownToken(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	if _, err := svc.Lookup(context.Background(), "no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupExpired(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	created, err := svc.Create(context.Background(), erin, 1, &CreateInvitationRequest{Email: "frank@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(TTL + time.Hour) }
	if _, err := svc.Lookup(context.Background(), created.Token); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestAcceptIsSingleUse(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	created, err := svc.Create(context.Background(), erin, 1, &CreateInvitationRequest{Email: "frank@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	accepted, err := svc.Accept(context.Background(), frank, created.Token)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.CircleID != 1 {
		t.Errorf("expected circle 1, got %d", accepted.CircleID)
	}
	if ok, _ := store.MemberExists(context.Background(), 1, frank.ID); !ok {
		t.Error("expected frank enrolled after accept")
	}

	other := &auth.Principal{ID: 43, Email: "gina@example.com", Name: "Gina"}
	if _, err := svc.Accept(context.Background(), other, created.Token); !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("expected ErrAlreadyUsed on second accept, got %v", err)
	}
}

func TestAcceptExpired(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	created, err := svc.Create(context.Background(), erin, 1, &CreateInvitationRequest{Email: "frank@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(TTL + time.Minute) }
	if _, err := svc.Accept(context.Background(), frank, created.Token); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
	if ok, _ := store.MemberExists(context.Background(), 1, frank.ID); ok {
		t.Error("expected no enrollment from expired invitation")
	}
}

func TestAcceptAlreadyMember(t *testing.T) {
	store := newFakeStore()
	store.members[memberKey{1, frank.ID}] = true
	svc, _ := newTestService(store)

	created, err := svc.Create(context.Background(), erin, 1, &CreateInvitationRequest{Email: "frank@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Accept(context.Background(), frank, created.Token); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
	if inv, _ := store.GetByToken(context.Background(), created.Token); inv.Status != StatusPending {
		t.Error("expected invitation to stay pending")
	}
}

func TestRacingAcceptsOnlyOneWins(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	created, err := svc.Create(context.Background(), erin, 1, &CreateInvitationRequest{Email: "frank@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const racers = 10
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			p := &auth.Principal{ID: 100 + id}
			if _, err := svc.Accept(context.Background(), p, created.Token); err == nil {
				wins <- struct{}{}
			}
		}(int64(i))
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one winning accept, got %d", count)
	}
}

func TestNewTokenEntropy(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken failed: %v", err)
		}
		if len(token) != 43 {
			t.Fatalf("expected 43-char token, got %d", len(token))
		}
		if seen[token] {
			t.Fatal("duplicate token generated")
		}
		seen[token] = true
	}
}
