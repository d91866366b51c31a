package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	nextID int64
	users  map[int64]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*User)}
}

func (f *fakeStore) Create(ctx context.Context, email, name, passwordDigest string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}
	f.nextID++
	u := &User{
		ID:             f.nextID,
		Email:          email,
		Name:           name,
		PasswordDigest: passwordDigest,
		CreatedAt:      time.Now(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*User, error) {
	return f.users[id], nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) ListAll(ctx context.Context) ([]*User, error) {
	var out []*User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) CirclesForUser(ctx context.Context, userID int64) ([]*UserCircle, error) {
	return nil, nil
}

func (f *fakeStore) RecentContributions(ctx context.Context, userID int64, limit int) ([]*UserContribution, error) {
	return nil, nil
}

// stubIssuer encodes the subject into the token so tests can see who a
// token was issued for
type stubIssuer struct{}

func (stubIssuer) Issue(userID int64) (string, error) {
	return fmt.Sprintf("token-for-%d", userID), nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, stubIssuer{}), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()

	created, token, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Hana@Example.COM",
		Name:     "Hana",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if created.Email != "hana@example.com" {
		t.Errorf("expected lowercased email, got %q", created.Email)
	}
	if token == "" {
		t.Error("expected a token on register")
	}
	if created.PasswordDigest == "correct horse" {
		t.Error("expected hashed password, got plaintext")
	}

	found, token, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "hana@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected user %d, got %d", created.ID, found.ID)
	}
	if token != fmt.Sprintf("token-for-%d", created.ID) {
		t.Errorf("unexpected token %q", token)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		req  *RegisterRequest
		want error
	}{
		{"bad email", &RegisterRequest{Email: "nope", Name: "Hana", Password: "longenough"}, ErrInvalidEmail},
		{"short name", &RegisterRequest{Email: "a@b.com", Name: "x", Password: "longenough"}, ErrInvalidName},
		{"long name", &RegisterRequest{Email: "a@b.com", Name: strings.Repeat("n", 101), Password: "longenough"}, ErrInvalidName},
		{"short password", &RegisterRequest{Email: "a@b.com", Name: "Hana", Password: "short"}, ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Register(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	req := &RegisterRequest{Email: "hana@example.com", Name: "Hana", Password: "longenough"}
	if _, _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _ := newTestService()

	if _, _, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "hana@example.com", Name: "Hana", Password: "correct horse",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), &LoginRequest{Email: "hana@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "correct horse"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestResolvePrincipal(t *testing.T) {
	svc, store := newTestService()

	created, _, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "root@example.com", Name: "Root", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	store.users[created.ID].IsSuperAdmin = true

	principal, err := svc.ResolvePrincipal(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("ResolvePrincipal failed: %v", err)
	}
	if !principal.SuperAdmin {
		t.Error("expected super admin principal")
	}
	if principal.Email != "root@example.com" {
		t.Errorf("unexpected email %q", principal.Email)
	}

	if _, err := svc.ResolvePrincipal(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestImpersonateIssuesTargetToken(t *testing.T) {
	svc, _ := newTestService()

	target, _, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "target@example.com", Name: "Target", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, token, err := svc.Impersonate(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("Impersonate failed: %v", err)
	}
	if got.ID != target.ID {
		t.Errorf("expected target %d, got %d", target.ID, got.ID)
	}
	if token != fmt.Sprintf("token-for-%d", target.ID) {
		t.Errorf("expected token for target, got %q", token)
	}
}
