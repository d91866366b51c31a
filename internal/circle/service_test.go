package circle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/internal/policy"
)

type fakeStore struct {
	nextID  int64
	circles map[int64]*Circle
	members map[int64][]*Member
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		circles: make(map[int64]*Circle),
		members: make(map[int64][]*Member),
	}
}

func (f *fakeStore) CreateWithAdmin(ctx context.Context, name string, description *string, creatorID int64) (*Circle, error) {
	f.nextID++
	c := &Circle{
		ID:          f.nextID,
		Name:        name,
		Description: description,
		CreatedByID: &creatorID,
		CreatedAt:   time.Now(),
	}
	f.circles[c.ID] = c
	f.members[c.ID] = append(f.members[c.ID], &Member{
		ID:       c.ID,
		CircleID: c.ID,
		UserID:   creatorID,
		Role:     RoleAdmin,
	})
	return c, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*Circle, error) {
	return f.circles[id], nil
}

func (f *fakeStore) ListByUserID(ctx context.Context, userID int64) ([]*Circle, error) {
	var out []*Circle
	for id, ms := range f.members {
		for _, m := range ms {
			if m.UserID == userID {
				out = append(out, f.circles[id])
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(ctx context.Context) ([]*Circle, error) {
	var out []*Circle
	for _, c := range f.circles {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, req *UpdateCircleRequest) (*Circle, error) {
	c, ok := f.circles[id]
	if !ok {
		return nil, nil
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	return c, nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.circles[id]; !ok {
		return ErrNotFound
	}
	delete(f.circles, id)
	delete(f.members, id)
	return nil
}

func (f *fakeStore) GetMembers(ctx context.Context, circleID int64) ([]*Member, error) {
	return f.members[circleID], nil
}

type allowAllAuthz struct{}

func (allowAllAuthz) CanViewCircle(ctx context.Context, p *auth.Principal, circleID int64) error {
	return nil
}
func (allowAllAuthz) CanManageCircle(ctx context.Context, p *auth.Principal, circleID int64) error {
	return nil
}

type denyAuthz struct{ err error }

func (d denyAuthz) CanViewCircle(ctx context.Context, p *auth.Principal, circleID int64) error {
	return d.err
}
func (d denyAuthz) CanManageCircle(ctx context.Context, p *auth.Principal, circleID int64) error {
	return d.err
}

var carol = &auth.Principal{ID: 21, Email: "carol@example.com", Name: "Carol"}

func TestCreateEnrollsCreatorAsAdmin(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, allowAllAuthz{})

	created, err := svc.Create(context.Background(), carol, &CreateCircleRequest{Name: "Writers Guild"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	members, _ := store.GetMembers(context.Background(), created.ID)
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
	if members[0].UserID != carol.ID || members[0].Role != RoleAdmin {
		t.Errorf("expected creator as admin, got user %d role %q", members[0].UserID, members[0].Role)
	}
	if created.CreatedByID == nil || *created.CreatedByID != carol.ID {
		t.Errorf("expected created_by %d, got %v", carol.ID, created.CreatedByID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore(), allowAllAuthz{})

	longDesc := strings.Repeat("d", 501)
	tests := []struct {
		name string
		req  *CreateCircleRequest
		want error
	}{
		{"too short", &CreateCircleRequest{Name: "a"}, ErrInvalidName},
		{"whitespace only", &CreateCircleRequest{Name: "   "}, ErrInvalidName},
		{"too long", &CreateCircleRequest{Name: strings.Repeat("x", 101)}, ErrInvalidName},
		{"long description", &CreateCircleRequest{Name: "ok name", Description: &longDesc}, ErrInvalidDescription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), carol, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateTrimsName(t *testing.T) {
	svc := NewService(newFakeStore(), allowAllAuthz{})

	created, err := svc.Create(context.Background(), carol, &CreateCircleRequest{Name: "  Night Owls  "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "Night Owls" {
		t.Errorf("expected trimmed name, got %q", created.Name)
	}
}

func TestGetRequiresMembership(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, denyAuthz{err: policy.ErrForbidden})
	if _, err := store.CreateWithAdmin(context.Background(), "Private", nil, 99); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Get(context.Background(), carol, 1); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestGetUnknownCircle(t *testing.T) {
	svc := NewService(newFakeStore(), allowAllAuthz{})

	if _, _, err := svc.Get(context.Background(), carol, 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListOnlyOwnCircles(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, allowAllAuthz{})

	if _, err := store.CreateWithAdmin(context.Background(), "Mine", nil, carol.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateWithAdmin(context.Background(), "Theirs", nil, 99); err != nil {
		t.Fatal(err)
	}

	circles, err := svc.List(context.Background(), carol)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(circles) != 1 || circles[0].Name != "Mine" {
		t.Errorf("expected only carol's circle, got %d circles", len(circles))
	}
}

func TestUpdateValidatesName(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, allowAllAuthz{})
	if _, err := store.CreateWithAdmin(context.Background(), "Original", nil, carol.ID); err != nil {
		t.Fatal(err)
	}

	bad := "x"
	if _, err := svc.Update(context.Background(), carol, 1, &UpdateCircleRequest{Name: &bad}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}

	good := "Renamed"
	updated, err := svc.Update(context.Background(), carol, 1, &UpdateCircleRequest{Name: &good})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("expected renamed circle, got %q", updated.Name)
	}
}

func TestDeleteRequiresManage(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, denyAuthz{err: policy.ErrForbidden})
	if _, err := store.CreateWithAdmin(context.Background(), "Keep", nil, 99); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), carol, 1); !errors.Is(err, policy.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := store.GetByID(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
}
