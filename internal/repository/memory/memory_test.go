package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

func tickingClock() func() time.Time {
	t := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestBarnRepository_CreateGetRoundTrip(t *testing.T) {
	store := NewStore()
	owner := store.AddUser(models.Profile{Name: "Awa", Email: "awa@farm.gn", Role: models.RoleAdmin}, "pw")
	repo := NewBarnRepository(store)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.BarnInput{Name: "North", Chickens: 120, EggsToday: 40, Status: models.StatusWarning, ProfileID: owner.ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "North" || got.ChickenCount() != 120 || got.Status != models.StatusWarning {
		t.Errorf("Get() = %+v", got)
	}
	if got.Owner == nil || got.Owner.Name != "Awa" {
		t.Errorf("Owner = %+v", got.Owner)
	}
}

func TestBarnRepository_ListNewestFirstWithPaging(t *testing.T) {
	store := NewStore()
	store.SetClock(tickingClock())
	repo := NewBarnRepository(store)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d"} {
		if _, err := repo.Create(ctx, models.BarnInput{Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := repo.List(ctx, models.BarnFilter{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 2 || page[0].Name != "c" || page[1].Name != "b" {
		t.Errorf("page = %v, want [c b]", names(page))
	}

	beyond, _ := repo.List(ctx, models.BarnFilter{Offset: 10, Limit: 2})
	if len(beyond) != 0 {
		t.Errorf("offset past end returned %d rows", len(beyond))
	}
}

func TestBarnRepository_DeleteRecordsAudit(t *testing.T) {
	store := NewStore()
	repo := NewBarnRepository(store)
	audit := NewAuditRepository(store)
	ctx := context.Background()

	b, _ := repo.Create(ctx, models.BarnInput{Name: "North"})
	if _, err := repo.Update(ctx, b.ID, models.BarnPatch{EggsToday: models.Int(3)}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, b.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	entries, _ := audit.ListByBarn(ctx, b.ID)
	want := []models.Operation{models.OperationDelete, models.OperationUpdate, models.OperationCreate}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, op := range want {
		if entries[i].Operation != op {
			t.Errorf("entries[%d].Operation = %s, want %s", i, entries[i].Operation, op)
		}
	}
	if entries[0].OldData["name"] != "North" {
		t.Errorf("delete old_data = %v", entries[0].OldData)
	}
}

func TestIdentityProvider(t *testing.T) {
	store := NewStore()
	store.AddUser(models.Profile{ID: "u1", Email: "awa@farm.gn", Role: models.RoleViewer}, "pw")
	idp := NewIdentityProvider(store, time.Hour)
	ctx := context.Background()

	if _, err := idp.SignInWithPassword(ctx, "awa@farm.gn", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password error = %v", err)
	}
	session, err := idp.SignInWithPassword(ctx, "AWA@farm.gn", "pw")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	u, err := idp.GetUser(ctx, session.AccessToken)
	if err != nil || u.ID != "u1" {
		t.Fatalf("GetUser() = %+v, %v", u, err)
	}
	if err := idp.SignOut(ctx, session.AccessToken); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if _, err := idp.GetUser(ctx, session.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("GetUser after sign-out error = %v", err)
	}
}

func names(barns []models.Barn) []string {
	out := make([]string, len(barns))
	for i, b := range barns {
		out[i] = b.Name
	}
	return out
}
