package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"uriage/internal/core"
)

func TestCreateAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{}
	svc := NewLedgerService(fs, nil, nil)

	a, _, err := svc.Create(ctx, core.Project{Name: "Site build", Client: "Acme", Date: "2024-01-15"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _, err := svc.Create(ctx, core.Project{Name: "Logo", Client: "Beta", Date: "2024-01-16"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Fatalf("ids not unique: %d %d", a.ID, b.ID)
	}
	if len(fs.projects) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(fs.projects))
	}
}

func TestCreateRecurringMakesNextYearSibling(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewLedgerService(fs, pub, []string{"hosting"})

	created, sibling, err := svc.Create(ctx, core.Project{
		Name: "Hosting renewal", Client: "Acme", Date: "2024-03-15", Sales: 12000, Note: "annual",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sibling == nil {
		t.Fatal("expected a next-year sibling for a marker-matching name")
	}
	if sibling.Date != "2025-03-01" {
		t.Fatalf("sibling date: got %s want 2025-03-01", sibling.Date)
	}
	if sibling.ID == created.ID || sibling.ID == 0 {
		t.Fatalf("sibling id not unique: %d vs %d", sibling.ID, created.ID)
	}
	if sibling.Sales != created.Sales || sibling.Note != created.Note {
		t.Fatal("sibling must copy sales and note")
	}
	if sibling.IsInvoiced || sibling.IsPaid {
		t.Fatal("sibling statuses must start cleared")
	}
	if len(fs.projects) != 2 {
		t.Fatalf("expected record plus sibling, got %d", len(fs.projects))
	}
	if len(pub.sources) != 1 {
		t.Fatalf("expected one change notification, got %d", len(pub.sources))
	}
}

func TestCreateNonRecurringHasNoSibling(t *testing.T) {
	fs := &fakeStore{}
	svc := NewLedgerService(fs, nil, []string{"hosting"})
	_, sibling, err := svc.Create(context.Background(), core.Project{Name: "Logo", Client: "Beta", Date: "2024-03-15"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sibling != nil {
		t.Fatal("unexpected sibling")
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	fs := &fakeStore{}
	svc := NewLedgerService(fs, nil, nil)
	if _, _, err := svc.Create(context.Background(), core.Project{Name: "", Client: "c", Date: "2024-01-01"}); err == nil {
		t.Fatal("expected validation error")
	}
	if fs.saves != 0 {
		t.Fatal("invalid input must not mutate the store")
	}
}

func TestUpdatePreservesStatuses(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{projects: []core.Project{
		{ID: 1, Name: "Old", Client: "Acme", Date: "2024-01-15", IsInvoiced: true, IsPaid: true},
	}}
	svc := NewLedgerService(fs, nil, nil)

	got, err := svc.Update(ctx, core.Project{ID: 1, Name: "New", Client: "Acme", Date: "2024-01-20", Sales: 500})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "New" || got.Sales != 500 {
		t.Fatalf("fields not updated: %+v", got)
	}
	if !got.IsInvoiced || !got.IsPaid {
		t.Fatal("update must preserve invoice/payment statuses")
	}
}

func TestUpdateMissing(t *testing.T) {
	svc := NewLedgerService(&fakeStore{}, nil, nil)
	_, err := svc.Update(context.Background(), core.Project{ID: 99, Name: "n", Client: "c", Date: "2024-01-01"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{projects: []core.Project{
		{ID: 1, Name: "a", Client: "c", Date: "2024-01-01"},
		{ID: 2, Name: "b", Client: "c", Date: "2024-01-02"},
	}}
	svc := NewLedgerService(fs, nil, nil)

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fs.projects) != 1 || fs.projects[0].ID != 2 {
		t.Fatalf("wrong survivor set: %+v", fs.projects)
	}
	if err := svc.Delete(ctx, 1); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggles(t *testing.T) {
	ctx := context.Background()
	fs := &fakeStore{projects: []core.Project{{ID: 1, Name: "a", Client: "c", Date: "2024-01-01"}}}
	svc := NewLedgerService(fs, nil, nil)

	on, err := svc.ToggleInvoiced(ctx, 1)
	if err != nil || !on {
		t.Fatalf("first toggle should turn on, got %v %v", on, err)
	}
	off, err := svc.ToggleInvoiced(ctx, 1)
	if err != nil || off {
		t.Fatalf("second toggle should turn off, got %v %v", off, err)
	}
	paid, err := svc.TogglePaid(ctx, 1)
	if err != nil || !paid {
		t.Fatalf("paid toggle failed: %v %v", paid, err)
	}
	if fs.projects[0].IsInvoiced || !fs.projects[0].IsPaid {
		t.Fatalf("persisted flags wrong: %+v", fs.projects[0])
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	fs := &fakeStore{}
	pub := &fakePublisher{err: errBoom}
	svc := NewLedgerService(fs, pub, nil)
	if _, _, err := svc.Create(context.Background(), core.Project{Name: "n", Client: "c", Date: "2024-01-01"}); err != nil {
		t.Fatalf("publish failure must not surface: %v", err)
	}
	if len(fs.projects) != 1 {
		t.Fatal("record not persisted")
	}
}

func TestMatchesMarker(t *testing.T) {
	markers := []string{"hosting", "domain"}
	cases := []struct {
		name string
		want bool
	}{
		{"Hosting renewal", true},
		{"acme.com domain transfer", true},
		{"DOMAIN", true},
		{"Logo design", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := MatchesMarker(tc.name, markers); got != tc.want {
			t.Fatalf("%q: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestCreateNeverReissuesImportedIDs(t *testing.T) {
	future := time.Now().Add(365 * 24 * time.Hour).UnixMilli()
	st := &fakeStore{projects: []core.Project{
		{ID: future, Name: "Imported", Client: "Acme", Date: "2027-01-01"},
	}}
	svc := NewLedgerService(st, nil, nil)

	created, _, err := svc.Create(context.Background(), core.Project{
		Name: "New work", Client: "Beta", Date: "2024-05-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID <= future {
		t.Fatalf("created id %d not past imported id %d", created.ID, future)
	}

	seen := make(map[int64]bool)
	for _, p := range st.projects {
		if seen[p.ID] {
			t.Fatalf("duplicate id %d in store", p.ID)
		}
		seen[p.ID] = true
	}
}
