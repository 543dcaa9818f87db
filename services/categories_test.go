package services

import (
	"context"
	"testing"

	"reverb-sync/models"
	"reverb-sync/odoo"
	"reverb-sync/utils"
)

func TestMakeSlug(t *testing.T) {
	tests := []struct {
		name string
		cat  models.Category
		want string
	}{
		{
			"root category keeps its slug",
			models.Category{Slug: "electric-guitars", RootSlug: "electric-guitars"},
			"electric-guitars",
		},
		{
			"subcategory gets root prefix",
			models.Category{Slug: "solid-body", RootSlug: "electric-guitars"},
			"electric-guitars/solid-body",
		},
		{
			"missing root slug",
			models.Category{Slug: "amps", RootSlug: ""},
			"amps",
		},
	}

	for _, tt := range tests {
		if got := MakeSlug(tt.cat); got != tt.want {
			t.Errorf("%s: MakeSlug = %q; want %q", tt.name, got, tt.want)
		}
	}
}

type fakeCategoryReverb struct {
	fakeReverb
	cats []models.Category
}

func (f *fakeCategoryReverb) FetchCategories(ctx context.Context) []models.Category {
	return f.cats
}

func TestCategorySyncCreatesMissing(t *testing.T) {
	r := &fakeCategoryReverb{cats: []models.Category{
		{FullName: "Electric Guitars", Name: "Electric Guitars", Slug: "electric-guitars", RootSlug: "electric-guitars"},
		{FullName: "Electric Guitars / Solid Body", Name: "Solid Body", Slug: "solid-body", RootSlug: "electric-guitars"},
		{FullName: ""}, // nameless entries are ignored
	}}
	o := &fakeOdoo{catsSeen: []odoo.CategoryRecord{
		{ID: 1, Name: "Electric Guitars", Slug: "electric-guitars"},
	}}

	svc := &CategoryService{Odoo: o, Reverb: r, Logger: utils.NewLogger()}
	created, err := svc.Sync(context.Background(), false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if created != 1 {
		t.Fatalf("created: got %d, want 1", created)
	}
	vals := o.catsAdded[0]
	if vals["x_name"] != "Electric Guitars / Solid Body" {
		t.Errorf("name: got %v", vals["x_name"])
	}
	if vals["x_studio_slug"] != "electric-guitars/solid-body" {
		t.Errorf("slug: got %v", vals["x_studio_slug"])
	}
}

func TestCategorySyncDryRunWritesNothing(t *testing.T) {
	r := &fakeCategoryReverb{cats: []models.Category{
		{FullName: "Acoustic Guitars", Slug: "acoustic-guitars", RootSlug: "acoustic-guitars"},
	}}
	o := &fakeOdoo{}

	svc := &CategoryService{Odoo: o, Reverb: r, Logger: utils.NewLogger()}
	created, err := svc.Sync(context.Background(), true)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if created != 0 || len(o.catsAdded) != 0 {
		t.Errorf("dry-run must not create: created=%d added=%d", created, len(o.catsAdded))
	}
}
