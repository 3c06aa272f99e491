package service

import (
	"context"
	"errors"
	"testing"

	"artboard/internal/apperr"
	"artboard/internal/config"
	"artboard/internal/models"
)

func newTagService(state *fakeState, moderated bool) *TagService {
	return NewTagService(&fakeTagStore{state: state}, config.ModerationConfig{Tags: moderated})
}

func TestTagCreate(t *testing.T) {
	state := newFakeState()
	svc := newTagService(state, true)

	tag, err := svc.Create(context.Background(), "  Comic Strip ", "multi-panel works")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if tag.Name != "Comic Strip" || tag.Slug != "comic-strip" {
		t.Errorf("name=%q slug=%q", tag.Name, tag.Slug)
	}
	if tag.Status != models.StatusPending {
		t.Errorf("status = %q, want pending under moderation", tag.Status)
	}

	unmoderated := newTagService(newFakeState(), false)
	tag, err = unmoderated.Create(context.Background(), "oekaki", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if tag.Status != models.StatusAccepted {
		t.Errorf("status = %q, want accepted without moderation", tag.Status)
	}
}

func TestTagCreateConflicts(t *testing.T) {
	state := newFakeState()
	state.tags[7] = models.Tag{ID: 7, Name: "Comic Strip", Slug: "comic-strip", Status: models.StatusAccepted}
	svc := newTagService(state, true)

	cases := []struct {
		name      string
		wantField string
	}{
		{"Comic Strip", "name"},
		{"comic STRIP", "slug"}, // different name, same slug
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.name, "")
		var cerr *apperr.ConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("Create(%q): expected ConflictError, got %v", tc.name, err)
		}
		if cerr.Field != tc.wantField || cerr.ExistingID != "7" {
			t.Errorf("Create(%q): field=%q id=%q, want %q/7", tc.name, cerr.Field, cerr.ExistingID, tc.wantField)
		}
	}
}

func TestTagCreateRejectsEmptyName(t *testing.T) {
	svc := newTagService(newFakeState(), true)
	for _, name := range []string{"", "   ", "!!!"} {
		_, err := svc.Create(context.Background(), name, "")
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Create(%q): expected ValidationError, got %v", name, err)
		}
	}
}

func TestTagVisibility(t *testing.T) {
	state := newFakeState()
	state.tags[1] = models.Tag{ID: 1, Name: "visible", Status: models.StatusAccepted}
	state.tags[2] = models.Tag{ID: 2, Name: "hidden", Status: models.StatusPending}
	svc := newTagService(state, true)

	_, err := svc.Get(context.Background(), 2, false)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for pending tag, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 2, true); err != nil {
		t.Errorf("privileged get failed: %v", err)
	}

	tags, err := svc.List(context.Background(), false, nil, 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "visible" {
		t.Errorf("public list = %+v", tags)
	}

	tags, err = svc.List(context.Background(), true, nil, 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("privileged list returned %d tags, want 2", len(tags))
	}
}
