package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"artboard/internal/apperr"
	"artboard/internal/models"
)

type reviewFixture struct {
	state *fakeState
	blobs *fakeBlobStore
	svc   *ReviewService
}

func newReviewFixture() *reviewFixture {
	state := newFakeState()
	blobs := newFakeBlobStore()
	return &reviewFixture{
		state: state,
		blobs: blobs,
		svc: NewReviewService(
			&fakeImageStore{state: state},
			&fakeTagStore{state: state},
			&fakeArtistStore{state: state},
			blobs,
			zerolog.Nop(),
		),
	}
}

func (f *reviewFixture) seedImage(id string, status models.ModerationStatus) models.Image {
	img := models.Image{ID: id, Extension: ".png", UploaderID: "owner", Status: status}
	f.state.images[id] = img
	f.blobs.blobs[img.ObjectKey()] = []byte("pixels")
	return img
}

func TestReviewImageAccept(t *testing.T) {
	f := newReviewFixture()
	f.seedImage("img1", models.StatusPending)

	if err := f.svc.ReviewImage(context.Background(), "img1", true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if f.state.images["img1"].Status != models.StatusAccepted {
		t.Error("image not accepted")
	}

	// Accepting again, and accepting a missing id, are both no-ops.
	if err := f.svc.ReviewImage(context.Background(), "img1", true); err != nil {
		t.Errorf("second accept errored: %v", err)
	}
	if err := f.svc.ReviewImage(context.Background(), "ghost", true); err != nil {
		t.Errorf("accept of missing image errored: %v", err)
	}
}

func TestReviewImageReject(t *testing.T) {
	f := newReviewFixture()
	img := f.seedImage("img1", models.StatusPending)

	if err := f.svc.ReviewImage(context.Background(), "img1", false); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, ok := f.state.images["img1"]; ok {
		t.Error("rejected image row still present")
	}
	if _, ok := f.blobs.blobs[img.ObjectKey()]; ok {
		t.Error("rejected image blob still present")
	}

	// Rejecting the already-deleted image is a no-op.
	if err := f.svc.ReviewImage(context.Background(), "img1", false); err != nil {
		t.Errorf("second reject errored: %v", err)
	}
}

func TestReviewImageRejectBlobFailureKeepsRow(t *testing.T) {
	f := newReviewFixture()
	f.seedImage("img1", models.StatusPending)
	f.blobs.failDelete = errors.New("storage down")

	err := f.svc.ReviewImage(context.Background(), "img1", false)

	var serr *apperr.StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if _, ok := f.state.images["img1"]; !ok {
		t.Error("row deleted despite blob deletion failure")
	}
}

func TestReviewTagAndArtist(t *testing.T) {
	f := newReviewFixture()
	f.state.tags[1] = models.Tag{ID: 1, Name: "sketch", Status: models.StatusPending}
	f.state.artists[2] = models.Artist{ID: 2, Name: "painterly", Status: models.StatusPending}

	if err := f.svc.ReviewTag(context.Background(), 1, true); err != nil {
		t.Fatalf("tag accept failed: %v", err)
	}
	if f.state.tags[1].Status != models.StatusAccepted {
		t.Error("tag not accepted")
	}

	if err := f.svc.ReviewArtist(context.Background(), 2, false); err != nil {
		t.Fatalf("artist reject failed: %v", err)
	}
	if _, ok := f.state.artists[2]; ok {
		t.Error("rejected artist still present")
	}
}

func TestDeleteImageOwnership(t *testing.T) {
	f := newReviewFixture()
	f.seedImage("img1", models.StatusAccepted)

	stranger := models.User{ID: "other", Role: models.UserRoleUser}
	err := f.svc.DeleteImage(context.Background(), "img1", stranger)
	var uerr *apperr.UnauthorizedError
	if !errors.As(err, &uerr) || !uerr.Forbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	owner := models.User{ID: "owner", Role: models.UserRoleUser}
	if err := f.svc.DeleteImage(context.Background(), "img1", owner); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if len(f.state.images) != 0 || len(f.blobs.blobs) != 0 {
		t.Error("owner delete left row or blob")
	}

	err = f.svc.DeleteImage(context.Background(), "img1", owner)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
}
