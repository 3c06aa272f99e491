package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"

	"artboard/internal/apperr"
	"artboard/internal/media/phash"
	"artboard/internal/models"
	"artboard/internal/repository"
)

// fakeState is a shared in-memory stand-in for the relational store.
type fakeState struct {
	images       map[string]models.Image
	tags         map[int64]models.Tag
	artists      map[int64]models.Artist
	imageTags    map[string][]int64
	imageArtists map[string][]int64
	nextTagID    int64
	nextArtistID int64
}

func newFakeState() *fakeState {
	return &fakeState{
		images:       map[string]models.Image{},
		tags:         map[int64]models.Tag{},
		artists:      map[int64]models.Artist{},
		imageTags:    map[string][]int64{},
		imageArtists: map[string][]int64{},
	}
}

func (s *fakeState) snapshot() *fakeState {
	c := newFakeState()
	c.nextTagID = s.nextTagID
	c.nextArtistID = s.nextArtistID
	for k, v := range s.images {
		c.images[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.artists {
		c.artists[k] = v
	}
	for k, v := range s.imageTags {
		c.imageTags[k] = append([]int64(nil), v...)
	}
	for k, v := range s.imageArtists {
		c.imageArtists[k] = append([]int64(nil), v...)
	}
	return c
}

func (s *fakeState) restore(from *fakeState) {
	*s = *from
}

// fakeUOW applies transactional semantics by snapshotting the state and
// restoring it when fn fails.
type fakeUOW struct {
	state *fakeState
}

func (u *fakeUOW) InTx(_ context.Context, fn func(tx repository.Tx) error) error {
	before := u.state.snapshot()
	if err := fn(&fakeTx{state: u.state}); err != nil {
		u.state.restore(before)
		return err
	}
	return nil
}

type fakeTx struct {
	state *fakeState
}

func (t *fakeTx) FindTagByNameOrSlug(_ context.Context, value string) (models.Tag, bool, error) {
	for _, tag := range t.state.tags {
		if tag.Name == value || tag.Slug == value {
			return tag, true, nil
		}
	}
	return models.Tag{}, false, nil
}

func (t *fakeTx) CreateTag(_ context.Context, tag models.Tag) (models.Tag, error) {
	t.state.nextTagID++
	tag.ID = t.state.nextTagID
	t.state.tags[tag.ID] = tag
	return tag, nil
}

func (t *fakeTx) FindArtistByID(_ context.Context, id int64) (models.Artist, bool, error) {
	artist, ok := t.state.artists[id]
	return artist, ok, nil
}

func (t *fakeTx) FindArtistByName(_ context.Context, name string) (models.Artist, bool, error) {
	for _, artist := range t.state.artists {
		if artist.Name == name {
			return artist, true, nil
		}
	}
	return models.Artist{}, false, nil
}

func (t *fakeTx) CreateArtist(_ context.Context, artist models.Artist) (models.Artist, error) {
	t.state.nextArtistID++
	artist.ID = t.state.nextArtistID
	t.state.artists[artist.ID] = artist
	return artist, nil
}

func (t *fakeTx) CreateImage(_ context.Context, image models.Image, tagIDs, artistIDs []int64) error {
	if _, exists := t.state.images[image.ID]; exists {
		return errors.New("duplicate image id")
	}
	t.state.images[image.ID] = image
	t.state.imageTags[image.ID] = append([]int64(nil), tagIDs...)
	t.state.imageArtists[image.ID] = append([]int64(nil), artistIDs...)
	return nil
}

type fakeImageStore struct {
	state *fakeState
	// lastFilter records the filter List was called with.
	lastFilter repository.ImageFilter
}

func (f *fakeImageStore) FindNearDuplicate(_ context.Context, hash int64, maxDistance int) (repository.DuplicateHit, bool, error) {
	best := repository.DuplicateHit{Distance: maxDistance + 1}
	for _, img := range f.state.images {
		d := phash.Distance(phash.FromSigned(img.PHash), phash.FromSigned(hash))
		if d <= maxDistance && d < best.Distance {
			best = repository.DuplicateHit{ID: img.ID, Distance: d}
		}
	}
	if best.ID == "" {
		return repository.DuplicateHit{}, false, nil
	}
	return best, true, nil
}

func (f *fakeImageStore) GetByID(_ context.Context, id string) (models.Image, error) {
	img, ok := f.state.images[id]
	if !ok {
		return models.Image{}, apperr.NotFound("image", id)
	}
	return img, nil
}

func (f *fakeImageStore) List(_ context.Context, filter repository.ImageFilter) ([]models.Image, error) {
	f.lastFilter = filter

	var out []models.Image
	for _, img := range f.state.images {
		if filter.Status != nil && img.Status != *filter.Status {
			continue
		}
		if filter.NSFW != nil && img.NSFW != *filter.NSFW {
			continue
		}
		if filter.Animated != nil && img.Animated != *filter.Animated {
			continue
		}
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeImageStore) TagsFor(_ context.Context, imageIDs []string, onlyAccepted bool) (map[string][]models.Tag, error) {
	result := map[string][]models.Tag{}
	for _, id := range imageIDs {
		for _, tagID := range f.state.imageTags[id] {
			tag, ok := f.state.tags[tagID]
			if !ok {
				continue
			}
			if onlyAccepted && tag.Status != models.StatusAccepted {
				continue
			}
			result[id] = append(result[id], tag)
		}
	}
	return result, nil
}

func (f *fakeImageStore) ArtistsFor(_ context.Context, imageIDs []string, onlyAccepted bool) (map[string][]models.Artist, error) {
	result := map[string][]models.Artist{}
	for _, id := range imageIDs {
		for _, artistID := range f.state.imageArtists[id] {
			artist, ok := f.state.artists[artistID]
			if !ok {
				continue
			}
			if onlyAccepted && artist.Status != models.StatusAccepted {
				continue
			}
			result[id] = append(result[id], artist)
		}
	}
	return result, nil
}

func (f *fakeImageStore) Accept(_ context.Context, id string) error {
	img, ok := f.state.images[id]
	if !ok {
		return nil
	}
	img.Status = models.StatusAccepted
	f.state.images[id] = img
	return nil
}

func (f *fakeImageStore) Delete(_ context.Context, id string) error {
	delete(f.state.images, id)
	delete(f.state.imageTags, id)
	delete(f.state.imageArtists, id)
	return nil
}

type fakeTagStore struct {
	state *fakeState
}

func (f *fakeTagStore) GetByID(_ context.Context, id int64) (models.Tag, error) {
	tag, ok := f.state.tags[id]
	if !ok {
		return models.Tag{}, apperr.NotFound("tag", strconv.FormatInt(id, 10))
	}
	return tag, nil
}

func (f *fakeTagStore) FindConflict(_ context.Context, name, slug string) (models.Tag, string, error) {
	for _, tag := range f.state.tags {
		if tag.Name == name {
			return tag, "name", nil
		}
		if tag.Slug == slug {
			return tag, "slug", nil
		}
	}
	return models.Tag{}, "", nil
}

func (f *fakeTagStore) Create(_ context.Context, tag models.Tag) (models.Tag, error) {
	f.state.nextTagID++
	tag.ID = f.state.nextTagID
	f.state.tags[tag.ID] = tag
	return tag, nil
}

func (f *fakeTagStore) List(_ context.Context, status *models.ModerationStatus, _, _ int) ([]models.Tag, error) {
	var out []models.Tag
	for _, tag := range f.state.tags {
		if status != nil && tag.Status != *status {
			continue
		}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTagStore) Accept(_ context.Context, id int64) error {
	tag, ok := f.state.tags[id]
	if !ok {
		return nil
	}
	tag.Status = models.StatusAccepted
	f.state.tags[id] = tag
	return nil
}

func (f *fakeTagStore) Delete(_ context.Context, id int64) error {
	delete(f.state.tags, id)
	return nil
}

func (f *fakeTagStore) DeleteByIDs(_ context.Context, ids []int64) error {
	for _, id := range ids {
		delete(f.state.tags, id)
	}
	return nil
}

type fakeArtistStore struct {
	state *fakeState
}

func (f *fakeArtistStore) GetByID(_ context.Context, id int64) (models.Artist, error) {
	artist, ok := f.state.artists[id]
	if !ok {
		return models.Artist{}, apperr.NotFound("artist", strconv.FormatInt(id, 10))
	}
	return artist, nil
}

func (f *fakeArtistStore) FindConflict(_ context.Context, candidate models.Artist) (models.Artist, string, error) {
	for _, artist := range f.state.artists {
		if artist.Name == candidate.Name {
			return artist, "name", nil
		}
		theirs := artist.SocialLinks()
		for field, link := range candidate.SocialLinks() {
			if link == nil || theirs[field] == nil {
				continue
			}
			if *link == *theirs[field] {
				return artist, field, nil
			}
		}
	}
	return models.Artist{}, "", nil
}

func (f *fakeArtistStore) Create(_ context.Context, artist models.Artist) (models.Artist, error) {
	f.state.nextArtistID++
	artist.ID = f.state.nextArtistID
	f.state.artists[artist.ID] = artist
	return artist, nil
}

func (f *fakeArtistStore) List(_ context.Context, status *models.ModerationStatus, _, _ int) ([]models.Artist, error) {
	var out []models.Artist
	for _, artist := range f.state.artists {
		if status != nil && artist.Status != *status {
			continue
		}
		out = append(out, artist)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArtistStore) Accept(_ context.Context, id int64) error {
	artist, ok := f.state.artists[id]
	if !ok {
		return nil
	}
	artist.Status = models.StatusAccepted
	f.state.artists[id] = artist
	return nil
}

func (f *fakeArtistStore) Delete(_ context.Context, id int64) error {
	delete(f.state.artists, id)
	return nil
}

func (f *fakeArtistStore) DeleteByIDs(_ context.Context, ids []int64) error {
	for _, id := range ids {
		delete(f.state.artists, id)
	}
	return nil
}

type fakeBlobStore struct {
	blobs      map[string][]byte
	failUpload error
	failDelete error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Upload(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	if f.failUpload != nil {
		return f.failUpload
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.blobs[key] = data
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.blobs, key)
	return nil
}

func (f *fakeBlobStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, uint8) (func(), bool) {
	return func() {}, true
}
