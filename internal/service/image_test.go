package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Nazifamoh/artifyAI/internal/cache"
	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/repository"
	"github.com/Nazifamoh/artifyAI/internal/transform"
	"github.com/Nazifamoh/artifyAI/internal/workflow"
)

// fakeImageStore implements ImageStore in memory.
type fakeImageStore struct {
	images map[string]*model.Image
	gets   int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{images: make(map[string]*model.Image)}
}

func (f *fakeImageStore) CreateImage(ctx context.Context, image *model.Image) error {
	cp := *image
	f.images[image.ID] = &cp
	return nil
}

func (f *fakeImageStore) GetImageByID(ctx context.Context, id string) (*model.Image, error) {
	f.gets++
	if img, ok := f.images[id]; ok {
		cp := *img
		return &cp, nil
	}
	return nil, repository.ErrImageNotFound
}

func (f *fakeImageStore) UpdateImage(ctx context.Context, image *model.Image) error {
	if _, ok := f.images[image.ID]; !ok {
		return repository.ErrImageNotFound
	}
	cp := *image
	f.images[image.ID] = &cp
	return nil
}

func (f *fakeImageStore) DeleteImage(ctx context.Context, id, ownerID string) error {
	img, ok := f.images[id]
	if !ok || img.OwnerID != ownerID {
		return repository.ErrImageNotFound
	}
	delete(f.images, id)
	return nil
}

func (f *fakeImageStore) ListImagesByOwner(ctx context.Context, ownerID, cursor string, limit int) ([]*model.Image, string, error) {
	var out []*model.Image
	for _, img := range f.images {
		if img.OwnerID == ownerID {
			cp := *img
			out = append(out, &cp)
		}
	}
	return out, "", nil
}

// fakeImageCache implements ImageCache in memory.
type fakeImageCache struct {
	entries  map[string]*model.Image
	negative map[string]bool
}

func newFakeImageCache() *fakeImageCache {
	return &fakeImageCache{
		entries:  make(map[string]*model.Image),
		negative: make(map[string]bool),
	}
}

func (f *fakeImageCache) GetImage(ctx context.Context, id string) (*model.Image, error) {
	if img, ok := f.entries[id]; ok {
		cp := *img
		return &cp, nil
	}
	return nil, cache.ErrCacheMiss
}

func (f *fakeImageCache) SetImage(ctx context.Context, image *model.Image) error {
	cp := *image
	f.entries[image.ID] = &cp
	delete(f.negative, image.ID)
	return nil
}

func (f *fakeImageCache) DeleteImage(ctx context.Context, id string) error {
	delete(f.entries, id)
	delete(f.negative, id)
	return nil
}

func (f *fakeImageCache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	return f.negative[id], nil
}

func (f *fakeImageCache) SetNegativeCache(ctx context.Context, id string) error {
	f.negative[id] = true
	return nil
}

func testSaveRequest() workflow.SaveRequest {
	return workflow.SaveRequest{
		OwnerID:  "u1",
		Title:    "holiday photo",
		PublicID: "uploads/abc123",
		Type:     transform.TypeRecolor,
		Config: transform.Config{
			Type:    transform.TypeRecolor,
			Recolor: &transform.RecolorParams{Prompt: "the car", To: "red"},
		},
		Width:          800,
		Height:         600,
		SecureURL:      "https://res.cloudinary.com/demo/image/upload/uploads/abc123",
		TransformedURL: "https://res.cloudinary.com/demo/image/upload/e_gen_recolor:prompt_the%20car;to-color_red/w_800,h_600/uploads/abc123",
	}
}

func TestSaveLiftsPromptFields(t *testing.T) {
	store := newFakeImageStore()
	svc := NewImageService(store, newFakeImageCache(), metrics.NewNoop())

	id, err := svc.Save(context.Background(), testSaveRequest())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	img := store.images[id]
	if img == nil {
		t.Fatal("image not stored")
	}
	if img.Prompt == nil || *img.Prompt != "the car" {
		t.Errorf("prompt = %v, want \"the car\"", img.Prompt)
	}
	if img.Color == nil || *img.Color != "red" {
		t.Errorf("color = %v, want \"red\"", img.Color)
	}
	if img.AspectRatio != nil {
		t.Errorf("aspect ratio = %v, want nil for recolor", img.AspectRatio)
	}
}

func TestGetBackfillsCache(t *testing.T) {
	store := newFakeImageStore()
	imageCache := newFakeImageCache()
	svc := NewImageService(store, imageCache, metrics.NewNoop())

	id, err := svc.Save(context.Background(), testSaveRequest())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// First read misses the cache and hits the store.
	if _, err := svc.Get(context.Background(), id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if store.gets != 1 {
		t.Errorf("store gets = %d, want 1", store.gets)
	}

	// Second read is served from cache.
	if _, err := svc.Get(context.Background(), id); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if store.gets != 1 {
		t.Errorf("store gets = %d, want cache to absorb the second read", store.gets)
	}
}

func TestGetNegativeCacheShortCircuits(t *testing.T) {
	store := newFakeImageStore()
	imageCache := newFakeImageCache()
	svc := NewImageService(store, imageCache, metrics.NewNoop())

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("Get() error = %v, want ErrImageNotFound", err)
	}
	storeGets := store.gets

	// The repeated miss is answered by the negative cache.
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("second Get() error = %v", err)
	}
	if store.gets != storeGets {
		t.Errorf("store gets = %d, want unchanged %d", store.gets, storeGets)
	}
}

func TestUpdateEnforcesOwnership(t *testing.T) {
	store := newFakeImageStore()
	svc := NewImageService(store, newFakeImageCache(), metrics.NewNoop())

	id, _ := svc.Save(context.Background(), testSaveRequest())

	title := "renamed"
	if _, err := svc.Update(context.Background(), id, "intruder", UpdateImageInput{Title: &title}); !errors.Is(err, ErrNotImageOwner) {
		t.Errorf("Update() error = %v, want ErrNotImageOwner", err)
	}

	updated, err := svc.Update(context.Background(), id, "u1", UpdateImageInput{Title: &title})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("title = %q", updated.Title)
	}
}

func TestUpdateRejectsTypeChange(t *testing.T) {
	store := newFakeImageStore()
	svc := NewImageService(store, newFakeImageCache(), metrics.NewNoop())

	id, _ := svc.Save(context.Background(), testSaveRequest())

	cfg := transform.Config{
		Type:    transform.TypeRestore,
		Restore: &transform.RestoreParams{Restore: true},
	}
	if _, err := svc.Update(context.Background(), id, "u1", UpdateImageInput{Config: &cfg}); !errors.Is(err, transform.ErrTypeMismatch) {
		t.Errorf("Update() error = %v, want ErrTypeMismatch", err)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	store := newFakeImageStore()
	imageCache := newFakeImageCache()
	svc := NewImageService(store, imageCache, metrics.NewNoop())

	id, _ := svc.Save(context.Background(), testSaveRequest())
	if _, err := svc.Get(context.Background(), id); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := imageCache.entries[id]; !ok {
		t.Fatal("image not cached after read")
	}

	title := "renamed"
	if _, err := svc.Update(context.Background(), id, "u1", UpdateImageInput{Title: &title}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, ok := imageCache.entries[id]; ok {
		t.Error("cache entry survived an update")
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	store := newFakeImageStore()
	svc := NewImageService(store, newFakeImageCache(), metrics.NewNoop())

	id, _ := svc.Save(context.Background(), testSaveRequest())

	if err := svc.Delete(context.Background(), id, "intruder"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Delete() error = %v, want ErrImageNotFound", err)
	}
	if err := svc.Delete(context.Background(), id, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}
