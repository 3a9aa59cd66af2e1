package grouper

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/listing-builder/internal/fingerprint"
	"github.com/kozaktomas/listing-builder/internal/grouping"
)

func TestGroupPhotosByItemTwoItems(t *testing.T) {
	// Three photos of one item (bright-left gradients) and two of another
	// (bright-right gradients). Gradient direction flips every dHash bit, so
	// the two items are far apart while each item's photos are near-identical.
	dir := t.TempDir()
	paths := []string{
		writeGradient(t, dir, "item1-a.jpg", true, 0),
		writeGradient(t, dir, "item1-b.jpg", true, 10),
		writeGradient(t, dir, "item1-c.jpg", true, 20),
		writeGradient(t, dir, "item2-a.jpg", false, 0),
		writeGradient(t, dir, "item2-b.jpg", false, 10),
	}

	result, err := GroupPhotosByItem(context.Background(), paths, Options{
		Strategy:  grouping.StrategyGreedy,
		Threshold: 0.7,
	})
	if err != nil {
		t.Fatalf("GroupPhotosByItem failed: %v", err)
	}

	if len(result.Skipped) != 0 {
		t.Fatalf("no photos should be skipped, got %v", result.Skipped)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	if len(result.Groups[0].Photos) != 3 || len(result.Groups[1].Photos) != 2 {
		t.Errorf("expected group sizes 3 and 2, got %d and %d",
			len(result.Groups[0].Photos), len(result.Groups[1].Photos))
	}
	if err := grouping.ValidatePartition(result.Groups, paths); err != nil {
		t.Errorf("result is not a partition of the batch: %v", err)
	}
}

func TestGroupPhotosByItemSkipsUnreadablePhotos(t *testing.T) {
	dir := t.TempDir()
	good := writeGradient(t, dir, "good.jpg", true, 0)
	missing := filepath.Join(dir, "missing.jpg")
	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("writing garbage file: %v", err)
	}

	result, err := GroupPhotosByItem(context.Background(), []string{good, missing, garbage}, Options{
		Strategy:  grouping.StrategyGreedy,
		Threshold: 0.75,
	})
	if err != nil {
		t.Fatalf("decode failures must not be batch-fatal: %v", err)
	}

	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 group from the readable photo, got %d", len(result.Groups))
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("expected 2 skipped photos, got %d", len(result.Skipped))
	}
	for _, s := range result.Skipped {
		var readErr *fingerprint.ImageReadError
		if !errors.As(s.Err, &readErr) {
			t.Errorf("skipped photo %s should carry *ImageReadError, got %v", s.Path, s.Err)
		}
	}
}

func TestGroupPhotosByItemEmptyBatch(t *testing.T) {
	result, err := GroupPhotosByItem(context.Background(), nil, Options{Threshold: 0.75})
	if err != nil {
		t.Fatalf("GroupPhotosByItem failed: %v", err)
	}
	if len(result.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(result.Groups))
	}
}

func TestGroupPhotosByItemInvalidThreshold(t *testing.T) {
	dir := t.TempDir()
	path := writeGradient(t, dir, "a.jpg", true, 0)

	_, err := GroupPhotosByItem(context.Background(), []string{path}, Options{Threshold: 1.5})
	if !errors.Is(err, grouping.ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestGroupPhotosByItemCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	path := writeGradient(t, dir, "a.jpg", true, 0)

	_, err := GroupPhotosByItem(ctx, []string{path}, Options{Threshold: 0.75})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// writeGradient writes a horizontal gradient JPEG. brightLeft controls the
// gradient direction; offset shifts overall brightness without changing the
// left/right intensity relation, simulating exposure differences between
// photos of the same item.
func writeGradient(t *testing.T, dir, name string, brightLeft bool, offset int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for x := 0; x < 100; x++ {
		v := x * 200 / 100
		if brightLeft {
			v = 200 - v
		}
		v += offset
		gray := uint8(min(v, 255))
		for y := 0; y < 80; y++ {
			img.Set(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
	return path
}
