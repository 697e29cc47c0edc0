package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/database/mock"
	"github.com/facetrace/facetrace/internal/facematch"
	"github.com/facetrace/facetrace/internal/imaging"
)

// fakeDetector returns canned detections keyed by image bytes, or a
// fixed set when only Faces is set.
type fakeDetector struct {
	Faces   []facematch.DetectedFace
	ByImage map[string][]facematch.DetectedFace
	Err     error
}

func (f *fakeDetector) DetectFaces(ctx context.Context, imageData []byte) ([]facematch.DetectedFace, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.ByImage != nil {
		return f.ByImage[string(imageData)], nil
	}
	return f.Faces, nil
}

func testImage(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func rawEmbedding(axis int, scale float32) []float32 {
	emb := make([]float32, 512)
	emb[axis] = scale
	return emb
}

func TestEmbedFace(t *testing.T) {
	imgData := testImage(t, color.White)

	t.Run("SingleFace", func(t *testing.T) {
		det := &fakeDetector{Faces: []facematch.DetectedFace{
			{BBox: []float64{0, 0, 10, 10}, Embedding: rawEmbedding(0, 3), DetScore: 0.9},
		}}
		p := New(det, 512)

		emb, err := p.EmbedFace(context.Background(), imgData)
		if err != nil {
			t.Fatalf("EmbedFace failed: %v", err)
		}
		if len(emb) != 512 {
			t.Fatalf("expected 512 dimensions, got %d", len(emb))
		}
		// normalized, so the raw scale of 3 must collapse to 1
		if emb[0] < 0.999 || emb[0] > 1.001 {
			t.Errorf("expected unit component, got %f", emb[0])
		}
	})

	t.Run("LargestFaceWins", func(t *testing.T) {
		det := &fakeDetector{Faces: []facematch.DetectedFace{
			{BBox: []float64{0, 0, 5, 5}, Embedding: rawEmbedding(1, 1), DetScore: 0.99},
			{BBox: []float64{0, 0, 50, 50}, Embedding: rawEmbedding(2, 1), DetScore: 0.5},
		}}
		p := New(det, 512)

		emb, err := p.EmbedFace(context.Background(), imgData)
		if err != nil {
			t.Fatalf("EmbedFace failed: %v", err)
		}
		if emb[2] == 0 {
			t.Error("expected the larger face's embedding to be selected")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		det := &fakeDetector{Faces: []facematch.DetectedFace{
			{BBox: []float64{0, 0, 10, 10}, Embedding: rawEmbedding(0, 2), DetScore: 0.9},
		}}
		p := New(det, 512)

		first, err := p.EmbedFace(context.Background(), imgData)
		if err != nil {
			t.Fatalf("EmbedFace failed: %v", err)
		}
		second, err := p.EmbedFace(context.Background(), imgData)
		if err != nil {
			t.Fatalf("EmbedFace failed: %v", err)
		}
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("embedding differs at %d: %f vs %f", i, first[i], second[i])
			}
		}
	})

	t.Run("UndecodableImage", func(t *testing.T) {
		det := &fakeDetector{}
		p := New(det, 512)

		_, err := p.EmbedFace(context.Background(), []byte("not an image"))
		if !errors.Is(err, imaging.ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
	})

	t.Run("NoFace", func(t *testing.T) {
		det := &fakeDetector{Faces: nil}
		p := New(det, 512)

		_, err := p.EmbedFace(context.Background(), imgData)
		if !errors.Is(err, facematch.ErrNoFace) {
			t.Errorf("expected ErrNoFace, got %v", err)
		}
	})

	t.Run("DetectorFailure", func(t *testing.T) {
		det := &fakeDetector{Err: fmt.Errorf("service unavailable")}
		p := New(det, 512)

		_, err := p.EmbedFace(context.Background(), imgData)
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, imaging.ErrDecode) || errors.Is(err, facematch.ErrNoFace) {
			t.Errorf("detector failure must not map to a client error, got %v", err)
		}
	})

	t.Run("DegenerateEmbedding", func(t *testing.T) {
		det := &fakeDetector{Faces: []facematch.DetectedFace{
			{BBox: []float64{0, 0, 10, 10}, Embedding: make([]float32, 512), DetScore: 0.9},
		}}
		p := New(det, 512)

		_, err := p.EmbedFace(context.Background(), imgData)
		if !errors.Is(err, facematch.ErrDegenerateVector) {
			t.Errorf("expected ErrDegenerateVector, got %v", err)
		}
	})
}

// Registering two people and searching with one of their photos must
// rank that person first.
func TestRegisterThenSearch(t *testing.T) {
	ctx := context.Background()

	imgA := testImage(t, color.White)
	imgB := testImage(t, color.Black)

	// distinct but slightly correlated embeddings
	embA := rawEmbedding(0, 1)
	embB := rawEmbedding(0, 0.2)
	embB[1] = 1

	det := &fakeDetector{ByImage: map[string][]facematch.DetectedFace{
		string(imgA): {{BBox: []float64{0, 0, 10, 10}, Embedding: embA, DetScore: 0.9}},
		string(imgB): {{BBox: []float64{0, 0, 10, 10}, Embedding: embB, DetScore: 0.9}},
	}}
	p := New(det, 512)
	catalog := mock.NewMockCatalog()

	for _, reg := range []struct {
		userID string
		img    []byte
	}{
		{"person-a", imgA},
		{"person-b", imgB},
	} {
		emb, err := p.EmbedFace(ctx, reg.img)
		if err != nil {
			t.Fatalf("EmbedFace for %s failed: %v", reg.userID, err)
		}
		err = catalog.UpsertIdentity(ctx, database.IdentityRecord{
			UserID:    reg.userID,
			Embedding: emb,
			Dim:       512,
		})
		if err != nil {
			t.Fatalf("UpsertIdentity for %s failed: %v", reg.userID, err)
		}
	}

	query, err := p.EmbedFace(ctx, imgA)
	if err != nil {
		t.Fatalf("EmbedFace for query failed: %v", err)
	}

	matches, err := catalog.Rank(ctx, query, 5)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].UserID != "person-a" {
		t.Errorf("expected 'person-a' first, got '%s'", matches[0].UserID)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("expected strictly higher score for the registered face: %f vs %f",
			matches[0].Score, matches[1].Score)
	}
	if matches[0].Score < 0.999 {
		t.Errorf("expected near-perfect self similarity, got %f", matches[0].Score)
	}
}
