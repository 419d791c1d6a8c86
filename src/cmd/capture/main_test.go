package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"screen-capture-ocr/src/pixelformat"
	"screen-capture-ocr/src/screenshot"
)

func TestParseRect(t *testing.T) {
	r, err := parseRect("10, 20,300,40")
	if err != nil {
		t.Fatalf("parseRect: %v", err)
	}
	if want := (screenshot.Region{X: 10, Y: 20, Width: 300, Height: 40}); r != want {
		t.Fatalf("got %+v, want %+v", r, want)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,0,5", "0,0,5,-1"} {
		if _, err := parseRect(bad); err == nil {
			t.Errorf("parseRect(%q) succeeded", bad)
		}
	}
	if _, err := parseRect("0,0,0,5"); !errors.Is(err, screenshot.ErrInvalidDimensions) {
		t.Errorf("zero width should wrap ErrInvalidDimensions, got %v", err)
	}
}

func testImage(t *testing.T) *pixelformat.CanonicalImage {
	t.Helper()
	img, err := pixelformat.NewCanonicalImage(2, 1, []byte{30, 20, 10, 60, 50, 40})
	if err != nil {
		t.Fatalf("NewCanonicalImage: %v", err)
	}
	return img
}

func TestWriteImageFormats(t *testing.T) {
	dir := t.TempDir()
	img := testImage(t)

	pngPath := filepath.Join(dir, "out.png")
	if err := writeImage(pngPath, img); err != nil {
		t.Fatalf("write png: %v", err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if r, _, _, _ := decoded.At(1, 0).RGBA(); r>>8 != 60 {
		t.Errorf("png red at (1,0) = %d, want 60", r>>8)
	}

	bmpPath := filepath.Join(dir, "out.BMP")
	if err := writeImage(bmpPath, img); err != nil {
		t.Fatalf("write bmp: %v", err)
	}
	f, err = os.Open(bmpPath)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err = bmp.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode bmp: %v", err)
	}
	if _, _, b, _ := decoded.At(0, 0).RGBA(); b>>8 != 10 {
		t.Errorf("bmp blue at (0,0) = %d, want 10", b>>8)
	}

	if err := writeImage(filepath.Join(dir, "out.jpg"), img); err == nil {
		t.Error("expected an error for .jpg")
	}
}

func TestOutputResult(t *testing.T) {
	res := Result{Text: "hello", Engine: "llm", Region: screenshot.Region{Width: 5, Height: 6}, CharCount: 5}

	var plain bytes.Buffer
	if err := outputResult(&plain, res, false); err != nil {
		t.Fatal(err)
	}
	if plain.String() != "hello" {
		t.Fatalf("plain output = %q", plain.String())
	}

	var out bytes.Buffer
	if err := outputResult(&out, res, true); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["text"] != "hello" || decoded["character_count"].(float64) != 5 {
		t.Fatalf("unexpected JSON %s", out.String())
	}
}

func TestRunRequiresAnAction(t *testing.T) {
	err := runWithArgs([]string{"capture", "--rect", "0,0,10,10"})
	if err == nil || !strings.Contains(err.Error(), "nothing to do") {
		t.Fatalf("err = %v, want nothing-to-do error", err)
	}
}
