package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func sample() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 2, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	return img
}

func TestDecodePNG(t *testing.T) {
	data, err := EncodePNG(sample())
	if err != nil {
		t.Fatal(err)
	}
	img, err := DecodeBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(1, 2); got != (color.RGBA{R: 200, G: 10, B: 30, A: 255}) {
		t.Fatalf("pixel = %v", got)
	}
}

func TestDecodeGIF(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	pal.SetColorIndex(1, 1, 1)
	var buf bytes.Buffer
	if err := gif.Encode(&buf, pal, nil); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("pixel = %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not an image"))); !errors.Is(err, ErrDecode) {
		t.Fatalf("garbage: %v", err)
	}
	_, err := DecodeBytes(nil)
	if !errors.Is(err, ErrDecode) || !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
}

func TestDecodeFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	data, _ := EncodePNG(sample())
	if err := WriteFile(path, data, io.Discard); err != nil {
		t.Fatal(err)
	}
	img, err := DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestWriteFileStdout(t *testing.T) {
	var out bytes.Buffer
	if err := WriteFile("-", []byte{1, 2, 3}, &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), []byte{1, 2, 3}) {
		t.Fatalf("stdout got %v", out.Bytes())
	}
}

func TestToRGBAMovesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.Set(5, 5, color.NRGBA{G: 255, A: 255})
	out := ToRGBA(src)
	if out.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got.G != 255 {
		t.Fatalf("pixel = %v", got)
	}
}

func TestIsSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.PNG": true, "b.jpeg": true, "c.webp": true, "d.tif": true, "e.txt": false, "f": false,
	} {
		if got := IsSupported(path); got != want {
			t.Errorf("IsSupported(%q) = %v", path, got)
		}
	}
}

// gatedReader blocks its first Read until gate is closed.
type gatedReader struct {
	gate chan struct{}
	r    io.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	<-g.gate
	return g.r.Read(p)
}

func TestLoaderDropsStaleResults(t *testing.T) {
	data, _ := EncodePNG(sample())
	var l Loader
	var mu sync.Mutex
	var got []Result

	gate := make(chan struct{})
	first := l.Start(&gatedReader{gate: gate, r: bytes.NewReader(data)}, func(r Result) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	})
	second := l.Start(bytes.NewReader(data), func(r Result) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	})
	close(gate)
	l.Wait()

	if l.IsCurrent(first) || !l.IsCurrent(second) {
		t.Fatalf("generations: first=%d second=%d", first, second)
	}
	if len(got) != 1 || got[0].Gen != second || got[0].Err != nil {
		t.Fatalf("expected only the second load, got %+v", got)
	}
}

func TestLoaderReportsDecodeErrors(t *testing.T) {
	var l Loader
	var res Result
	l.Start(bytes.NewReader([]byte("junk")), func(r Result) { res = r })
	l.Wait()
	if !errors.Is(res.Err, ErrDecode) {
		t.Fatalf("err = %v", res.Err)
	}
}

func TestLoaderCancel(t *testing.T) {
	data, _ := EncodePNG(sample())
	var l Loader
	gate := make(chan struct{})
	called := false
	l.Start(&gatedReader{gate: gate, r: bytes.NewReader(data)}, func(Result) { called = true })
	l.Cancel()
	close(gate)
	l.Wait()
	if called {
		t.Fatal("cancelled load was delivered")
	}
}
