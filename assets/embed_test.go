package assets

import "testing"

func TestCapDecodesOnceAndShares(t *testing.T) {
	a, err := Cap()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Cap()
	if a != b {
		t.Fatal("Cap should return the same shared image")
	}
	if r := a.Bounds(); r.Dx() <= 0 || r.Dy() <= 0 {
		t.Fatalf("empty cap image: %v", r)
	}
}

func TestCapPNGIsACopy(t *testing.T) {
	data := CapPNG()
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatal("embedded data is not a PNG")
	}
	data[0] = 0
	if CapPNG()[0] == 0 {
		t.Fatal("CapPNG exposed the embedded buffer")
	}
}
