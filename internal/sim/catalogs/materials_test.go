package catalogs

import "testing"

func TestTextureIndex(t *testing.T) {
	if got := TextureIndex(Moss); got != [3]uint32{0, 2, 1} {
		t.Fatalf("moss: got %v", got)
	}
	if got := TextureIndex(Stone); got != [3]uint32{1, 1, 1} {
		t.Fatalf("stone: got %v", got)
	}
	if got := TextureIndex(Water); got != [3]uint32{3, 3, 3} {
		t.Fatalf("water: got %v", got)
	}
	// Materials added later render with the fallback layers.
	for _, m := range []uint8{3, 17, 255} {
		if got := TextureIndex(m); got != [3]uint32{3, 3, 3} {
			t.Fatalf("material %d: got %v", m, got)
		}
	}
}

func TestMaterialsPalette(t *testing.T) {
	if Materials.Index["STONE"] != Stone || Materials.Name(Moss) != "MOSS" {
		t.Fatalf("unexpected palette: %+v", Materials.Index)
	}
	if Materials.Name(200) != "" {
		t.Fatalf("expected empty name outside palette")
	}
	if len(Materials.Digest) != 64 {
		t.Fatalf("digest: %q", Materials.Digest)
	}
	if Materials.Digest != buildMaterials([]string{"MOSS", "STONE", "WATER"}).Digest {
		t.Fatalf("digest not stable")
	}
}
