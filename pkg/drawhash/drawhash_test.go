package drawhash

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestCanonicalEntryBytes(t *testing.T) {
	t.Run("orders ticket numbers ascending", func(t *testing.T) {
		got := string(CanonicalEntryBytes([]int{30, 1, 22}))
		want := "1\n22\n30"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("no trailing newline", func(t *testing.T) {
		got := CanonicalEntryBytes([]int{5})
		if string(got) != "5" {
			t.Errorf("expected %q, got %q", "5", string(got))
		}
	})

	t.Run("empty set serializes to empty bytes", func(t *testing.T) {
		if got := CanonicalEntryBytes(nil); len(got) != 0 {
			t.Errorf("expected empty bytes, got %q", string(got))
		}
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		in := []int{3, 1, 2}
		CanonicalEntryBytes(in)
		if in[0] != 3 || in[1] != 1 || in[2] != 2 {
			t.Errorf("input slice was reordered: %v", in)
		}
	})
}

func TestEntryHash(t *testing.T) {
	t.Run("matches direct sha256 of canonical bytes", func(t *testing.T) {
		sum := sha256.Sum256([]byte("1\n2\n3"))
		want := hex.EncodeToString(sum[:])
		if got := EntryHash([]int{2, 3, 1}); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("order of input does not matter", func(t *testing.T) {
		a := EntryHash([]int{1, 2, 3})
		b := EntryHash([]int{3, 2, 1})
		if a != b {
			t.Errorf("hashes differ for same set: %s vs %s", a, b)
		}
	})

	t.Run("changing one entry changes the hash", func(t *testing.T) {
		a := EntryHash([]int{1, 2, 3})
		b := EntryHash([]int{1, 2, 4})
		if a == b {
			t.Error("expected different hashes for different entry sets")
		}
	})
}

func TestWinnerIndex(t *testing.T) {
	t.Run("always within bounds", func(t *testing.T) {
		seeds := [][]byte{
			[]byte("seed-a"),
			[]byte("seed-b"),
			{0x00},
			{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		}
		for _, total := range []int{1, 2, 7, 1000} {
			for _, seed := range seeds {
				idx, err := WinnerIndex(seed, total)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if idx < 0 || idx >= total {
					t.Errorf("index %d out of bounds for total %d", idx, total)
				}
			}
		}
	})

	t.Run("deterministic for same seed", func(t *testing.T) {
		a, _ := WinnerIndex([]byte("fixed"), 1000)
		b, _ := WinnerIndex([]byte("fixed"), 1000)
		if a != b {
			t.Errorf("expected deterministic index, got %d and %d", a, b)
		}
	})

	t.Run("empty entry set is an error", func(t *testing.T) {
		if _, err := WinnerIndex([]byte("seed"), 0); err != ErrNoEntries {
			t.Errorf("expected ErrNoEntries, got %v", err)
		}
	})
}

func TestVerificationHash(t *testing.T) {
	entryHash := EntryHash([]int{1, 2, 3})
	seedHex := hex.EncodeToString([]byte("some-seed"))

	t.Run("round trip reproduces exactly", func(t *testing.T) {
		a := VerificationHash(entryHash, seedHex, 417)
		b := VerificationHash(entryHash, seedHex, 417)
		if a != b {
			t.Errorf("expected identical hashes, got %s and %s", a, b)
		}
	})

	t.Run("mutating any input changes the hash", func(t *testing.T) {
		base := VerificationHash(entryHash, seedHex, 417)

		cases := map[string]string{
			"entry hash":   VerificationHash(EntryHash([]int{1, 2, 4}), seedHex, 417),
			"seed":         VerificationHash(entryHash, hex.EncodeToString([]byte("other-seed")), 417),
			"winner index": VerificationHash(entryHash, seedHex, 418),
		}
		for name, mutated := range cases {
			if mutated == base {
				t.Errorf("mutating %s did not change the verification hash", name)
			}
		}
	})

	t.Run("matches documented payload format", func(t *testing.T) {
		sum := sha256.Sum256([]byte(entryHash + ":" + seedHex + ":417"))
		want := hex.EncodeToString(sum[:])
		if got := VerificationHash(entryHash, seedHex, 417); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}
