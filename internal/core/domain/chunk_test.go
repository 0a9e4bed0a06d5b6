package domain

import "testing"

func TestDocIDDeterministic(t *testing.T) {
	if DocID("talk.txt", 3) != DocID("talk.txt", 3) {
		t.Fatal("same source and index must yield the same id")
	}
}

func TestDocIDDistinguishesSourceAndIndex(t *testing.T) {
	ids := map[int64]string{}
	for _, source := range []string{"a.txt", "b.txt"} {
		for index := 0; index < 50; index++ {
			id := DocID(source, index)
			if prev, ok := ids[id]; ok {
				t.Fatalf("collision between %q/%d and %s", source, index, prev)
			}
			ids[id] = source
		}
	}
}

func TestDocIDFitsSixtyBits(t *testing.T) {
	for index := 0; index < 100; index++ {
		id := DocID("source.txt", index)
		if id < 0 {
			t.Fatalf("id must be positive, got %d", id)
		}
		if id >= 1<<60 {
			t.Fatalf("id exceeds 60 bits: %d", id)
		}
	}
}
