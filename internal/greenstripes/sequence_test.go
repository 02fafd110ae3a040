package greenstripes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroSequence(t *testing.T) {
	var seq Sequence[string]
	assert.Equal(t, 0, seq.Len())
	assert.Empty(t, seq.Slice())
	_, ok := seq.At(0)
	assert.False(t, ok)
	for range seq.All() {
		t.Fatal("zero sequence yielded an element")
	}
}

func TestSequenceFollowsOwner(t *testing.T) {
	items := []string{"a", "b"}
	seq := sequenceOf(&items)
	assertSequence(t, seq)

	items = append(items, "c")
	assert.Equal(t, 3, seq.Len())
	v, ok := seq.At(2)
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	slice := seq.Slice()
	slice[0] = "changed"
	first, _ := seq.At(0)
	assert.Equal(t, "a", first, "Slice returns a copy")
}

func TestSequenceAllStopsEarly(t *testing.T) {
	items := []int{1, 2, 3, 4}
	seq := sequenceOf(&items)

	var seen []int
	for _, v := range seq.All() {
		seen = append(seen, v)
		if v == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, seen)
}
