package selector

import(
	"fmt"

	"github.com/abworrall/temporalmask/pkg/framestore"
)

type Entry struct {
	Layer  int
	Index  int  // before the layer's frame offset is applied
}

// A Table holds the selection for every possible mask value, so compositing
// a pixel is a lookup. It depends only on the frame counts, so it is built
// once whenever a set starts playing.
type Table struct {
	Entries     [256]Entry
	FrameCounts []int
}

func NewTable(frameCounts []int) *Table {
	t := &Table{FrameCounts:frameCounts}
	n := len(frameCounts)
	for m:=0; m<256; m++ {
		layer, _ := Partition(uint8(m), n)
		if n == 0 {
			continue
		}
		t.Entries[m] = Entry{Layer:layer, Index:LayerIndex(uint8(m), n, frameCounts[layer])}
	}
	return t
}

// TableForSet builds the table from a loaded set's buffers.
func TableForSet(set *framestore.Set) (*Table, error) {
	counts := make([]int, len(set.Layers))
	for i, l := range set.Layers {
		fb := l.Buffer()
		if fb == nil {
			return nil, fmt.Errorf("set %s layer %d: %w", set.Path, i, ErrNotLoaded)
		}
		counts[i] = fb.FrameCount
	}
	return NewTable(counts), nil
}

// Frame resolves mask value m to a layer and frame, applying per-layer
// offsets and the reverse flag.
func (t *Table)Frame(m uint8, offsets []int, reverse bool) (layer, frame int) {
	e := t.Entries[m]
	off := 0
	if e.Layer < len(offsets) {
		off = offsets[e.Layer]
	}
	return e.Layer, finish(e.Index, t.FrameCounts[e.Layer], off, reverse)
}
