package framestore

import(
	"fmt"
	"image"
	"log"
	"path"
)

func setID(n int) string   { return fmt.Sprintf("set%02d", n) }
func layerID(n int) string { return fmt.Sprintf("layer%02d", n) }

// DiscoverSets walks set01, set02, ... under the source until one is
// missing, and within each set layer01, layer02, ... the same way. It only
// counts frames; nothing is decoded.
func DiscoverSets(src FrameSource) ([]*Set, error) {
	sets := []*Set{}

	for n:=1; src.Exists(setID(n)); n++ {
		s := &Set{Index:n-1, Path:setID(n)}

		for m:=1; ; m++ {
			id := path.Join(s.Path, layerID(m))
			if !src.Exists(id) { break }

			l, err := newLayer(src, id, m-1)
			if err != nil {
				return nil, err
			}
			s.Layers = append(s.Layers, l)
		}

		sets = append(sets, s)
	}

	log.Printf("Found %d sets\n", len(sets))
	return sets, nil
}

// SingleSet wraps one sequence as a one-layer set.
func SingleSet(src FrameSource, id string) (*Set, error) {
	l, err := newLayer(src, id, 0)
	if err != nil {
		return nil, err
	}
	return &Set{Path:id, Layers:[]*Layer{l}}, nil
}

func newLayer(src FrameSource, id string, idx int) (*Layer, error) {
	paths, err := src.Enumerate(id)
	if err != nil {
		return nil, fmt.Errorf("enumerate '%s': %v", id, err)
	}
	return &Layer{Index:idx, Path:id, FrameCount:len(paths)}, nil
}

// FrameSize decodes the first frame it can find among the sets.
func FrameSize(src FrameSource, sets []*Set) (image.Point, error) {
	for _, s := range sets {
		for _, l := range s.Layers {
			paths, err := src.Enumerate(l.Path)
			if err != nil || len(paths) == 0 { continue }
			img, err := src.Decode(paths[0])
			if err != nil {
				return image.Point{}, err
			}
			return img.Bounds().Size(), nil
		}
	}
	return image.Point{}, ErrNoFrames
}

// EstimateBytes is the memory every set would need if all were loaded at once,
// and the largest single set, which is what a Store needs room for (twice
// over, while the next set loads alongside the current one).
func EstimateBytes(src FrameSource, sets []*Set) (total, largest int64, err error) {
	size, err := FrameSize(src, sets)
	if err != nil {
		return 0, 0, err
	}
	for _, s := range sets {
		n := s.Bytes(size.X, size.Y)
		total += n
		if n > largest { largest = n }
	}
	return total, largest, nil
}
