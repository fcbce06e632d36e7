package framestore

import(
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/tmo"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// A FrameSource knows where sequences live and how to turn their files into
// pixels. Identifiers are slash separated, relative to the source.
type FrameSource interface {
	Exists(id string) bool
	Enumerate(id string) ([]string, error) // frame paths, in playback order
	Decode(path string) (image.Image, error)
}

var(
	FrameExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".webp", ".hdr"}
	Tonemappers = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}
)

// DirSource reads sequences from numbered files on disk:
// <Root>/<id>/frame0001.png, frame0002.png, ... The first missing number
// ends the sequence.
type DirSource struct {
	Root        string
	Pattern     string   // fmt verb for the frame number, which starts at 1
	Extensions  []string // tried in order against the first frame; the first hit is used for all
	Tonemapper  string   // for .hdr frames
}

func NewDirSource(root string) *DirSource {
	return &DirSource{
		Root:       root,
		Pattern:    "frame%04d",
		Extensions: FrameExtensions,
		Tonemapper: "linear",
	}
}

func (ds *DirSource)dir(id string) string {
	return filepath.Join(ds.Root, filepath.FromSlash(id))
}

func (ds *DirSource)framePath(id string, n int, ext string) string {
	return filepath.Join(ds.dir(id), fmt.Sprintf(ds.Pattern, n) + ext)
}

func (ds *DirSource)Exists(id string) bool {
	fi, err := os.Stat(ds.dir(id))
	return err == nil && fi.IsDir()
}

// Enumerate tries frame 1, 2, ... until a number is missing. A missing
// folder is not an error; it just has no frames.
func (ds *DirSource)Enumerate(id string) ([]string, error) {
	if !ds.Exists(id) {
		return nil, nil
	}

	ext := ""
	for _, e := range ds.Extensions {
		if fileExists(ds.framePath(id, 1, e)) {
			ext = e
			break
		}
	}
	if ext == "" {
		return nil, nil
	}

	paths := []string{}
	for n:=1; ; n++ {
		p := ds.framePath(id, n, ext)
		if !fileExists(p) { break }
		paths = append(paths, p)
	}

	return paths, nil
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

func (ds *DirSource)Decode(filename string) (image.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	var img image.Image

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)

	case ".webp":
		img, err = webp.Decode(reader)

	case ".hdr":
		var m image.Image
		if m, err = rgbe.Decode(reader); err == nil {
			if hdrImg, ok := m.(hdr.Image); !ok {
				err = fmt.Errorf("not an HDR image")
			} else {
				img, err = Tonemap(hdrImg, ds.Tonemapper)
			}
		}

	default:
		img, _, err = image.Decode(reader)
	}

	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %v", filename, err)
	}
	return img, nil
}

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

// Tonemap squashes an HDR frame into displayable range with the named operator.
func Tonemap(img hdr.Image, name string) (image.Image, error) {
	var op tmo.ToneMappingOperator

	switch name {
	case "drago03":
		o := tmo.NewDefaultDrago03(img)
		o.Bias = 1.0
		op = o
	case "durand":
		op = tmo.NewDefaultDurand(img)
	case "icam06":
		op = tmo.NewDefaultICam06(img)
	case "", "linear":
		op = tmo.NewLinear(img)
	case "reinhard05":
		op = tmo.NewDefaultReinhard05(img)
	default:
		return nil, fmt.Errorf("tonemapper %q not recognized, wanted %s", name, ListTonemappers())
	}

	return op.Perform(), nil
}
