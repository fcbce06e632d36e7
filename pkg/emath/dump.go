package emath

import(
	"image"
	"image/color"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
	"github.com/lucasb-eyer/go-colorful"
)

var(
	// Heat map endpoints for mask dumps: no presence is deep blue, full presence is hot yellow
	coldColor = colorful.Hsv(240.0, 0.9, 0.25)
	hotColor  = colorful.Hsv(55.0, 0.9, 1.0)
)

// HeatMap renders a grey grid as false color, so faint decay tails that
// are invisible in plain grey are easy to see.
func HeatMap(g *image.Gray) *image.RGBA {
	w, h := GraySize(g)
	palette := [256]color.RGBA{}
	for i:=0; i<256; i++ {
		r, gr, b := coldColor.BlendHcl(hotColor, float64(i)/255.0).Clamped().RGB255()
		palette[i] = color.RGBA{r, gr, b, 0xff}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y:=0; y<h; y++ {
		for x:=0; x<w; x++ {
			img.SetRGBA(x, y, palette[g.Pix[y*g.Stride+x]])
		}
	}
	return img
}

// DumpGray saves a heat map of the grid, with a title written over it.
func DumpGray(g *image.Gray, title, filename string) error {
	dc := gg.NewContextForImage(HeatMap(g))
	dc.SetRGB(1,1,1)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}
