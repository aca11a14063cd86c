// Package render draws room minimaps for the admin surface: one marker glyph
// per visitor, placed by their live position.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"

	"github.com/park285/roomhub/internal/protocol"
	"github.com/park285/roomhub/internal/room"
)

//go:embed assets/marker.svg
var assetFiles embed.FS

const (
	// markerBase is the size the SVG glyph is rasterized at once; per-map
	// markers are scaled down from it.
	markerBase = 64
	minCanvas  = 128
	maxCanvas  = 2048
)

var (
	markerOnce sync.Once
	markerImg  image.Image
	markerErr  error
)

func markerGlyph() (image.Image, error) {
	markerOnce.Do(func() {
		data, err := assetFiles.ReadFile("assets/marker.svg")
		if err != nil {
			markerErr = fmt.Errorf("read marker asset: %w", err)
			return
		}
		icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
		if err != nil {
			markerErr = fmt.Errorf("parse marker svg: %w", err)
			return
		}
		icon.SetTarget(0, 0, markerBase, markerBase)

		img := image.NewRGBA(image.Rect(0, 0, markerBase, markerBase))
		draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
		scanner := rasterx.NewScannerGV(markerBase, markerBase, img, img.Bounds())
		raster := rasterx.NewDasher(markerBase, markerBase, scanner)
		icon.Draw(raster, 1.0)
		markerImg = img
	})
	return markerImg, markerErr
}

// Minimap renders the visitors of one room snapshot onto a square canvas.
// Positions span the full coordinate range of the protocol
// ([-MaxCoord, MaxCoord] on both axes).
func Minimap(visitors []*room.VisitorState, size int) ([]byte, error) {
	if size < minCanvas {
		size = minCanvas
	}
	if size > maxCanvas {
		size = maxCanvas
	}

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.RGBA{R: 0x12, G: 0x14, B: 0x1a, A: 0xff}), image.Point{}, draw.Src)

	glyph, err := markerGlyph()
	if err != nil {
		return nil, err
	}

	markerSize := size / 16
	if markerSize < 8 {
		markerSize = 8
	}
	scaled := image.NewRGBA(image.Rect(0, 0, markerSize, markerSize))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), glyph, glyph.Bounds(), xdraw.Over, nil)

	for _, v := range visitors {
		px, py := mapCoord(v.X, size), mapCoord(v.Y, size)
		target := image.Rect(px-markerSize/2, py-markerSize/2, px+markerSize/2, py+markerSize/2)
		draw.Draw(canvas, target, scaled, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode minimap: %w", err)
	}
	return buf.Bytes(), nil
}

func mapCoord(c float64, size int) int {
	span := float64(protocol.MaxCoord * 2)
	p := int((c + protocol.MaxCoord) / span * float64(size))
	if p < 0 {
		p = 0
	}
	if p >= size {
		p = size - 1
	}
	return p
}
