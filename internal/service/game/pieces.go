package game

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	coregame "github.com/park285/chess-checkers-engine/internal/game"
)

const pieceSVGTemplate = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">
<circle cx="50" cy="54" r="37" fill="%[4]s"/>
<circle cx="50" cy="50" r="37" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<circle cx="50" cy="50" r="27" fill="none" stroke="%[3]s" stroke-width="3"/>
%[5]s
</svg>`

const crownPath = `<path d="M30 60 L30 40 L40 50 L50 35 L60 50 L70 40 L70 60 Z" fill="#e0b22e" stroke="#7a5c00" stroke-width="2"/>`

type pieceStyle struct {
	fill, stroke, ring, shadow string
	ink                        color.Color
}

var (
	whitePieceStyle = pieceStyle{fill: "#f4efe2", stroke: "#6b5a45", ring: "#c9bca4", shadow: "#5a4632", ink: color.NRGBA{R: 40, G: 36, B: 48, A: 255}}
	blackPieceStyle = pieceStyle{fill: "#2c2c36", stroke: "#0e0e12", ring: "#4d4d5c", shadow: "#3b2a1c", ink: color.NRGBA{R: 240, G: 236, B: 226, A: 255}}
)

var chessGlyphs = map[coregame.Kind]string{
	coregame.Pawn:   "P",
	coregame.Knight: "N",
	coregame.Bishop: "B",
	coregame.Rook:   "R",
	coregame.Queen:  "Q",
	coregame.King:   "K",
}

type pieceCacheKey struct {
	piece coregame.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(piece coregame.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	style := whitePieceStyle
	if piece.Side == coregame.Black {
		style = blackPieceStyle
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(pieceSVG(piece, style)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	if glyph, ok := chessGlyphs[piece.Kind]; ok {
		drawGlyph(img, glyph, style.ink)
	}

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}

func pieceSVG(piece coregame.Piece, style pieceStyle) string {
	extra := ""
	if piece.Kind == coregame.CrownedKing {
		extra = crownPath
	}
	return fmt.Sprintf(pieceSVGTemplate, style.fill, style.stroke, style.ring, style.shadow, extra)
}

// drawGlyph draws text with the fixed 7x13 face and scales it up to about
// half the piece height, centred.
func drawGlyph(dst *image.RGBA, glyph string, clr color.Color) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	d := font.Drawer{Face: face}
	w := d.MeasureString(glyph).Ceil()
	h := metrics.Height.Ceil()
	if w <= 0 || h <= 0 {
		return
	}

	small := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Dst = small
	d.Src = image.NewUniform(clr)
	d.Dot = fixed.P(0, metrics.Ascent.Ceil())
	d.DrawString(glyph)

	bounds := dst.Bounds()
	th := bounds.Dy() / 2
	tw := w * th / h
	cx := bounds.Min.X + bounds.Dx()/2
	cy := bounds.Min.Y + bounds.Dy()/2
	target := image.Rect(cx-tw/2, cy-th/2, cx-tw/2+tw, cy-th/2+th)
	xdraw.NearestNeighbor.Scale(dst, target, small, small.Bounds(), xdraw.Over, nil)
}
