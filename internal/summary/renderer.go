package summary

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/geodesk/atlasfx/internal/config"
	countrydomain "github.com/geodesk/atlasfx/internal/country/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	imageWidth  = 800
	imageHeight = 600
	fileName    = "summary.png"
)

var (
	colorBackground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	colorPrimary    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorAccent     = color.RGBA{R: 0x16, G: 0xc7, B: 0x9a, A: 0xff}
	colorMuted      = color.RGBA{R: 0xa8, G: 0xa8, B: 0xa8, A: 0xff}
)

// Renderer produces the summary image artifact. The file is a derived
// cache keyed by a fixed path, overwritten on every successful refresh.
type Renderer interface {
	Render(total int64, top []countrydomain.Country, at time.Time) error
	ImagePath() string
}

type pngRenderer struct {
	conf func() config.EstimatorConfig
	log  *zap.Logger
}

type Params struct {
	fx.In

	Holder *config.EstimatorConfigHolder
	Log    *zap.Logger
}

func New(p Params) Renderer {
	return NewRenderer(p.Holder.Get, p.Log)
}

func NewRenderer(conf func() config.EstimatorConfig, log *zap.Logger) Renderer {
	return &pngRenderer{conf: conf, log: log.Named("summary")}
}

var Module = fx.Module("summary",
	fx.Provide(New),
)

func (r *pngRenderer) ImagePath() string {
	return filepath.Join(r.conf().CacheDir, fileName)
}

func (r *pngRenderer) Render(total int64, top []countrydomain.Country, at time.Time) error {
	cacheDir := r.conf().CacheDir
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	fill(img, colorBackground)

	drawText(img, 50, 60, colorPrimary, "Country Data Summary")
	drawText(img, 50, 120, colorAccent, fmt.Sprintf("Total Countries: %d", total))
	drawText(img, 50, 155, colorMuted, "Last Updated: "+at.UTC().Format(time.RFC1123))
	drawText(img, 50, 210, colorPrimary, fmt.Sprintf("Top %d Countries by Estimated GDP", len(top)))

	y := 250
	for i, country := range top {
		drawText(img, 70, y, colorPrimary, fmt.Sprintf("%d. %s", i+1, country.Name))

		gdp := "N/A"
		if country.EstimatedGDP != nil {
			gdp = fmt.Sprintf("$%.2f", *country.EstimatedGDP)
		}
		drawText(img, 70, y+25, colorAccent, gdp)

		currency := "N/A"
		if country.CurrencyCode != nil {
			currency = *country.CurrencyCode
		}
		drawText(img, 70, y+45, colorMuted, "Currency: "+currency)

		y += 80
	}

	path := filepath.Join(cacheDir, fileName)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode summary image: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Rename keeps readers away from half-written files.
	if err := os.Rename(tmp, path); err != nil {
		return err
	}

	r.log.Info("summary image generated",
		zap.String("path", path),
		zap.Int64("total_countries", total),
		zap.Int("top_n", len(top)),
	)
	return nil
}

func fill(img *image.RGBA, col color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawText(img *image.RGBA, x, y int, col color.Color, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
