package source

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

const (
	DefaultLogoSize    = 200
	DefaultLogoBaseURL = "https://logo.clearbit.com"
	maxImageBytes      = 10 << 20
)

// LogoDomain turns a company name into the domain label a logo service is
// queried with: lower case, spaces and legal suffixes removed.
func LogoDomain(company string) string {
	name := strings.ToLower(company)
	for _, cut := range []string{" ", "ltd", "pvt", "."} {
		name = strings.ReplaceAll(name, cut, "")
	}
	return name
}

// Fetch downloads and decodes an image. Non-200 responses and non-image
// content types are errors.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("fetch %s: content type %q is not an image", rawURL, mediaType)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return img, nil
}

// LogoResolver finds the logo shown on a deck.
type LogoResolver struct {
	Client  *http.Client
	BaseURL string
	Size    int
	DPI     int
	Logger  *slog.Logger
}

func NewLogoResolver(logger *slog.Logger) *LogoResolver {
	return &LogoResolver{
		Client:  &http.Client{Timeout: 5 * time.Second},
		BaseURL: DefaultLogoBaseURL,
		Size:    DefaultLogoSize,
		DPI:     150,
		Logger:  logger,
	}
}

// Resolve loads ref when it is set: an http(s) URL, a PDF (first page) or an
// image file. Without ref it looks company up on the logo service and
// draws initials when the lookup fails. A nil image means there is nothing
// to show.
func (r *LogoResolver) Resolve(ctx context.Context, ref, company string) (image.Image, error) {
	if ref != "" {
		img, err := r.load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("load logo %s: %w", ref, err)
		}
		return r.square(img), nil
	}
	if strings.TrimSpace(company) == "" {
		return nil, nil
	}

	if domain := LogoDomain(company); domain != "" && r.BaseURL != "" {
		u := strings.TrimRight(r.BaseURL, "/") + "/" + url.PathEscape(domain) + ".com"
		img, err := Fetch(ctx, r.Client, u)
		if err == nil {
			return r.square(img), nil
		}
		r.Logger.Debug("logo lookup failed, drawing initials", "company", company, "error", err)
	}
	return InitialsLogo(company, r.Size)
}

func (r *LogoResolver) load(ctx context.Context, ref string) (image.Image, error) {
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return Fetch(ctx, r.Client, ref)
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, err
	}
	return FirstPage(ref, r.DPI)
}

// square scales img to fit Size x Size, centered on a transparent canvas.
func (r *LogoResolver) square(img image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Size, r.Size))
	b := img.Bounds()
	if b.Empty() {
		return dst
	}
	w, h := r.Size, r.Size
	if b.Dx() > b.Dy() {
		h = r.Size * b.Dy() / b.Dx()
	} else {
		w = r.Size * b.Dx() / b.Dy()
	}
	x, y := (r.Size-w)/2, (r.Size-h)/2
	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), img, b, draw.Over, nil)
	return dst
}
