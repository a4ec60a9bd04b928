package images

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AspectRatio represents a camera aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Defines standard and common aspect ratios for surveillance cameras.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio54  AspectRatio = "5:4"
	AspectRatio32  AspectRatio = "3:2"
	AspectRatio179 AspectRatio = "17:9"
)

// Resolution describes a common camera resolution.
type Resolution struct {
	// Alias is the short lookup key, e.g. "1080p".
	Alias string `json:"alias" yaml:"alias"`
	// Name is the display name, e.g. "Full HD 1080p".
	Name        string      `json:"name" yaml:"name"`
	AspectRatio AspectRatio `json:"aspectRatio" yaml:"aspect_ratio"`
	Size        ImageSize   `json:"size" yaml:"size"`
}

// MegaPixels returns the pixel count in millions, rounded to two decimals
// (e.g., 2.07 for 1080p).
func (r Resolution) MegaPixels() float64 {
	if r.Size.Width <= 0 || r.Size.Height <= 0 {
		return 0
	}
	mp := float64(r.Size.Area()) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%v, %.2fMP)", r.Name, r.Size, r.MegaPixels())
}

// resolutions is ordered by area.
var resolutions = []Resolution{
	{Alias: "360p", Name: "nHD", AspectRatio: AspectRatio169, Size: ImageSize{Width: 640, Height: 360}},
	{Alias: "480p", Name: "FWVGA", AspectRatio: AspectRatio169, Size: ImageSize{Width: 854, Height: 480}},
	{Alias: "540p", Name: "qHD 540p", AspectRatio: AspectRatio169, Size: ImageSize{Width: 960, Height: 540}},
	{Alias: "720p", Name: "HD 720p", AspectRatio: AspectRatio169, Size: ImageSize{Width: 1280, Height: 720}},
	{Alias: "768p", Name: "WXGA", AspectRatio: AspectRatio169, Size: ImageSize{Width: 1366, Height: 768}},
	{Alias: "1mp", Name: "1MP (5:4)", AspectRatio: AspectRatio54, Size: ImageSize{Width: 1280, Height: 1024}},
	{Alias: "900p", Name: "HD+", AspectRatio: AspectRatio169, Size: ImageSize{Width: 1600, Height: 900}},
	{Alias: "2mp", Name: "2MP (4:3)", AspectRatio: AspectRatio43, Size: ImageSize{Width: 1600, Height: 1200}},
	{Alias: "1080p", Name: "Full HD 1080p", AspectRatio: AspectRatio169, Size: ImageSize{Width: 1920, Height: 1080}},
	{Alias: "3mp", Name: "3MP (4:3)", AspectRatio: AspectRatio43, Size: ImageSize{Width: 2048, Height: 1536}},
	{Alias: "1440p", Name: "QHD 1440p", AspectRatio: AspectRatio169, Size: ImageSize{Width: 2560, Height: 1440}},
	{Alias: "4mp", Name: "4MP (16:9)", AspectRatio: AspectRatio169, Size: ImageSize{Width: 2688, Height: 1520}},
	{Alias: "qhd+", Name: "QHD+", AspectRatio: AspectRatio179, Size: ImageSize{Width: 3200, Height: 1800}},
	{Alias: "6mp", Name: "6MP (3:2)", AspectRatio: AspectRatio32, Size: ImageSize{Width: 3072, Height: 2048}},
	{Alias: "4k", Name: "4K UHD", AspectRatio: AspectRatio169, Size: ImageSize{Width: 3840, Height: 2160}},
	{Alias: "12mp", Name: "12MP (4:3)", AspectRatio: AspectRatio43, Size: ImageSize{Width: 4000, Height: 3000}},
	{Alias: "5k", Name: "5K", AspectRatio: AspectRatio169, Size: ImageSize{Width: 5120, Height: 2880}},
	{Alias: "8k", Name: "8K UHD", AspectRatio: AspectRatio169, Size: ImageSize{Width: 7680, Height: 4320}},
}

// Resolutions returns all known resolutions, smallest first.
func Resolutions() []Resolution {
	out := make([]Resolution, len(resolutions))
	copy(out, resolutions)
	return out
}

// LookupResolution finds a resolution by alias, case-insensitively.
func LookupResolution(alias string) (Resolution, bool) {
	alias = strings.ToLower(alias)
	for _, r := range resolutions {
		if r.Alias == alias {
			return r, true
		}
	}
	return Resolution{}, false
}

// FitResolution returns the largest resolution that fits within size.
//
// Arguments:
//   - size: The maximum width and height.
//
// Returns:
//   - Resolution: The largest resolution by area not exceeding size in either dimension.
//   - bool: True if a resolution was found, otherwise false.
func FitResolution(size ImageSize) (Resolution, bool) {
	var best Resolution
	var found bool
	for _, r := range resolutions {
		if r.Size.Width <= size.Width && r.Size.Height <= size.Height {
			if !found || r.Size.Area() > best.Size.Area() {
				best, found = r, true
			}
		}
	}
	return best, found
}

// ParseSize parses "WxH" (e.g. "640x480") or a resolution alias (e.g. "720p").
func ParseSize(s string) (ImageSize, error) {
	if r, ok := LookupResolution(s); ok {
		return r.Size, nil
	}

	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return ImageSize{}, fmt.Errorf("%w: %q is neither WxH nor a known resolution", ErrInvalidSize, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return ImageSize{}, fmt.Errorf("%w: width %q", ErrInvalidSize, w)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return ImageSize{}, fmt.Errorf("%w: height %q", ErrInvalidSize, h)
	}

	size := ImageSize{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return ImageSize{}, err
	}
	return size, nil
}
