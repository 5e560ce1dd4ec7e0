package preview

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/webp"
)

// ErrInvalidOutput marks a rendered file that does not decode as the expected
// preview.
var ErrInvalidOutput = errors.New("invalid preview output")

// Validate reads the image header at path and checks its format against the
// configured preview format and its dimensions against the bounds.
// A bound <= 0 is not enforced.
func Validate(path, format string, maxWidth, maxHeight int) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, fmt.Errorf("open preview: %w", err)
	}
	defer f.Close()

	cfg, got, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if want := decoderName(format); want != "" && got != want {
		return cfg, fmt.Errorf("%w: decoded %s, expected %s", ErrInvalidOutput, got, want)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, fmt.Errorf("%w: empty dimensions %dx%d", ErrInvalidOutput, cfg.Width, cfg.Height)
	}
	if (maxWidth > 0 && cfg.Width > maxWidth) || (maxHeight > 0 && cfg.Height > maxHeight) {
		return cfg, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrInvalidOutput, cfg.Width, cfg.Height, maxWidth, maxHeight)
	}
	return cfg, nil
}

func decoderName(format string) string {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return ""
	}
}
