package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionProbeTimeout = 2 * time.Second

// CheckMagick reports the ImageMagick binary used to render previews. When the
// binary resolves, its first -version line is recorded as the detail.
func CheckMagick(ctx context.Context, binary string) Status {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "magick"
	}
	result := Check(Requirement{
		Name:        "ImageMagick",
		Command:     binary,
		Description: "Required for preview rendering",
	})
	if !result.Available {
		return result
	}

	versionCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	output, err := exec.CommandContext(versionCtx, result.Command, "-version").Output() //nolint:gosec
	if err != nil {
		return result
	}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if scanner.Scan() {
		result.Detail = strings.TrimSpace(scanner.Text())
	}
	return result
}
