package glwindow

import (
	"os"
	"strconv"
	"strings"
)

// scaleEnvVars are consulted in order before any X resource.
var scaleEnvVars = []string{"GTK_SCALE", "GDK_SCALE", "QT_SCALE_FACTOR"}

// commonScales are the factors a measured scale snaps to.
var commonScales = []float64{0.75, 1.0, 1.25, 1.5, 1.75, 2.0, 2.5, 3.0, 4.0}

// envScale returns the first positive scale set in the environment.
func envScale() float64 {
	for _, name := range scaleEnvVars {
		if s := getEnvScale(name); s > 0 {
			return roundScale(s)
		}
	}
	return 0
}

// getEnvScale reads a scale factor from an environment variable
func getEnvScale(envVar string) float64 {
	val := os.Getenv(envVar)
	if val == "" {
		return 0
	}
	scale, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || scale <= 0 {
		return 0
	}
	return scale
}

// parseXftDPI extracts Xft.dpi from an X resource manager string such as
// "Xft.dpi:\t96\n".
func parseXftDPI(rm string) float64 {
	for _, line := range strings.Split(rm, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || dpi <= 0 {
			return 0
		}
		return dpi
	}
	return 0
}

// physicalScale derives a scale from the screen's size in pixels and
// millimeters. Implausible densities are ignored.
func physicalScale(widthPx, widthMM int) float64 {
	if widthPx <= 0 || widthMM <= 0 {
		return 0
	}
	dpi := float64(widthPx) / float64(widthMM) * 25.4
	if dpi < 72 || dpi > 300 {
		return 0
	}
	return roundScale(dpi / 96)
}

// roundScale rounds scale factor to common values to avoid precision issues
func roundScale(scale float64) float64 {
	best, minDiff := 1.0, 1000.0
	for _, cs := range commonScales {
		diff := scale - cs
		if diff < 0 {
			diff = -diff
		}
		if diff < minDiff {
			minDiff, best = diff, cs
		}
	}
	if minDiff < 0.1 {
		return best
	}
	return min(max(scale, 0.5), 4.0)
}
