package fetcher

import (
	"regexp"
	"strconv"
)

// DefaultImageWidth is the width used for logos and live-page posters.
const DefaultImageWidth = 320

// SchedulePosterWidth is the width used for programme posters.
const SchedulePosterWidth = 100

// Policy selects how ResizeImage treats the Height parameter.
type Policy int

const (
	// PolicySquare sets Height to the target width.
	PolicySquare Policy = iota
	// PolicyKeepAspect removes Height so the image server keeps the aspect ratio.
	PolicyKeepAspect
	// PolicyExplicit sets Height to a caller supplied value.
	PolicyExplicit
)

var (
	reWidth       = regexp.MustCompile(`Width=\d+`)
	reHeight      = regexp.MustCompile(`Height=\d+`)
	reHeightParam = regexp.MustCompile(`([?&])Height=\d+(&?)`)
)

// ResizeImage rewrites the Width/Height query parameters of a DR image URL.
// height is only used with PolicyExplicit. An empty URL is returned unchanged,
// and URLs without the parameters pass through untouched.
func ResizeImage(raw string, width int, policy Policy, height int) string {
	if raw == "" {
		return raw
	}
	w := strconv.Itoa(width)
	out := reWidth.ReplaceAllString(raw, "Width="+w)

	switch policy {
	case PolicySquare:
		out = reHeight.ReplaceAllString(out, "Height="+w)
	case PolicyKeepAspect:
		// Matches can share a separator, so repeat until none are left.
		for reHeightParam.MatchString(out) {
			out = reHeightParam.ReplaceAllStringFunc(out, dropParam)
		}
	case PolicyExplicit:
		out = reHeight.ReplaceAllString(out, "Height="+strconv.Itoa(height))
	}
	return out
}

// dropParam removes a "?Height=N&", "&Height=N&" or trailing "&Height=N"
// match while keeping the query string well formed.
func dropParam(m string) string {
	if m[len(m)-1] == '&' {
		return m[:1]
	}
	return ""
}

// ResizeSquare forces a width x width crop.
func ResizeSquare(raw string, width int) string {
	return ResizeImage(raw, width, PolicySquare, 0)
}

// ResizeKeepAspect sets the width and drops the height.
func ResizeKeepAspect(raw string, width int) string {
	return ResizeImage(raw, width, PolicyKeepAspect, 0)
}

// ResizeExplicit sets both dimensions.
func ResizeExplicit(raw string, width, height int) string {
	return ResizeImage(raw, width, PolicyExplicit, height)
}
