package http

import (
	"strconv"
	"strings"
)

// acceptRange is one media range of an Accept header.
type acceptRange struct {
	mediaType string
	q         float64
}

type acceptPrefs []acceptRange

// parseAccept parses an Accept header. Malformed q values count as 0 and
// unparseable ranges are skipped.
func parseAccept(header string) acceptPrefs {
	var prefs acceptPrefs
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		mt := strings.ToLower(strings.TrimSpace(fields[0]))
		if mt == "" || !strings.Contains(mt, "/") {
			continue
		}

		q := 1.0
		for _, param := range fields[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || strings.ToLower(strings.TrimSpace(k)) != "q" {
				continue
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || parsed < 0 || parsed > 1 {
				parsed = 0
			}
			q = parsed
		}
		prefs = append(prefs, acceptRange{mediaType: mt, q: q})
	}
	return prefs
}

// quality returns the highest q among ranges accepted by match. Wildcards
// such as */* are not explicit preferences and never match.
func (p acceptPrefs) quality(match func(string) bool) float64 {
	best := 0.0
	for _, r := range p {
		if match(r.mediaType) && r.q > best {
			best = r.q
		}
	}
	return best
}

func (p acceptPrefs) jsonQuality() float64 {
	return p.quality(isJSONMediaType)
}

func (p acceptPrefs) htmlQuality() float64 {
	return p.quality(func(mt string) bool {
		return mt == "text/html" || mt == "application/xhtml+xml"
	})
}

// isJSONMediaType matches application/json and structured +json types.
func isJSONMediaType(mt string) bool {
	return mt == "application/json" || (strings.HasSuffix(mt, "+json") && !strings.HasPrefix(mt, "*/"))
}

// mediaType strips parameters and lower-cases a Content-Type value.
func mediaType(v string) string {
	mt, _, _ := strings.Cut(v, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
