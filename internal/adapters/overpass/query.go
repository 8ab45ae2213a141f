package overpass

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/citydiscover/internal/core/domain"
)

// selectors lists the tag filters requested for every viewport.
var selectors = []string{
	`["amenity"~"^(cafe|restaurant|fast_food|bar|pub|ice_cream|bank|pharmacy|post_office|theatre|cinema|arts_centre)$"]`,
	`["shop"]`,
	`["tourism"~"^(museum|gallery|attraction)$"]`,
	`["leisure"~"^(park|garden)$"]`,
	`["historic"]`,
}

// BuildQuery renders an Overpass QL query for named features inside box.
// Ways and relations are returned with a computed center.
func BuildQuery(box domain.BoundingBox, serverTimeoutSeconds int) string {
	bbox := strings.Join([]string{
		formatCoord(box.South), formatCoord(box.West),
		formatCoord(box.North), formatCoord(box.East),
	}, ",")

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", serverTimeoutSeconds)
	for _, sel := range selectors {
		fmt.Fprintf(&b, "  nwr%s[\"name\"](%s);\n", sel, bbox)
	}
	b.WriteString(");\nout center tags;\n")
	return b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
