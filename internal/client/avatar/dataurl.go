package avatar

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"github.com/dmitrijs2005/toolshare/internal/client/models"
)

// DataURL renders data as an inline data URL.
func DataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// placeholder colours, picked by username so a user keeps the same one.
var palette = []string{"#2f855a", "#2b6cb0", "#c05621", "#6b46c1", "#b83280", "#2c7a7b"}

// Placeholder returns an SVG data URL with the user's initials, shown when no
// picture is cached or the fetch failed.
func Placeholder(u *models.User) string {
	key := ""
	if u != nil {
		key = u.Username + u.ID
	}
	var sum int
	for _, r := range key {
		sum += int(r)
	}
	color := palette[sum%len(palette)]

	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="96" height="96" viewBox="0 0 96 96">`)
	fmt.Fprintf(&b, `<rect width="96" height="96" rx="48" fill="%s"/>`, color)
	fmt.Fprintf(&b, `<text x="48" y="58" font-family="sans-serif" font-size="36" fill="#fff" text-anchor="middle">%s</text>`,
		html.EscapeString(u.Initials()))
	b.WriteString(`</svg>`)
	return DataURL("image/svg+xml", []byte(b.String()))
}
