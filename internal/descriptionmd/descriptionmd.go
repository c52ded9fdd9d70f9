// Package descriptionmd converts a job's raw HTML description into
// Markdown for storage, purely as an additive enrichment over the
// required plain-text description field.
package descriptionmd

import (
	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
)

// Convert renders html as Markdown using hostname as the converter's base
// for resolving relative links. On conversion failure it returns an empty
// string rather than an error, since this enrichment is optional and must
// never fail a detail fetch.
func Convert(hostname, html string) string {
	if html == "" {
		return ""
	}
	converter := htmlmd.NewConverter(hostname, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}
	return markdown
}
