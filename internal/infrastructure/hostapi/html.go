package hostapi

import (
	"html"
	"regexp"
	"strings"
)

// Built-in html2markdown fallback. The converter is an external
// collaborator with a narrow interface; embedders supply a real one via
// Options.HTML2Markdown. This fallback handles the structural tags the
// bundled plugins rely on and strips everything else.

var (
	scriptRe  = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	headingRe = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	linkRe    = regexp.MustCompile(`(?is)<a[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	strongRe  = regexp.MustCompile(`(?is)<(?:b|strong)[^>]*>(.*?)</(?:b|strong)>`)
	emRe      = regexp.MustCompile(`(?is)<(?:i|em)[^>]*>(.*?)</(?:i|em)>`)
	codeRe    = regexp.MustCompile(`(?is)<code[^>]*>(.*?)</code>`)
	itemRe    = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
	breakRe   = regexp.MustCompile(`(?i)<(?:br|/p|/div|/tr)[^>]*>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe   = regexp.MustCompile(`\n{3,}`)
)

func htmlToMarkdown(input string) string {
	out := scriptRe.ReplaceAllString(input, "")
	out = headingRe.ReplaceAllStringFunc(out, func(m string) string {
		parts := headingRe.FindStringSubmatch(m)
		level := int(parts[1][0] - '0')
		return "\n" + strings.Repeat("#", level) + " " + parts[2] + "\n"
	})
	out = linkRe.ReplaceAllString(out, "[$2]($1)")
	out = strongRe.ReplaceAllString(out, "**$1**")
	out = emRe.ReplaceAllString(out, "*$1*")
	out = codeRe.ReplaceAllString(out, "`$1`")
	out = itemRe.ReplaceAllString(out, "\n- $1")
	out = breakRe.ReplaceAllString(out, "\n")
	out = tagRe.ReplaceAllString(out, "")
	out = html.UnescapeString(out)
	out = blankRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
