// Package preprocess turns raw email bodies into the text the user actually wrote.
package preprocess

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"tone_server/core/domain"
)

var (
	htmlTagRe = regexp.MustCompile(`(?i)<(?:html|body|div|p|br|span|table|tr|td|a|b|i|u|strong|em|ul|ol|li|h[1-6]|blockquote|font)\b[^>]*>`)
	quotedRe  = regexp.MustCompile(`(?m)^>.*$`)
	blankRe   = regexp.MustCompile(`\n\s*\n+`)

	forwardBlocks = []*regexp.Regexp{
		regexp.MustCompile(`(?is)-+\s*Forwarded message\s*-+.*?-+\s*End forwarded message\s*-+`),
	}

	replyMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?is)\bOn\s+[^\n]*?,[^\n]*?wrote:`),
		regexp.MustCompile(`(?is)\bOn\s+.*?\bat\s+.*?,\s+.*?wrote:`),
		regexp.MustCompile(`(?is)From:.*?Sent:.*?To:.*?Subject:.*?\n`),
		regexp.MustCompile(`(?is)From:.*?<.*?>.*?Date:.*?Subject:.*?\n`),
		regexp.MustCompile(`(?i)-----\s*Original Message\s*-----`),
		regexp.MustCompile(`(?i)Begin forwarded message:`),
		regexp.MustCompile(`(?is)\bLe\b.*?a écrit :`),
	}

	signatureMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^-- ?\n`),
		regexp.MustCompile(`(?im)^Sent from my .*$`),
		regexp.MustCompile(`(?im)^Best regards,`),
		regexp.MustCompile(`(?im)^Kind regards,`),
		regexp.MustCompile(`(?im)^Sincerely,`),
		regexp.MustCompile(`(?im)^Cheers,`),
		regexp.MustCompile(`(?im)^Thanks,`),
		regexp.MustCompile(`(?im)^Thank you,`),
		regexp.MustCompile(`(?im)^Many thanks,`),
		regexp.MustCompile(`(?im)^Regards,`),
		regexp.MustCompile(`(?im)^Met vriendelijke groet,`),
		regexp.MustCompile(`(?im)^Mit freundlichen Grüßen,`),
	}
)

// Clean strips markup, quoted replies, forwarded content and signatures from raw.
// The result may be empty when nothing user-written remains.
func Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	if htmlTagRe.MatchString(text) {
		text = StripHTML(text)
	}

	text = quotedRe.ReplaceAllString(text, "")
	for _, re := range forwardBlocks {
		text = re.ReplaceAllString(text, "")
	}
	text = cutAtFirst(text, replyMarkers)
	text = cutAtFirst(text, signatureMarkers)

	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// cutAtFirst truncates text at the earliest match of each marker in turn.
func cutAtFirst(text string, markers []*regexp.Regexp) string {
	for _, re := range markers {
		if loc := re.FindStringIndex(text); loc != nil {
			text = text[:loc[0]]
		}
	}
	return text
}

var blockElements = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "ul": true, "ol": true,
}

// StripHTML returns the text content of an HTML document, with line breaks
// at block elements and script/style content dropped.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockElements[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if tag == "p" || tag == "div" || tag == "li" {
				b.WriteByte('\n')
			}
		}
	}
}

// Deduplicate drops emails without an ID and repeats of an ID already seen,
// keeping the first occurrence.
func Deduplicate(emails []domain.EmailInput) []domain.EmailInput {
	seen := make(map[string]struct{}, len(emails))
	out := make([]domain.EmailInput, 0, len(emails))
	for _, e := range emails {
		if e.ID == "" {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
