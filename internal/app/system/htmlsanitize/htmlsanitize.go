// Package htmlsanitize cleans HTML that the service renders itself, such as
// outgoing email bodies. Stored user text is never passed through here;
// it is kept exactly as sent and escaped by whoever renders it.
package htmlsanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	mailOnce sync.Once
	mail     *bluemonday.Policy
)

// mailPolicy allows the table layout and inline styles used by the email
// templates. Scripts, event handlers and non-http links are removed.
func mailPolicy() *bluemonday.Policy {
	mailOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("html", "head", "meta", "title", "body",
			"table", "tr", "td", "h1", "p", "a", "br", "strong")
		p.AllowAttrs("style").Globally()
		p.AllowAttrs("charset", "name", "content").OnElements("meta")
		p.AllowAttrs("role", "width", "cellspacing", "cellpadding").OnElements("table")
		p.AllowAttrs("align", "width").OnElements("td")
		p.AllowAttrs("href").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		mail = p
	})
	return mail
}

// MailHTML returns body with anything outside the email allowlist removed.
func MailHTML(body string) string {
	if body == "" {
		return ""
	}
	return mailPolicy().Sanitize(body)
}
