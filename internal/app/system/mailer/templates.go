// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dalemusser/basecamp/internal/app/system/htmlsanitize"
)

// ActionEmailData fills the single-button emails (verify address, reset
// password).
type ActionEmailData struct {
	SiteName  string
	Username  string
	Intro     string
	Action    string // button label
	Link      string
	ExpiresIn time.Duration
}

// BuildVerificationEmail asks the user to confirm their address.
func BuildVerificationEmail(siteName, username, link string, expires time.Duration) Email {
	return buildActionEmail("Please verify your email", ActionEmailData{
		SiteName:  siteName,
		Username:  username,
		Intro:     fmt.Sprintf("Welcome to %s! Please confirm your email address to finish setting up your account.", siteName),
		Action:    "Verify your email",
		Link:      link,
		ExpiresIn: expires,
	})
}

// BuildPasswordResetEmail carries the reset link.
func BuildPasswordResetEmail(siteName, username, link string, expires time.Duration) Email {
	return buildActionEmail("Password reset request", ActionEmailData{
		SiteName:  siteName,
		Username:  username,
		Intro:     "We received a request to reset the password of your account.",
		Action:    "Reset password",
		Link:      link,
		ExpiresIn: expires,
	})
}

func buildActionEmail(subject string, data ActionEmailData) Email {
	return Email{
		Subject:  subject,
		TextBody: buildActionText(data),
		HTMLBody: buildActionHTML(data),
	}
}

// FormatExpiry renders d as "20 minutes", "1 hour", "2 days".
func FormatExpiry(d time.Duration) string {
	unit := func(n int, word string) string {
		if n == 1 {
			return "1 " + word
		}
		return fmt.Sprintf("%d %ss", n, word)
	}
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return unit(int(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return unit(int(d/time.Hour), "hour")
	default:
		m := int(d / time.Minute)
		if m < 1 {
			m = 1
		}
		return unit(m, "minute")
	}
}

func buildActionText(data ActionEmailData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", data.Username)
	b.WriteString(data.Intro + "\n\n")
	fmt.Fprintf(&b, "%s:\n%s\n\n", data.Action, data.Link)
	if data.ExpiresIn > 0 {
		fmt.Fprintf(&b, "This link expires in %s.\n\n", FormatExpiry(data.ExpiresIn))
	}
	b.WriteString("If you did not request this, you can safely ignore this email.\n")
	return b.String()
}

var actionTmpl = template.Must(template.New("action").Funcs(template.FuncMap{
	"expiry": FormatExpiry,
}).Parse(actionHTMLTemplate))

// buildActionHTML renders the template and passes the result through the
// mail allowlist. The sanitizer drops the doctype, so it is added back here.
func buildActionHTML(data ActionEmailData) string {
	var buf bytes.Buffer
	_ = actionTmpl.Execute(&buf, data)
	return "<!DOCTYPE html>\n" + htmlsanitize.MailHTML(buf.String())
}

const actionHTMLTemplate = `<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #1aae5a;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Username}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Intro}}</p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #1aae5a; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">{{.Action}}</a>
                  </td>
                </tr>
              </table>
              {{if .ExpiresIn}}<p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">This link expires in {{expiry .ExpiresIn}}.</p>{{end}}
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">If you did not request this, you can safely ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
