package mailer

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFormatExpiry(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{20 * time.Minute, "20 minutes"},
		{time.Minute, "1 minute"},
		{30 * time.Second, "1 minute"},
		{time.Hour, "1 hour"},
		{90 * time.Minute, "90 minutes"},
		{48 * time.Hour, "2 days"},
	}
	for _, tt := range tests {
		if got := FormatExpiry(tt.d); got != tt.want {
			t.Errorf("FormatExpiry(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestBuildVerificationEmail(t *testing.T) {
	link := "http://localhost:8080/api/v1/users/verify-email/abc123"
	msg := BuildVerificationEmail("Basecamp", "alice", link, 20*time.Minute)

	if msg.Subject != "Please verify your email" {
		t.Errorf("Subject: got %q", msg.Subject)
	}
	for _, body := range []string{msg.TextBody, msg.HTMLBody} {
		if !strings.Contains(body, link) {
			t.Errorf("body missing link: %q", body)
		}
		if !strings.Contains(body, "alice") {
			t.Error("body missing username")
		}
		if !strings.Contains(body, "20 minutes") {
			t.Error("body missing expiry")
		}
	}
}

func TestBuildPasswordResetEmail_EscapesHTML(t *testing.T) {
	msg := BuildPasswordResetEmail("Basecamp", "<b>mallory</b>", "https://app.example.com/reset/tok", 0)

	if strings.Contains(msg.HTMLBody, "<b>mallory</b>") {
		t.Error("expected username to be HTML-escaped")
	}
	if strings.Contains(msg.TextBody, "expires") {
		t.Error("expected no expiry line when duration is zero")
	}
}

func TestBuildVerificationEmail_HTMLLayout(t *testing.T) {
	link := "https://basecamp.example/api/v1/users/verify-email/abc123"
	msg := BuildVerificationEmail("Basecamp <Dev>", "alice", link, time.Hour)

	if !strings.HasPrefix(msg.HTMLBody, "<!DOCTYPE html>\n<html>") {
		t.Errorf("HTML body should start with doctype, got %q", msg.HTMLBody[:min(40, len(msg.HTMLBody))])
	}
	for _, want := range []string{
		`<a href="` + link + `"`,
		`style="margin: 0; padding: 0;`,
		`<table role="presentation"`,
		"Basecamp &lt;Dev&gt;",
	} {
		if !strings.Contains(msg.HTMLBody, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
	if strings.Contains(msg.HTMLBody, "<Dev>") {
		t.Error("site name should stay escaped")
	}
}

func TestMailer_LogOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(Config{}, zap.New(core))

	if m.Enabled() {
		t.Fatal("expected log-only mode without host")
	}
	err := m.Send(context.Background(), Email{To: "a@example.com", Subject: "Hi", TextBody: "body"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("log entries: got %d, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["to"]; got != "a@example.com" {
		t.Errorf("to: got %v", got)
	}
}

func TestMailer_RejectsEmptyRecipient(t *testing.T) {
	m := New(Config{}, zap.NewNop())
	if err := m.Send(context.Background(), Email{Subject: "x"}); err == nil {
		t.Error("expected error for empty recipient")
	}
}

func TestMailer_Build(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", From: "noreply@example.com", FromName: "Basecamp"}, zap.NewNop())
	raw, err := m.build(Email{To: "a@example.com", Subject: "Héllo", TextBody: "plain", HTMLBody: "<p>html</p>"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := string(raw)
	for _, want := range []string{
		"To: a@example.com\r\n",
		`From: "Basecamp" <noreply@example.com>`,
		"Content-Type: multipart/alternative; boundary=",
		"text/plain; charset=utf-8",
		"text/html; charset=utf-8",
		"=?utf-8?q?",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
