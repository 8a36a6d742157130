package mailer

import (
	"strings"
	"testing"
)

func TestResetEmail_ContainsLinkAndName(t *testing.T) {
	link := "https://jacana.dev/reset-password?token=abc123&email=ada%40example.com"
	subject, body := ResetEmail("Ada", link)

	if !strings.Contains(subject, "JACANA DEV") {
		t.Errorf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "Hi Ada,") {
		t.Errorf("expected greeting with name, got: %q", body)
	}
	if !strings.Contains(body, link) {
		t.Error("body must contain the reset link verbatim")
	}
	if !strings.Contains(body, "only once") {
		t.Error("body should mention the single-use nature of the link")
	}
}

func TestResetEmail_FallbackGreeting(t *testing.T) {
	_, body := ResetEmail("", "https://jacana.dev/reset-password?token=x")
	if !strings.Contains(body, "Hi there,") {
		t.Errorf("expected fallback greeting, got: %q", body)
	}
}
