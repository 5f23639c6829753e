package mailer

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("digest@example.com", "ada@example.com", "Your Dev Digest", "Hello Ada,\nline two")

	for _, want := range []string{
		"From: digest@example.com\r\n",
		"To: ada@example.com\r\n",
		"Subject: Your Dev Digest\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"Hello Ada,\r\nline two",
	} {
		if !bytes.Contains(msg, []byte(want)) {
			t.Errorf("message missing %q", want)
		}
	}

	// Headers and body must be separated by a blank line.
	if !bytes.Contains(msg, []byte("\r\n\r\nHello Ada,")) {
		t.Error("missing header/body separator")
	}
}

func TestLoadSMTPConfig_Defaults(t *testing.T) {
	cfg := LoadSMTPConfig()
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Port != 587 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoadSMTPConfig_Env(t *testing.T) {
	t.Setenv("SMTP_HOST", "mail.internal")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USER", "digest")
	t.Setenv("EMAIL_FROM", "")

	cfg := LoadSMTPConfig()
	if cfg.Host != "mail.internal" || cfg.Port != 2525 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.From != "digest" {
		t.Errorf("From should default to the username, got %q", cfg.From)
	}
}

func TestLoadSMTPConfig_InvalidPortFallsBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "-1")
	cfg := LoadSMTPConfig()
	if cfg.Port != 587 {
		t.Errorf("invalid port must fall back to 587, got %d", cfg.Port)
	}
}

func TestNoopMailer(t *testing.T) {
	m := NewNoopMailer()
	if err := m.Send(context.Background(), "ada@example.com", "subject", "body"); err != nil {
		t.Fatalf("Send err=%v", err)
	}
	if m.Sent() != 1 {
		t.Errorf("Sent = %d, want 1", m.Sent())
	}
}
