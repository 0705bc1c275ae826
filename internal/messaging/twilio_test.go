package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewTwilioValidation(t *testing.T) {
	tests := []TwilioConfig{
		{AuthToken: "t", From: "+1"},
		{AccountSID: "AC1", From: "+1"},
		{AccountSID: "AC1", AuthToken: "t"},
	}
	for _, cfg := range tests {
		if _, err := NewTwilio(cfg, nil); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestTwilioSend(t *testing.T) {
	var (
		gotPath string
		gotForm url.Values
		user    string
		pass    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.InfoLevel)
	sender, err := NewTwilio(TwilioConfig{
		AccountSID: "AC1",
		AuthToken:  "secret",
		From:       "+4930123",
		BaseURL:    srv.URL + "/",
	}, zap.New(core))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := sender.Send(context.Background(), "+491701234567", "  Hallo!\n\n\n\nWie geht's?  "); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotPath != "/Accounts/AC1/Messages.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if user != "AC1" || pass != "secret" {
		t.Fatalf("unexpected credentials %q/%q", user, pass)
	}
	if gotForm.Get("To") != "whatsapp:+491701234567" || gotForm.Get("From") != "whatsapp:+4930123" {
		t.Fatalf("unexpected addresses %v", gotForm)
	}
	if gotForm.Get("Body") != "Hallo!\n\nWie geht's?" {
		t.Fatalf("unexpected body %q", gotForm.Get("Body"))
	}
	if entries := logs.FilterMessage("message sent").All(); len(entries) != 1 || entries[0].ContextMap()["sid"] != "SM123" {
		t.Fatalf("expected sent log with sid, got %v", entries)
	}
}

func TestTwilioSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	sender, err := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "t", From: "whatsapp:+1", BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	err = sender.Send(context.Background(), "whatsapp:+0", "hi")
	if err == nil || !strings.Contains(err.Error(), "21211") {
		t.Fatalf("expected api error with code, got %v", err)
	}
}

func TestWhatsAppAddress(t *testing.T) {
	tests := map[string]string{
		"+49170":          "whatsapp:+49170",
		"whatsapp:+49170": "whatsapp:+49170",
		" +1 ":            "whatsapp:+1",
	}
	for in, want := range tests {
		if got := WhatsAppAddress(in); got != want {
			t.Fatalf("WhatsAppAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := map[string]string{
		"Hallo":                     "Hallo",
		"\n\nA\n\n\n\nB\n\n":        "A\n\nB",
		"Zeile 1\nZeile 2\n\n  C  ": "Zeile 1\nZeile 2\n\nC",
	}
	for in, want := range tests {
		if got := Format(in); got != want {
			t.Fatalf("Format(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	if err := NewLogSender(zap.New(core)).Send(context.Background(), "whatsapp:+1", "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one log entry")
	}
}
