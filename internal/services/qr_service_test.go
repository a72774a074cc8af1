package services

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestScanURL(t *testing.T) {
	petID := uuid.MustParse("9f0c2a4e-1b2d-4c3e-8f5a-6d7e8f9a0b1c")

	t.Run("Given a base URL Then the scan path embeds the pet id", func(t *testing.T) {
		got := ScanURL("https://findmypet.in", petID)
		want := "https://findmypet.in/scan/" + petID.String()
		if got != want {
			t.Errorf("ScanURL = %s, want %s", got, want)
		}
	})

	t.Run("Given a trailing slash Then it is not doubled", func(t *testing.T) {
		got := ScanURL("https://findmypet.in/", petID)
		if strings.Contains(got, "//scan") {
			t.Errorf("ScanURL produced a doubled slash: %s", got)
		}
	})

	t.Run("Given the same pet Then the URL is stable across calls", func(t *testing.T) {
		if ScanURL("https://findmypet.in", petID) != ScanURL("https://findmypet.in", petID) {
			t.Error("scan URL must be a pure function of the pet id")
		}
	})
}

func TestGenerateQRDataURI(t *testing.T) {
	t.Run("Given a scan URL Then the result is a decodable PNG data URI", func(t *testing.T) {
		uri, err := GenerateQRDataURI("https://findmypet.in/scan/abc")
		if err != nil {
			t.Fatalf("GenerateQRDataURI failed: %v", err)
		}

		const prefix = "data:image/png;base64,"
		if !strings.HasPrefix(uri, prefix) {
			t.Fatalf("expected PNG data URI prefix, got %q", uri[:min(len(uri), 40)])
		}

		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
		if err != nil {
			t.Fatalf("payload is not valid base64: %v", err)
		}
		if len(raw) < 8 || string(raw[1:4]) != "PNG" {
			t.Error("payload does not look like a PNG")
		}
	})

	t.Run("Given different URLs Then the encoded payloads differ", func(t *testing.T) {
		a, err := GenerateQRDataURI("https://findmypet.in/scan/a")
		if err != nil {
			t.Fatalf("encode a: %v", err)
		}
		b, err := GenerateQRDataURI("https://findmypet.in/scan/b")
		if err != nil {
			t.Fatalf("encode b: %v", err)
		}
		if a == b {
			t.Error("distinct URLs must produce distinct QR payloads")
		}
	})
}
