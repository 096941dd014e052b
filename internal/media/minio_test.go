package media

import (
	"context"
	"errors"
	"testing"
)

func TestNilStoreReportsNotConfigured(t *testing.T) {
	var s *Store

	if _, err := s.UploadIssuePhoto(context.Background(), 1, "a.jpg", "image/jpeg", nil, 0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("UploadIssuePhoto err = %v, want ErrNotConfigured", err)
	}
	if _, err := s.ListIssuePhotos(context.Background(), 1); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ListIssuePhotos err = %v, want ErrNotConfigured", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ping err = %v, want ErrNotConfigured", err)
	}
}

func TestSanitizeObjectName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pothole.jpg", "pothole.jpg"},
		{"my photo.png", "my-photo.png"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\boot.ini", "boot.ini"},
		{"weird!@#chars$.gif", "weirdchars.gif"},
		{"...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sanitizeObjectName(tt.input); got != tt.expected {
				t.Errorf("sanitizeObjectName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
