//go:build integration

package pypi

import (
	"context"
	"testing"
	"time"
)

func TestFetchPackage_Integration(t *testing.T) {
	client := NewClient(nil, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name    string
		pkg     string
		wantErr bool
	}{
		{"requests", "requests", false},
		{"flask", "flask", false},
		{"nonexistent", "this-package-should-not-exist-12345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := client.FetchPackage(ctx, tt.pkg, false)
			if (err != nil) != tt.wantErr {
				t.Errorf("FetchPackage(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if pkg.Name == "" {
					t.Error("package name should not be empty")
				}
				if pkg.Version == "" {
					t.Error("package version should not be empty")
				}
				if pkg.Size == nil {
					t.Error("package size should be populated from release files")
				}
			}
		})
	}
}

func TestCrawl_Integration(t *testing.T) {
	client := NewClient(nil, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	records, err := client.Crawl(ctx, []string{"six"}, CrawlOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Crawl(six) error: %v", err)
	}
	if len(records) == 0 {
		t.Error("crawl should return at least the root record")
	}
}
