// Package ingest 提供数据接入单元测试
package ingest

import (
	"strings"
	"testing"
)

// ========== ResolveSheetURL 测试 ==========

func TestResolveSheetURL_GoogleSheet(t *testing.T) {
	raw := "https://docs.google.com/spreadsheets/d/1AbC-xyz_123/edit#gid=456"

	exportURL, sheetID, err := ResolveSheetURL(raw)
	if err != nil {
		t.Fatalf("ResolveSheetURL() error: %v", err)
	}

	if sheetID != "1AbC-xyz_123" {
		t.Errorf("sheetID = %q, want '1AbC-xyz_123'", sheetID)
	}
	if !strings.Contains(exportURL, "/export?format=csv") {
		t.Errorf("exportURL = %q, missing csv export path", exportURL)
	}
	if !strings.Contains(exportURL, "&gid=456") {
		t.Errorf("exportURL = %q, missing gid", exportURL)
	}
}

func TestResolveSheetURL_NoGid(t *testing.T) {
	raw := "https://docs.google.com/spreadsheets/d/abc123/edit"

	exportURL, sheetID, err := ResolveSheetURL(raw)
	if err != nil {
		t.Fatalf("ResolveSheetURL() error: %v", err)
	}

	if sheetID != "abc123" {
		t.Errorf("sheetID = %q", sheetID)
	}
	if strings.Contains(exportURL, "gid=") {
		t.Errorf("exportURL = %q, should not carry gid", exportURL)
	}
}

func TestResolveSheetURL_PassthroughNonGoogle(t *testing.T) {
	raw := "https://example.com/data.csv"

	exportURL, sheetID, err := ResolveSheetURL(raw)
	if err != nil {
		t.Fatalf("ResolveSheetURL() error: %v", err)
	}

	if exportURL != raw {
		t.Errorf("exportURL = %q, want passthrough", exportURL)
	}
	if sheetID != "" {
		t.Errorf("sheetID = %q, want empty", sheetID)
	}
}

func TestResolveSheetURL_MalformedGoogleURL(t *testing.T) {
	_, _, err := ResolveSheetURL("https://docs.google.com/spreadsheets/broken")
	if err == nil {
		t.Error("expected error for sheet url without document id")
	}
}

// ========== ExtractSheetTitle 测试 ==========

func TestExtractSheetTitle(t *testing.T) {
	page := `<html><head><title>Q3 Sales Report - Google Sheets</title></head></html>`

	if got := ExtractSheetTitle(page); got != "Q3 Sales Report" {
		t.Errorf("ExtractSheetTitle() = %q, want 'Q3 Sales Report'", got)
	}
}

func TestExtractSheetTitle_NoMatch(t *testing.T) {
	if got := ExtractSheetTitle("<html><title>Something else</title></html>"); got != "" {
		t.Errorf("ExtractSheetTitle() = %q, want empty", got)
	}
}
