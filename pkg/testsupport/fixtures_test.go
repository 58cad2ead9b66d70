package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("test fixture content")

	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := LoadFixture(t, testFile)
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.json")
	testData := map[string][]string{
		"cities": {"Chennai", "Madurai"},
	}

	jsonData, err := json.Marshal(testData)
	if err != nil {
		t.Fatalf("failed to marshal test data: %v", err)
	}
	if err := os.WriteFile(testFile, jsonData, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var result map[string][]string
	LoadFixtureJSON(t, testFile, &result)

	if len(result["cities"]) != 2 || result["cities"][0] != "Chennai" {
		t.Errorf("fixture not loaded correctly: %v", result)
	}
}

func TestWriteGolden(t *testing.T) {
	tmpDir := t.TempDir()
	goldenFile := filepath.Join(tmpDir, "subdir", "test.golden")
	testContent := []byte("test golden content")

	// Writing must create intermediate directories.
	WriteGolden(t, goldenFile, testContent)

	result, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("failed to read written golden file: %v", err)
	}
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestCompareWithGolden_CreatesMissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	goldenFile := filepath.Join(tmpDir, "test.golden")
	testContent := []byte("test content")

	CompareWithGolden(t, goldenFile, testContent)

	result, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("failed to read created golden file: %v", err)
	}
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}

	// Second run against the now-existing file must pass cleanly.
	CompareWithGolden(t, goldenFile, testContent)
}

func TestTempFile(t *testing.T) {
	testContent := []byte("temporary file content")

	tempPath := TempFile(t, testContent)
	defer os.Remove(tempPath)

	result, err := os.ReadFile(tempPath)
	if err != nil {
		t.Fatalf("failed to read temp file: %v", err)
	}
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}

	if !strings.Contains(filepath.Base(tempPath), "test-") {
		t.Errorf("temp file name should contain 'test-', got %s", tempPath)
	}
}

func TestFixturePath(t *testing.T) {
	result := FixturePath("export.json")
	expected := filepath.Join("testdata", "export.json")

	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestGoldenPath(t *testing.T) {
	result := GoldenPath("export.json")
	expected := filepath.Join("testdata", "golden", "export.json")

	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}
