package plaintext

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type storageFake struct {
	files map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	f.files[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func TestExtractTrimsPlainText(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"job-1_a.txt": []byte("  some text\n\n"),
	}}
	extractor := NewExtractor(storage)

	text, err := extractor.Extract(context.Background(), "job-1_a.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "some text" {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractEmptyFileYieldsEmptyText(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{"job-1_a.txt": []byte("  \n ")}}
	text, err := NewExtractor(storage).Extract(context.Background(), "job-1_a.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"job-1_a.bin": {0xff, 0xfe, 0x00, 0x80},
	}}
	_, err := NewExtractor(storage).Extract(context.Background(), "job-1_a.bin")
	if err == nil || !strings.Contains(err.Error(), "unsupported binary format") {
		t.Fatalf("expected binary format error, got %v", err)
	}
}

func TestExtractMissingKey(t *testing.T) {
	if _, err := NewExtractor(&storageFake{}).Extract(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"job-1_a.pdf": []byte("%PDF-1.7 not really a pdf"),
	}}
	if _, err := NewExtractor(storage).Extract(context.Background(), "job-1_a.pdf"); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}
