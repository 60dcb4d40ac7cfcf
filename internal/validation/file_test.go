package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	t.Parallel()
	const maxBytes = int64(10 << 20)

	tests := []struct {
		name     string
		fileName string
		mimeType string
		size     int64
		wantErr  bool
	}{
		{"Valid PDF", "invoice.pdf", "application/pdf", 1024, false},
		{"Valid PNG", "scan.png", "image/png", 2048, false},
		{"Uppercase Mime", "scan.png", "IMAGE/PNG", 2048, false},
		{"Empty Name", "   ", "application/pdf", 1024, true},
		{"Empty File", "invoice.pdf", "application/pdf", 0, true},
		{"Negative Size", "invoice.pdf", "application/pdf", -1, true},
		{"Too Large", "invoice.pdf", "application/pdf", maxBytes + 1, true},
		{"Exactly Max", "invoice.pdf", "application/pdf", maxBytes, false},
		{"Disallowed Mime", "malware.exe", "application/x-msdownload", 1024, true},
		{"Empty Mime", "invoice.pdf", "", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.fileName, tt.mimeType, tt.size, maxBytes)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEntityTypeSlug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"Valid", "warehouse", false},
		{"Valid With Digits", "site-42", false},
		{"Too Short", "w", true},
		{"Uppercase", "Warehouse", true},
		{"Illegal Chars", "ware_house", true},
		{"Starts Dash", "-store", true},
		{"Ends Dash", "store-", true},
		{"Reserved", "documents", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityTypeSlug(tt.slug)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
