package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseServiceType(t *testing.T) {
	tests := []struct {
		input    string
		expected ServiceType
		ok       bool
	}{
		{"Google Drive", ServiceGoogleDrive, true},
		{"drive", ServiceGoogleDrive, true},
		{"gdrive", ServiceGoogleDrive, true},
		{"google", ServiceGoogleDrive, true},
		{"OneDrive", ServiceOneDrive, true},
		{"onedrive", ServiceOneDrive, true},
		{"sharepoint", ServiceOneDrive, true},
		{"dropbox", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseServiceType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestServiceType_IsValid(t *testing.T) {
	for _, s := range AllServices() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, ServiceType("Dropbox").IsValid())
}

func TestCredentialRecord_SummaryOmitsSecrets(t *testing.T) {
	now := time.Now()
	rec := &CredentialRecord{
		ID:         4,
		Name:       "work",
		AccountID:  "subject",
		Service:    ServiceOneDrive,
		Ciphertext: []byte{1, 2, 3},
		Nonce:      []byte{4, 5},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s := rec.Summary()
	assert.Equal(t, CredentialSummary{
		ID: 4, Name: "work", AccountID: "subject", Service: ServiceOneDrive, CreatedAt: now, UpdatedAt: now,
	}, s)
}

func TestFile_HasDescription(t *testing.T) {
	assert.False(t, (&File{}).HasDescription())
	assert.True(t, (&File{Description: "A launch plan."}).HasDescription())
}

func TestJobResult_Succeeded(t *testing.T) {
	assert.True(t, (&JobResult{}).Succeeded())
	assert.False(t, (&JobResult{Err: ErrAccessDenied}).Succeeded())
}
