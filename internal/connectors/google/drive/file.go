package drive

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/tether/internal/connectors/google"
	"github.com/custodia-labs/tether/internal/core/domain"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc     = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet   = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides  = "application/vnd.google-apps.presentation"
	MimeTypeGoogleDrawing = "application/vnd.google-apps.drawing"
	MimeTypeFolder        = "application/vnd.google-apps.folder"
	MimeTypeShortcut      = "application/vnd.google-apps.shortcut"

	nativePrefix = "application/vnd.google-apps."
)

// Export targets for native files.
const (
	ExportMimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ExportMimePDF  = "application/pdf"
	ExportMimeCSV  = "text/csv"
)

// ExportFormat is the conversion applied to a native Workspace file.
type ExportFormat struct {
	MIMEType  string
	Extension string
}

var exportFormats = map[string]ExportFormat{
	MimeTypeGoogleDoc:     {MIMEType: ExportMimeDocx, Extension: ".docx"},
	MimeTypeGoogleSlides:  {MIMEType: ExportMimePDF, Extension: ".pdf"},
	MimeTypeGoogleSheet:   {MIMEType: ExportMimeCSV, Extension: ".csv"},
	MimeTypeGoogleDrawing: {MIMEType: ExportMimePDF, Extension: ".pdf"},
}

// ExportFormatFor returns the export format of a native MIME type.
func ExportFormatFor(mimeType string) (ExportFormat, bool) {
	f, ok := exportFormats[mimeType]
	return f, ok
}

// IsNative reports whether mimeType is a Workspace type stored without a
// downloadable byte stream.
func IsNative(mimeType string) bool {
	return strings.HasPrefix(mimeType, nativePrefix)
}

const metadataFields = "id,name,mimeType,size,webViewLink,modifiedTime,shortcutDetails"

// fetchMetadata reads a file's metadata, following one level of shortcut.
func fetchMetadata(ctx context.Context, svc *drive.Service, fileID string) (*drive.File, error) {
	f, err := getFile(ctx, svc, fileID)
	if err != nil {
		return nil, err
	}
	if f.MimeType == MimeTypeShortcut && f.ShortcutDetails != nil && f.ShortcutDetails.TargetId != "" {
		return getFile(ctx, svc, f.ShortcutDetails.TargetId)
	}
	return f, nil
}

func getFile(ctx context.Context, svc *drive.Service, fileID string) (*drive.File, error) {
	f, err := svc.Files.Get(fileID).
		Fields(googleapi.Field(metadataFields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, google.WrapError(err)
	}
	return f, nil
}

func toMetadata(f *drive.File) *domain.FileMetadata {
	meta := &domain.FileMetadata{
		ID:         f.Id,
		Name:       f.Name,
		MIMEType:   f.MimeType,
		Size:       f.Size,
		WebLink:    f.WebViewLink,
		Exportable: IsNative(f.MimeType),
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		meta.ModifiedTime = t
	}
	return meta
}

// openContent starts the media request for a file and returns the response
// with the extension the local copy should carry.
func openContent(ctx context.Context, svc *drive.Service, meta *domain.FileMetadata) (*http.Response, string, error) {
	if meta.Exportable {
		format, ok := ExportFormatFor(meta.MIMEType)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s cannot be exported", domain.ErrUnsupportedFileType, meta.MIMEType)
		}
		resp, err := svc.Files.Export(meta.ID, format.MIMEType).Context(ctx).Download()
		if err != nil {
			return nil, "", google.DownloadError(err)
		}
		return resp, format.Extension, nil
	}

	resp, err := svc.Files.Get(meta.ID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, "", google.DownloadError(err)
	}
	return resp, strings.ToLower(filepath.Ext(meta.Name)), nil
}
