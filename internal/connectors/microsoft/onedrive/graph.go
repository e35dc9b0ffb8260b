package onedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/tether/internal/connectors/microsoft"
	"github.com/custodia-labs/tether/internal/core/domain"
)

// DefaultGraphURL is the Microsoft Graph v1.0 base URL.
const DefaultGraphURL = "https://graph.microsoft.com/v1.0"

const itemSelect = "id,name,size,file,folder,webUrl,lastModifiedDateTime"

// pdfConvertible lists extensions Graph can render to PDF that the
// summarizer cannot read directly.
var pdfConvertible = map[string]bool{
	".doc": true, ".dot": true, ".dotx": true, ".dotm": true, ".odt": true, ".rtf": true,
	".ppt": true, ".pptx": true, ".pps": true, ".ppsx": true, ".odp": true,
	".xls": true, ".xlsx": true, ".xlsm": true, ".ods": true,
	".htm": true, ".html": true, ".eml": true, ".msg": true, ".epub": true,
}

// driveItem is the subset of a Graph driveItem Tether reads.
type driveItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	WebURL       string    `json:"webUrl"`
	LastModified time.Time `json:"lastModifiedDateTime"`
	File         *struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
	Folder *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder"`
}

func (it *driveItem) toMetadata() *domain.FileMetadata {
	meta := &domain.FileMetadata{
		ID:           it.ID,
		Name:         it.Name,
		Size:         it.Size,
		WebLink:      it.WebURL,
		ModifiedTime: it.LastModified,
		Exportable:   pdfConvertible[strings.ToLower(filepath.Ext(it.Name))],
	}
	if it.File != nil {
		meta.MIMEType = it.File.MimeType
	}
	return meta
}

// graphClient issues /shares requests with an authorised HTTP client.
type graphClient struct {
	http *http.Client
	base string
}

// item resolves a sharing link to its driveItem.
func (g *graphClient) item(ctx context.Context, shareID string) (*driveItem, error) {
	endpoint := fmt.Sprintf("%s/shares/%s/driveItem?%s", g.base, shareID,
		url.Values{"$select": {itemSelect}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "redeemSharingLinkIfNecessary")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := microsoft.CheckResponse(resp); err != nil {
		return nil, err
	}
	var it driveItem
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return nil, fmt.Errorf("graph: decode driveItem: %w", err)
	}
	return &it, nil
}

// contentLocation asks Graph for the pre-authenticated download URL of a
// shared item. Graph answers with a redirect; some tenants stream the body
// directly, in which case the response itself is returned.
func (g *graphClient) contentLocation(ctx context.Context, shareID string, asPDF bool) (string, *http.Response, error) {
	endpoint := fmt.Sprintf("%s/shares/%s/driveItem/content", g.base, shareID)
	if asPDF {
		endpoint += "?format=pdf"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return "", nil, err
	}

	noFollow := *g.http
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := noFollow.Do(req)
	if err != nil {
		return "", nil, err
	}

	switch resp.StatusCode {
	case http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect, http.StatusMovedPermanently:
		_ = resp.Body.Close()
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", nil, &microsoft.APIError{Status: resp.StatusCode, Message: "redirect without location"}
		}
		return loc, nil, nil
	case http.StatusOK:
		return "", resp, nil
	default:
		defer resp.Body.Close()
		return "", nil, microsoft.CheckResponse(resp)
	}
}
