package drive

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/custodia-labs/tether/internal/connectors/google"
)

var fileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// linkKinds are the first path segments of /<kind>/d/<id> links.
var linkKinds = map[string]bool{
	"file":         true,
	"document":     true,
	"spreadsheets": true,
	"presentation": true,
	"drawings":     true,
}

// ParseFileID extracts the file ID from a Drive or Docs editor link.
//
// Recognised shapes:
//
//	https://drive.google.com/file/d/<id>/view
//	https://docs.google.com/document/d/<id>/edit
//	https://docs.google.com/spreadsheets/u/0/d/<id>
//	https://drive.google.com/open?id=<id>
//	https://drive.google.com/uc?id=<id>&export=download
//
// Folder links are not files and are rejected.
func ParseFileID(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return "", false
	}
	if !isDriveHost(u.Hostname()) {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && linkKinds[segments[0]] {
		for i := 1; i+1 < len(segments); i++ {
			if segments[i] == "d" && fileIDPattern.MatchString(segments[i+1]) {
				return segments[i+1], true
			}
		}
		return "", false
	}

	switch u.Path {
	case "/open", "/uc":
		if id := u.Query().Get("id"); fileIDPattern.MatchString(id) {
			return id, true
		}
	}
	return "", false
}

func isDriveHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range google.DriveHosts {
		if host == h {
			return true
		}
	}
	return false
}
