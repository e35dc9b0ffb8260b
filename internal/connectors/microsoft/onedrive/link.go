package onedrive

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// IsShareLink reports whether raw is a OneDrive or SharePoint sharing link.
//
// Recognised shapes:
//
//	https://1drv.ms/<kind>/s!<token>
//	https://onedrive.live.com/redir?resid=<id>&authkey=<key>
//	https://<tenant>.sharepoint.com/:w:/g/personal/<user>/<token>
//	https://<tenant>-my.sharepoint.com/personal/<user>/Documents/<path>
//	https://<tenant>.sharepoint.com/sites/<site>/Shared Documents/<path>
func IsShareLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	path := strings.Trim(u.Path, "/")

	switch {
	case host == "1drv.ms":
		return path != ""
	case host == "onedrive.live.com":
		q := u.Query()
		return q.Get("resid") != "" || q.Get("id") != "" || strings.Contains(path, "/")
	case strings.HasSuffix(host, ".sharepoint.com"):
		if strings.HasPrefix(path, ":") {
			return strings.Count(path, "/") >= 2
		}
		for _, root := range []string{"personal/", "sites/", "teams/"} {
			if strings.HasPrefix(path, root) && strings.Count(path, "/") >= 2 {
				return true
			}
		}
	}
	return false
}

// ShareID encodes a sharing URL for the Graph /shares endpoint: unpadded
// URL-safe base64 with a "u!" prefix.
func ShareID(raw string) string {
	return "u!" + base64.RawURLEncoding.EncodeToString([]byte(strings.TrimSpace(raw)))
}
