package guard

import "strings"

// Abuse patterns checked against the request path and query string. The
// shield rule is independent of rate counting: one matching request is
// enough to deny.
var shieldPatterns = []string{
	"../",
	"..\\",
	"%2e%2e",
	"/etc/passwd",
	"<script",
	"union select",
	"union%20select",
	"information_schema",
	"' or '",
	"' or 1=1",
	"select * from",
	"; drop table",
}

func shield(req Request) Decision {
	target := strings.ToLower(req.Path)
	if req.RawQuery != "" {
		target += "?" + strings.ToLower(req.RawQuery)
	}

	for _, pattern := range shieldPatterns {
		if strings.Contains(target, pattern) {
			return Decision{Denied: true, Kind: KindShield, Reason: "blocked pattern: " + pattern}
		}
	}

	return Decision{}
}
