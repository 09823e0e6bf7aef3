package guard

import "strings"

// Search-engine crawlers are allowed through the bot rule.
var allowedCrawlers = []string{
	"googlebot",
	"bingbot",
	"duckduckbot",
	"slurp",
	"baiduspider",
	"yandexbot",
}

// Signatures of automation tools and generic crawlers.
var botSignatures = []string{
	"curl/",
	"wget/",
	"python-requests",
	"python-urllib",
	"go-http-client",
	"okhttp",
	"java/",
	"scrapy",
	"httpclient",
	"phantomjs",
	"headlesschrome",
	"bot",
	"crawler",
	"spider",
}

func detectBot(req Request) Decision {
	ua := strings.ToLower(strings.TrimSpace(req.UserAgent))
	if ua == "" {
		return Decision{Denied: true, Kind: KindBot, Reason: "missing user agent"}
	}

	for _, crawler := range allowedCrawlers {
		if strings.Contains(ua, crawler) {
			return Decision{}
		}
	}

	for _, sig := range botSignatures {
		if strings.Contains(ua, sig) {
			return Decision{Denied: true, Kind: KindBot, Reason: "automation signature: " + sig}
		}
	}

	return Decision{}
}
