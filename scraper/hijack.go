package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// trackerHosts are ad, analytics and tag-manager hosts seen on Brazilian
// storefronts. Subdomains match too.
var trackerHosts = map[string]struct{}{
	"doubleclick.net":         {},
	"googlesyndication.com":   {},
	"googleadservices.com":    {},
	"google-analytics.com":    {},
	"googletagmanager.com":    {},
	"googletagservices.com":   {},
	"facebook.net":            {},
	"connect.facebook.net":    {},
	"adnxs.com":               {},
	"criteo.com":              {},
	"criteo.net":              {},
	"hotjar.com":              {},
	"clarity.ms":              {},
	"tiktok.com":              {},
	"analytics.tiktok.com":    {},
	"bing.com":                {},
	"rtbhouse.com":            {},
	"creativecdn.com":         {},
	"outbrain.com":            {},
	"taboola.com":             {},
	"onetrust.com":            {},
	"cookielaw.org":           {},
	"trustarc.com":            {},
	"zendesk.com":             {},
	"zopim.com":               {},
	"blip.ai":                 {},
	"smarthint.co":            {},
	"linximpulse.com":         {},
	"chaordicsystems.com":     {},
	"bizrate.com":             {},
	"scorecardresearch.com":   {},
	"amazon-adsystem.com":     {},
	"pubmatic.com":            {},
	"rubiconproject.com":      {},
	"segment.io":              {},
	"mixpanel.com":            {},
	"optimizely.com":          {},
	"newrelic.com":            {},
	"nr-data.net":             {},
	"sentry.io":               {},
	"yandex.ru":               {},
	"mc.yandex.ru":            {},
	"static.ads-twitter.com":  {},
	"consensu.org":            {},
}

// blocker decides which requests a tab aborts.
type blocker struct {
	types    map[proto.NetworkResourceType]struct{}
	trackers bool
}

// newBlocker builds a blocker from config resource type names. Unknown
// names are ignored.
func newBlocker(typeNames []string, blockTrackers bool) *blocker {
	b := &blocker{
		types:    make(map[proto.NetworkResourceType]struct{}, len(typeNames)),
		trackers: blockTrackers,
	}
	for _, name := range typeNames {
		if rt, ok := resourceTypes[name]; ok {
			b.types[rt] = struct{}{}
		}
	}
	return b
}

func (b *blocker) empty() bool {
	return len(b.types) == 0 && !b.trackers
}

// blocks reports whether a request of type rt to rawURL should be aborted.
func (b *blocker) blocks(rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := b.types[rt]; ok {
		return true
	}
	if !b.trackers {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isTrackerHost(u.Hostname())
}

// isTrackerHost matches host and each of its parent domains.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := trackerHosts[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
	return false
}

// mountBlocker intercepts every request of page and aborts the ones b
// blocks. It returns nil when there is nothing to block; otherwise the
// caller must Stop the router.
func mountBlocker(page *rod.Page, b *blocker) *rod.HijackRouter {
	if b.empty() {
		return nil
	}
	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if b.blocks(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
