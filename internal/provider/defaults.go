package provider

import "github.com/apkfetch/apkfetch/internal/scrape"

// Defaults returns the built-in provider set. The ordering is
// significant: search aggregation reports results in this order, and
// tier-2 resolution breaks ties by it.
func Defaults() *Set {
	return NewSet([]Descriptor{
		{
			Name:         "APKPure CDN",
			Tier:         TierCDN,
			BaseURL:      "https://apkpure.com",
			ProbeURL:     "https://d.cdnpure.com/b/APK/{pkg}?version=latest",
			ProbeReferer: "https://apkpure.com/",
		},
		{
			Name:         "APKPure CDN",
			Tier:         TierCDN,
			BaseURL:      "https://apkpure.com",
			ProbeURL:     "https://d.apkpure.com/b/APK/{pkg}?version=latest",
			ProbeReferer: "https://apkpure.com/",
		},
		{
			Name:            "APKCombo",
			Tier:            TierPage,
			BaseURL:         "https://apkcombo.com",
			PageURL:         "https://apkcombo.com/search/{query}/",
			CandidateRule:   scrape.LinkRule{Selector: "a", Contains: "{tail}"},
			CandidateSuffix: "download/apk",
			HostMarker:      "apkcombo",
			LandingRules: []scrape.LinkRule{
				{Selector: `a[href*="/download/"]`, Contains: "/apk", Exclude: "xapk"},
				{Selector: "ul.file-list a"},
			},
		},
		{
			Name:          "APKMirror",
			Tier:          TierPage,
			BaseURL:       "https://www.apkmirror.com",
			PageURL:       "https://www.apkmirror.com/?post_type=app_release&searchtype=app&s={query}",
			CandidateRule: scrape.LinkRule{Selector: ".appRow a.fontBlack"},
			HostMarker:    "apkmirror",
			LandingRules: []scrape.LinkRule{
				{Selector: "a.accent_bg"},
				{Selector: `a[href*="download.php"]`},
			},
		},
		{
			Name:           "HappyMod",
			Icon:           "happymod",
			BaseURL:        "https://happymod.com",
			SearchURL:      "https://happymod.com/search.html?q={query}",
			ItemSelector:   ".plist-app-box, .app-item, article",
			TitleSelectors: []string{".plist-app-title", "h3", ".title", "a"},
		},
		{
			Name:           "ModYolo",
			Icon:           "modyolo",
			BaseURL:        "https://modyolo.com",
			SearchURL:      "https://modyolo.com/?s={query}",
			ItemSelector:   "article, .post",
			TitleSelectors: []string{"h2 a", "h3 a", ".entry-title a", "h2", "h3"},
		},
		{
			Name:           "LiteAPKs",
			Icon:           "liteapks",
			BaseURL:        "https://liteapks.com",
			SearchURL:      "https://liteapks.com/?s={query}",
			ItemSelector:   "article, .post",
			TitleSelectors: []string{".entry-title a", "h2 a", "h3 a", "h2", "h3"},
		},
		{
			Name:           "AN1",
			Icon:           "an1",
			BaseURL:        "https://an1.com",
			SearchURL:      "https://an1.com/search/?q={query}",
			ItemSelector:   ".shortstory, article, .item",
			TitleSelectors: []string{"h2 a", ".title a", "h3 a", "h2", "h3"},
		},
		{
			Name:           "APKDone",
			Icon:           "apkdone",
			BaseURL:        "https://apkdone.com",
			SearchURL:      "https://apkdone.com/?s={query}",
			ItemSelector:   "article, .post",
			TitleSelectors: []string{".entry-title a", "h2 a", "h2", "h3"},
		},
		{
			Name:           "APKMody",
			Icon:           "apkmody",
			BaseURL:        "https://apkmody.io",
			SearchURL:      "https://apkmody.io/?s={query}",
			ItemSelector:   "article, .post",
			TitleSelectors: []string{".entry-title a", "h2 a", "h2", "h3"},
		},
	})
}
