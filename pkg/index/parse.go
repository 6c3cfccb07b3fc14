package index

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// parseLinks extracts anchor hrefs from a directory listing page. The markup
// of auto-index pages drifts over time, so this is a best-effort extraction:
// anything that is not a plausible entry link is dropped.
func parseLinks(r io.Reader) []string {
	var links []string
	tokenizer := html.NewTokenizer(r)
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			// io.EOF or malformed tail; either way we keep what we have.
			return links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tokenizer.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := tokenizer.TagAttr()
			if string(key) == "href" {
				if href := string(val); keepLink(href) {
					links = append(links, href)
				}
				break
			}
			if !more {
				break
			}
		}
	}
}

func keepLink(href string) bool {
	if href == "" || href == "../" || href == ".." {
		return false
	}
	return !strings.HasPrefix(href, "?") && !strings.HasPrefix(href, "#")
}

var pythonTagPattern = regexp.MustCompile(`^(?:cp|pp|py)\d+$`)

// archSuffixes are the platform-tag suffixes we know how to map to an
// architecture. Ordered longest-first so x86_64 wins over a bare 64 match.
var archSuffixes = []string{
	"x86_64", "amd64", "aarch64", "arm64", "armv7l", "ppc64le", "s390x", "i686", "any",
}

// parseWheelName pulls the version, python tag and arch tag out of a wheel
// filename like mindspore-2.4.0.dev20250101-cp310-cp310-linux_aarch64.whl.
// Missing or unrecognized segments come back empty; the caller decides
// whether that makes the entry unusable.
func parseWheelName(filename string) (version, pythonTag, archTag string) {
	base := strings.TrimSuffix(filename, ".whl")
	parts := strings.Split(base, "-")
	if len(parts) < 5 {
		return "", "", ""
	}

	version = parts[1]
	if pythonTagPattern.MatchString(parts[2]) {
		pythonTag = parts[2]
	}

	platform := parts[len(parts)-1]
	for _, arch := range archSuffixes {
		if strings.HasSuffix(platform, arch) {
			archTag = arch
			break
		}
	}
	return version, pythonTag, archTag
}
