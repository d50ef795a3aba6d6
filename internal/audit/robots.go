// Package audit scores how readable a site is for AI crawlers and answer
// engines: robots.txt access, structured data and text complexity.
package audit

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Bot access statuses.
const (
	StatusAllowed = "Allowed"
	StatusBlocked = "Blocked"
	StatusUnknown = "Unknown"
)

// AIBots are the crawler user agents checked in robots.txt.
var AIBots = []string{"GPTBot", "CCBot", "Google-Extended", "anthropic-ai", "PerplexityBot"}

// RobotsUserAgent identifies BrandOS when fetching robots.txt.
const RobotsUserAgent = "Mozilla/5.0 (compatible; BrandOS/1.0)"

const robotsTimeout = 5 * time.Second

// FetchRobots returns the site's robots.txt body, or ok=false when it is
// missing, unreachable or not a 200.
func FetchRobots(ctx context.Context, client *http.Client, siteURL string) (body string, ok bool) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()

	if client == nil {
		client = &http.Client{Timeout: robotsTimeout}
	}
	ctx, cancel := context.WithTimeout(ctx, robotsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", RobotsUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// CheckAIBots reports, per AI bot, whether robots.txt blocks the whole site.
// A bot is Blocked when "Disallow: /" appears in a group whose user agent
// names the bot or is "*". Allow overrides are not evaluated.
func CheckAIBots(robots string, found bool) map[string]string {
	if !found || strings.TrimSpace(robots) == "" {
		return map[string]string{
			"GPTBot":          "Unknown (No robots.txt)",
			"CCBot":           StatusUnknown,
			"Google-Extended": StatusUnknown,
		}
	}

	status := make(map[string]string, len(AIBots))
	for _, b := range AIBots {
		status[b] = StatusAllowed
	}

	var agents []string
	inRules := false
	sc := bufio.NewScanner(strings.NewReader(robots))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			// Consecutive User-agent lines share one rule group.
			if inRules {
				agents = agents[:0]
				inRules = false
			}
			agents = append(agents, value)
		case "disallow", "allow":
			inRules = true
			if key != "disallow" || value != "/" {
				continue
			}
			for _, agent := range agents {
				for _, bot := range AIBots {
					if agent == "*" || strings.Contains(strings.ToLower(agent), strings.ToLower(bot)) {
						status[bot] = StatusBlocked
					}
				}
			}
		}
	}
	return status
}

// BlockedCount returns how many bots are Blocked.
func BlockedCount(status map[string]string) int {
	n := 0
	for _, s := range status {
		if s == StatusBlocked {
			n++
		}
	}
	return n
}
