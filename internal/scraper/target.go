// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
)

// Target describes a page to scrape and how to read items from it.
//
// Selectors are CSS, optionally suffixed with "@attr" to read an attribute
// instead of the element text. A field selector that is only "@attr" reads
// the attribute from the item element itself.
type Target struct {
	Platform models.PlatformID
	URL      string
	Item     string
	ID       string
	Title    string
	Link     string
	Volume   string
	// Kind is the data type items represent. Empty means posts.
	Kind models.DataType
}

// TargetFromConfig builds the scrape target configured for platform.
func TargetFromConfig(platform models.PlatformID, cfg config.PlatformConfig) (Target, bool) {
	if !cfg.HasScraper() {
		return Target{}, false
	}
	return Target{
		Platform: platform,
		URL:      cfg.ScrapeURL,
		Item:     cfg.ScrapeItem,
		ID:       cfg.ScrapeID,
		Title:    cfg.ScrapeTitle,
		Link:     cfg.ScrapeLink,
		Volume:   cfg.ScrapeVolume,
		Kind:     models.DataType(cfg.ScrapeKind),
	}, true
}

var attrName = regexp.MustCompile(`^[A-Za-z_:][-A-Za-z0-9_:.]*$`)

// parseSelector splits "css@attr" into its parts.
func parseSelector(s string) (css, attr string) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '@'); i >= 0 && attrName.MatchString(s[i+1:]) {
		return strings.TrimSpace(s[:i]), s[i+1:]
	}
	return s, ""
}

var (
	countPattern = regexp.MustCompile(`(?i)([0-9][0-9.,]*)\s*([kmb]\b)?`)
	// dotThousands matches counts written with '.' as the group separator,
	// such as "1.234.567".
	dotThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// parseCount reads human formatted counts such as "1,234", "12.5K" or "3M views".
func parseCount(s string) int64 {
	m := countPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	num := m[1]
	mult := 1.0
	switch strings.ToLower(m[2]) {
	case "k":
		mult = 1e3
	case "m":
		mult = 1e6
	case "b":
		mult = 1e9
	}
	num = strings.ReplaceAll(num, ",", "")
	if mult == 1 && dotThousands.MatchString(num) {
		num = strings.ReplaceAll(num, ".", "")
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * mult))
}
