// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package scraper is the fallback acquisition path used when a platform's
official API is unavailable, unsupported or unconfigured.

Every host gets its own golang.org/x/time/rate limiter spacing requests by
at least MinDelay (1s by default), and robots.txt is fetched through that
limiter, cached per host and consulted before any page request. A
disallowed path fails with scraping_forbidden without touching the page.

Pages are parsed with goquery. Targets name CSS selectors for the item and
its fields; a "@attr" suffix reads an attribute instead of text:

	scraper.Target{
	    URL:    "https://example.com/explore",
	    Item:   "li.trend",
	    Title:  "a.name",
	    Link:   "a.name@href",
	    Volume: ".count",
	    Kind:   models.DataTypeHashtags,
	}

A Renderer produces page HTML; HTTPRenderer is a plain GET, and a
headless-browser implementation can be plugged in with WithRenderer.
*/
package scraper
