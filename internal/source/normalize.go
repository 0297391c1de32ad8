// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tomtom215/trendscope/internal/models"
)

// MaxDerivedKeywords caps keywords extracted from post text per snapshot.
const MaxDerivedKeywords = 100

const minKeywordRunes = 3

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	// Stripped before keyword extraction.
	noisePattern = regexp.MustCompile(`https?://\S+|[#@][\p{L}\p{N}_]+`)
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {}, "from": {},
	"you": {}, "your": {}, "are": {}, "was": {}, "were": {}, "have": {}, "has": {},
	"had": {}, "not": {}, "but": {}, "all": {}, "can": {}, "will": {}, "just": {},
	"into": {}, "out": {}, "about": {}, "what": {}, "when": {}, "who": {}, "how": {},
	"why": {}, "they": {}, "them": {}, "their": {}, "there": {}, "here": {}, "our": {},
	"his": {}, "her": {}, "she": {}, "him": {}, "its": {}, "been": {}, "than": {},
	"then": {}, "more": {}, "most": {}, "some": {}, "any": {}, "over": {}, "after": {},
	"before": {}, "new": {}, "one": {}, "two": {}, "get": {}, "got": {}, "like": {},
	"now": {}, "only": {}, "also": {}, "very": {}, "via": {}, "amp": {}, "did": {},
	"does": {}, "don": {}, "isn": {}, "won": {}, "would": {}, "could": {}, "should": {},
}

// NormalizeTag lowercases a hashtag and strips the leading '#'.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#")))
}

// ExtractHashtags returns the distinct normalized hashtags in text, in
// order of first appearance.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		tag := NormalizeTag(m[1])
		if _, dup := seen[tag]; dup || tag == "" {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ExtractKeywords returns the distinct lowercase keywords in text, skipping
// URLs, mentions, hashtags, stopwords, numbers and words shorter than three
// letters.
func ExtractKeywords(text string) []string {
	text = noisePattern.ReplaceAllString(text, " ")
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'")
		if utf8.RuneCountInString(w) < minKeywordRunes || isNumeric(w) {
			continue
		}
		if i := strings.IndexByte(w, '\''); i >= 0 {
			w = w[:i]
			if utf8.RuneCountInString(w) < minKeywordRunes {
				continue
			}
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

func itemEngagement(it models.RawItem) int64 {
	if it.Views > 0 {
		return it.Views
	}
	return it.Likes + it.Shares + it.Comments
}

// Normalize turns raw items into TrendData for the requested data types.
//
// Items with an explicit Kind map directly onto entries of that kind. Items
// without one are posts: they become viral content, and their tags and text
// yield hashtags (volume = posts mentioning the tag) and keywords (volume =
// posts containing the word, score = summed engagement of those posts).
// Duplicate identifiers are merged. Entries are left unranked.
func Normalize(snap *models.RawTrendSnapshot, dataTypes []models.DataType) models.TrendData {
	td := models.TrendData{
		Platform:     snap.Platform,
		Hashtags:     []models.HashtagEntry{},
		Keywords:     []models.KeywordEntry{},
		ViralContent: []models.ViralEntry{},
		FetchedAt:    snap.CapturedAt,
		Status:       models.StatusOK,
		Origin:       snap.Origin,
	}
	want := func(dt models.DataType) bool { return len(dataTypes) == 0 || slices.Contains(dataTypes, dt) }

	hashtags := newMerger[models.HashtagEntry]()
	keywords := newMerger[models.KeywordEntry]()
	viral := newMerger[models.ViralEntry]()

	for _, it := range snap.Items {
		switch it.Kind {
		case models.DataTypeHashtags:
			tag := NormalizeTag(firstNonEmpty(it.ID, it.Title))
			if tag == "" {
				continue
			}
			hashtags.merge(tag, models.HashtagEntry{Tag: tag, Volume: max(it.Volume, 1)}, addHashtag)
		case models.DataTypeKeywords:
			kw := strings.ToLower(strings.TrimSpace(firstNonEmpty(it.ID, it.Title)))
			if kw == "" {
				continue
			}
			keywords.merge(kw, models.KeywordEntry{Keyword: kw, Volume: max(it.Volume, 1)}, addKeyword)
		case models.DataTypeViralContent:
			if v, ok := viralFrom(it); ok {
				viral.merge(v.ID, v, mergeViral)
			}
		default:
			if v, ok := viralFrom(it); ok {
				viral.merge(v.ID, v, mergeViral)
			}
			tags := make([]string, 0, len(it.Tags))
			for _, t := range it.Tags {
				tags = append(tags, NormalizeTag(t))
			}
			tags = append(tags, ExtractHashtags(it.Title+" "+it.Text)...)
			seen := make(map[string]struct{}, len(tags))
			for _, tag := range tags {
				if _, dup := seen[tag]; dup || tag == "" {
					continue
				}
				seen[tag] = struct{}{}
				hashtags.merge(tag, models.HashtagEntry{Tag: tag, Volume: 1}, addHashtag)
			}
			score := float64(itemEngagement(it))
			for _, kw := range ExtractKeywords(it.Title + " " + it.Text) {
				keywords.merge(kw, models.KeywordEntry{Keyword: kw, Volume: 1, Score: score}, addKeyword)
			}
		}
	}

	if want(models.DataTypeHashtags) {
		td.Hashtags = hashtags.values()
	}
	if want(models.DataTypeKeywords) {
		kws := keywords.values()
		if len(kws) > MaxDerivedKeywords {
			// Keep the keywords the ranker would put first.
			slices.SortStableFunc(kws, func(a, b models.KeywordEntry) int {
				if c := cmp.Compare(b.Engagement(), a.Engagement()); c != 0 {
					return c
				}
				return strings.Compare(a.Keyword, b.Keyword)
			})
			kws = kws[:MaxDerivedKeywords]
		}
		td.Keywords = kws
	}
	if want(models.DataTypeViralContent) {
		td.ViralContent = viral.values()
	}
	return td
}

func viralFrom(it models.RawItem) (models.ViralEntry, bool) {
	id := firstNonEmpty(it.ID, it.URL)
	if id == "" {
		return models.ViralEntry{}, false
	}
	title := it.Title
	if title == "" {
		title = truncateRunes(it.Text, 140)
	}
	return models.ViralEntry{
		ID:          id,
		Title:       title,
		URL:         it.URL,
		Author:      it.Author,
		Views:       it.Views,
		Likes:       it.Likes,
		Shares:      it.Shares,
		Comments:    it.Comments,
		PublishedAt: it.PublishedAt,
	}, true
}

func addHashtag(a, b models.HashtagEntry) models.HashtagEntry {
	a.Volume += b.Volume
	return a
}

func addKeyword(a, b models.KeywordEntry) models.KeywordEntry {
	a.Volume += b.Volume
	a.Score += b.Score
	return a
}

// mergeViral keeps the highest observed counters for a repeated item.
func mergeViral(a, b models.ViralEntry) models.ViralEntry {
	a.Views = max(a.Views, b.Views)
	a.Likes = max(a.Likes, b.Likes)
	a.Shares = max(a.Shares, b.Shares)
	a.Comments = max(a.Comments, b.Comments)
	if a.Title == "" {
		a.Title = b.Title
	}
	return a
}

// merger collects entries by identifier, preserving first-seen order.
type merger[T any] struct {
	index map[string]int
	items []T
}

func newMerger[T any]() *merger[T] {
	return &merger[T]{index: make(map[string]int)}
}

func (m *merger[T]) merge(id string, v T, combine func(a, b T) T) {
	if i, ok := m.index[id]; ok {
		m.items[i] = combine(m.items[i], v)
		return
	}
	m.index[id] = len(m.items)
	m.items = append(m.items, v)
}

func (m *merger[T]) values() []T {
	if m.items == nil {
		return []T{}
	}
	return m.items
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
