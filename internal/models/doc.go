// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package models defines the data types shared across the trend engine.

# Trend Data

A TrendQuery names platforms, data types and a time range. The engine
answers with one TrendData per requested platform. Entries come in three
closed variants, each implementing Entry:

  - HashtagEntry: a hashtag with a mention volume
  - KeywordEntry: a keyword with a volume and computed score
  - ViralEntry: a single post with view and interaction counts

Platform clients and the scraper produce a RawTrendSnapshot, which is
normalized into TrendData before it leaves the source layer.

# Errors

Every failure inside the acquisition layer is a *SourceError carrying an
ErrorCode. ErrorInfoFrom converts any error to the ErrorInfo attached to a
failed TrendData, so callers always receive a code and a message rather
than a bare error.

# API Envelope

APIResponse, Metadata and APIError form the JSON envelope used by every
HTTP endpoint.
*/
package models
