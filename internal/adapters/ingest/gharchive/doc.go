// Package gharchive fetches and streams GH Archive hourly shards.
//
// Fetching goes through a disk cache keyed by hour; interrupted downloads
// resume with HTTP Range requests. Reading streams the gzip NDJSON line by
// line with a 32MB line cap, pre-screens the event type with gjson and skips
// (and counts) lines that fail to decode.
package gharchive
