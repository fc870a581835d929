// Package stremio serves reviews as a Stremio addon: each stream request
// answers with one informational entry whose title carries the review.
package stremio

import (
	"strconv"
	"strings"

	"reviewero/internal/pipeline"
)

// AddonName is shown as the stream name in Stremio clients.
const AddonName = "Reviewero"

// BehaviorHints tells the client the entry cannot be played.
type BehaviorHints struct {
	NotWebReady bool `json:"notWebReady"`
}

// Stream is one entry of a stream response.
type Stream struct {
	Name          string        `json:"name"`
	Title         string        `json:"title"`
	InfoHash      string        `json:"infoHash"`
	BehaviorHints BehaviorHints `json:"behaviorHints"`
}

// Response is the body of /stream/{kind}/{id}.json.
type Response struct {
	Streams []Stream `json:"streams"`
}

// Describe converts an outcome into a single-entry response. Failures carry
// the error message as the title.
func Describe(out pipeline.Outcome, externalID string, season, episode int) Response {
	title := pipeline.InvalidFormatMessage
	switch {
	case out.State == pipeline.Succeeded:
		title = out.Review.Text()
	case out.Err != nil:
		title = out.Err.Message
	}
	return Message(title, externalID, season, episode)
}

// Message builds a single-entry response with a fixed title.
func Message(title, externalID string, season, episode int) Response {
	return Response{Streams: []Stream{{
		Name:          AddonName,
		Title:         title,
		InfoHash:      InfoHash(externalID, season, episode),
		BehaviorHints: BehaviorHints{NotWebReady: true},
	}}}
}

// InfoHash derives a 40 hex character token from the request identity using
// a 32-bit rolling hash (h = h*31 + c). Collisions are possible; the token is
// only stable, not unique.
func InfoHash(externalID string, season, episode int) string {
	key := externalID + part(season) + part(episode)

	var h int32
	for _, c := range key {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	hex := strconv.FormatInt(v, 16)
	return strings.Repeat("0", 40-len(hex)) + hex
}

func part(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
