package pipeline

import (
	"regexp"
	"strconv"

	"reviewero/internal/apperr"
	"reviewero/internal/media"
)

// streamPath matches /stream/{kind}/{imdb id}(:{season}:{episode})?.json.
var streamPath = regexp.MustCompile(`^/stream/(movie|series)/(tt\d{1,14})(?::(\d{1,4}):(\d{1,5}))?\.json$`)

// InvalidFormatMessage is shown for any path that does not match the stream route.
const InvalidFormatMessage = "Invalid request format."

// ParseStreamPath decodes a protocol path into a query. Movies may not carry
// a season or episode, and both must be positive when present.
func ParseStreamPath(path string) (media.Query, error) {
	m := streamPath.FindStringSubmatch(path)
	if m == nil {
		return media.Query{}, invalidFormat()
	}

	kind, err := media.ParseKind(m[1])
	if err != nil {
		return media.Query{}, invalidFormat()
	}
	q := media.Query{Kind: kind, ExternalID: m[2]}

	if m[3] != "" {
		q.Season, _ = strconv.Atoi(m[3])
		q.Episode, _ = strconv.Atoi(m[4])
	}
	if err := q.Validate(); err != nil {
		return media.Query{}, invalidFormat()
	}
	if q.Kind == media.Series && m[3] != "" && !q.HasEpisode() {
		return media.Query{}, invalidFormat()
	}
	return q, nil
}

func invalidFormat() *apperr.Error {
	return apperr.Generic(apperr.ServicePipeline, InvalidFormatMessage)
}
