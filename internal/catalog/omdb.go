package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"reviewero/internal/apperr"
	"reviewero/internal/httputil"
	"reviewero/internal/observe"
)

// DefaultOMDbBase is the OMDb API root.
const DefaultOMDbBase = "https://www.omdbapi.com"

// OMDb is the secondary catalog. It answers 200 with Response "False" for
// most failures, so the Error text is classified instead of the status.
type OMDb struct {
	base   string
	keys   KeySource
	client *http.Client
	report apperr.Reporter
}

type omdbResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Title    string `json:"Title"`
	Plot     string `json:"Plot"`
}

// NewOMDb creates the secondary catalog client.
func NewOMDb(base string, keys KeySource, client *http.Client, obs observe.Observer) *OMDb {
	if base == "" {
		base = DefaultOMDbBase
	}
	if client == nil {
		client = httputil.NewClient()
	}
	return &OMDb{
		base:   base,
		keys:   keys,
		client: client,
		report: apperr.Reporter{Observer: obs},
	}
}

// Configured reports whether an OMDb key is available.
func (o *OMDb) Configured() bool {
	return o.keys.Key(apperr.ServiceOMDb) != ""
}

// Plot returns the short plot for an IMDb id. "N/A" plots come back empty.
func (o *OMDb) Plot(ctx context.Context, externalID string) (string, error) {
	if err := httputil.ValidateExternalID(externalID); err != nil {
		return "", o.report.Report(apperr.Generic(apperr.ServiceOMDb, "Invalid external id %q.", externalID), "plot")
	}
	res, err := o.lookup(ctx, externalID)
	if err != nil {
		return "", err
	}
	plot := httputil.PlainText(res.Plot)
	if strings.EqualFold(plot, "N/A") {
		return "", nil
	}
	return plot, nil
}

// Validate checks the OMDb key with a lookup of a well-known title.
func (o *OMDb) Validate(ctx context.Context) error {
	_, err := o.lookup(ctx, "tt0133093")
	return err
}

func (o *OMDb) lookup(ctx context.Context, externalID string) (omdbResponse, error) {
	key := o.keys.Key(apperr.ServiceOMDb)
	if key == "" {
		return omdbResponse{}, o.report.Report(apperr.InvalidCredential(apperr.ServiceOMDb), externalID)
	}

	q := url.Values{"i": {externalID}, "plot": {"short"}, "apikey": {key}}
	var res omdbResponse
	if err := httputil.GetJSON(ctx, o.client, httputil.BuildURL(o.base, q), nil, &res); err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) {
			return omdbResponse{}, o.report.Report(o.classifyStatus(se), externalID)
		}
		return omdbResponse{}, o.report.Report(apperr.Classify(apperr.ServiceOMDb, err), externalID)
	}

	if strings.EqualFold(res.Response, "False") {
		if strings.Contains(strings.ToLower(res.Error), "not found") {
			return omdbResponse{}, o.report.Report(apperr.NotFound(apperr.ServiceOMDb, externalID), "lookup")
		}
		return omdbResponse{}, o.report.Report(apperr.FromProviderMessage(apperr.ServiceOMDb, res.Error), externalID)
	}
	return res, nil
}

// classifyStatus prefers the provider's message for 401s, which OMDb also
// uses for exhausted daily limits.
func (o *OMDb) classifyStatus(se *httputil.StatusError) *apperr.Error {
	var body omdbResponse
	if se.StatusCode == http.StatusUnauthorized && decodeLoose(se.Body, &body) && body.Error != "" {
		return apperr.FromProviderMessage(apperr.ServiceOMDb, body.Error)
	}
	return apperr.FromStatus(apperr.ServiceOMDb, se.StatusCode, "")
}

func decodeLoose(data []byte, out any) bool {
	return json.Unmarshal(data, out) == nil
}
