package review

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"reviewero/internal/apperr"
	"reviewero/internal/httputil"
)

// DefaultGeminiBase is the Gemini REST API root.
const DefaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

// geminiRequest is the request body for the generateContent API.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	Tools            []geminiTool           `json:"tools,omitempty"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiTool enables grounding with Google Search.
type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// geminiResponse is the response from the generateContent API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// geminiErrorBody is the JSON body of a non-2xx response.
type geminiErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// blockedFinishReasons end a candidate without usable text.
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

// complete sends one generateContent call and returns the first candidate's text.
func (s *Synthesizer) complete(ctx context.Context, key, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		Tools:            []geminiTool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: geminiGenerationConfig{Temperature: s.temperature},
	}

	var res geminiResponse
	endpoint := httputil.BuildURL(s.base, nil, "models", s.model+":generateContent")
	if err := httputil.PostJSON(ctx, s.client, endpoint, s.header(key), req, &res); err != nil {
		return "", s.fail(err)
	}

	if res.PromptFeedback != nil && res.PromptFeedback.BlockReason != "" {
		s.obs.Warnf(apperr.ServiceGemini, "prompt blocked: %s", res.PromptFeedback.BlockReason)
		return "", s.report.Report(apperr.ContentBlocked(apperr.ServiceGemini), res.PromptFeedback.BlockReason)
	}
	if len(res.Candidates) == 0 {
		return "", s.report.Report(apperr.ContentBlocked(apperr.ServiceGemini), "no candidates")
	}

	first := res.Candidates[0]
	var text strings.Builder
	for _, p := range first.Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 && blockedFinishReasons[first.FinishReason] {
		return "", s.report.Report(apperr.ContentBlocked(apperr.ServiceGemini), first.FinishReason)
	}
	return text.String(), nil
}

// Validate checks the Gemini key by listing models.
func (s *Synthesizer) Validate(ctx context.Context) error {
	key := s.keys.Key(apperr.ServiceGemini)
	if key == "" {
		return s.report.Report(apperr.InvalidCredential(apperr.ServiceGemini), "validate")
	}
	if err := httputil.GetJSON(ctx, s.client, httputil.BuildURL(s.base, nil, "models"), s.header(key), nil); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Synthesizer) header(key string) http.Header {
	h := http.Header{}
	h.Set("x-goog-api-key", key)
	return h
}

// fail classifies a transport or status error and records it.
func (s *Synthesizer) fail(err error) error {
	var se *httputil.StatusError
	if errors.As(err, &se) {
		return s.report.Report(classifyStatus(se), se.URL)
	}
	return s.report.Report(apperr.FromProviderMessage(apperr.ServiceGemini, err.Error()), s.model)
}

// classifyStatus inspects the error body first: Gemini answers 400 for a bad
// key and 403 PERMISSION_DENIED for a revoked one.
func classifyStatus(se *httputil.StatusError) *apperr.Error {
	var body geminiErrorBody
	msg := ""
	if json.Unmarshal(se.Body, &body) == nil && body.Error != nil {
		msg = strings.TrimSpace(body.Error.Message + " " + body.Error.Status)
	}

	if e := apperr.FromProviderMessage(apperr.ServiceGemini, msg); e.Kind != apperr.KindGeneric {
		return e
	}
	switch se.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.InvalidCredential(apperr.ServiceGemini)
	case http.StatusTooManyRequests:
		return apperr.RateLimited(apperr.ServiceGemini)
	case http.StatusNotFound:
		return apperr.NotFound(apperr.ServiceGemini, "Model")
	}
	if body.Error != nil && body.Error.Message != "" {
		return apperr.FromProviderMessage(apperr.ServiceGemini, body.Error.Message)
	}
	return apperr.FromStatus(apperr.ServiceGemini, se.StatusCode, "")
}
