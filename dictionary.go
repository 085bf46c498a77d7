package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ValidationResult is the normalized outcome of a dictionary lookup.
// It doubles as the response body of /api/validate-word.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Meaning string `json:"meaning,omitempty"`
	Message string `json:"message,omitempty"`
}

// Dictionary validates words against an external lookup service.
// Upstream failures never propagate to callers; they degrade to an
// invalid result.
type Dictionary struct {
	baseURL string
	client  *http.Client
}

func NewDictionary(baseURL string, timeout time.Duration) *Dictionary {
	return &Dictionary{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// lookupResponse matches the lookup service's response body: a list of
// dictionary entries for the queried word, empty when unknown.
type lookupResponse struct {
	Entries []string `json:"teks"`
}

// Validate checks a single word against the dictionary. Words that are
// not exactly 5 letters are rejected locally, without an external call.
// One attempt per call, no retry.
func (d *Dictionary) Validate(ctx context.Context, word string) ValidationResult {
	if len(word) != 5 {
		return ValidationResult{Message: "word must be 5 letters"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/search?q="+url.QueryEscape(word), nil)
	if err != nil {
		return ValidationResult{Message: "dictionary lookup failed"}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("word", word).Msg("dictionary lookup failed")

		return ValidationResult{Message: "dictionary lookup failed"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("word", word).Msg("dictionary lookup failed")

		return ValidationResult{Message: "dictionary lookup failed"}
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn().Err(err).Str("word", word).Msg("malformed dictionary response")

		return ValidationResult{Message: "dictionary lookup failed"}
	}

	if len(body.Entries) == 0 {
		return ValidationResult{Message: "word not found in dictionary"}
	}

	return ValidationResult{
		Valid:   true,
		Meaning: strings.Join(body.Entries, "; "),
	}
}
