package ttlcache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one cached response.
type Entry struct {
	Namespace  string          `json:"namespace"`
	Key        string          `json:"key"`
	Subject    string          `json:"subject"`
	Params     json.RawMessage `json:"params"`
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  time.Time       `json:"fetched_at"`
	TTLMinutes int             `json:"ttl_minutes"`
}

// ExpiresAt is the first instant the entry is no longer served.
func (e Entry) ExpiresAt() time.Time {
	return e.FetchedAt.Add(time.Duration(e.TTLMinutes) * time.Minute)
}

// Fresh reports whether the entry may be served at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt())
}

// Key builds the cache key for subject and params. Params are encoded with
// encoding/json, so struct fields keep declaration order and map keys are
// sorted, giving equal parameter values equal keys.
func Key(subject string, params any) (string, json.RawMessage, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", nil, fmt.Errorf("encode cache params: %w", err)
	}
	return subject + "|" + string(encoded), encoded, nil
}
