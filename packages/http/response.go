package http

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/tk0221/envdiff/packages/compare"
)

// ErrorHeader marks envelopes synthesized for a transport failure.
const ErrorHeader = "X-Envdiff-Error"

// Envelope is the captured outcome of dispatching one resolved request.
// Status 0 is reserved for transport failures.
type Envelope struct {
	EnvironmentID string
	RequestID     string
	Status        int
	Time          time.Duration
	Size          int
	Headers       map[string]string
	Body          string
	URL           string

	decodeOnce sync.Once
	decoded    compare.Value
	decodeErr  error
}

// failureBody is the JSON body of a synthesized failure envelope.
type failureBody struct {
	Error string `json:"error"`
	URL   string `json:"url"`
}

// NewFailureEnvelope synthesizes the envelope for a target that could not be
// reached or whose response could not be read.
func NewFailureEnvelope(environmentID, requestURL string, err error) *Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	body, _ := json.Marshal(failureBody{Error: msg, URL: requestURL})
	return &Envelope{
		EnvironmentID: environmentID,
		Status:        0,
		Time:          0,
		Size:          len(body),
		Headers:       map[string]string{ErrorHeader: "true"},
		Body:          string(body),
		URL:           requestURL,
	}
}

// IsFailure reports whether the environment was unreachable, as opposed to
// answering with an HTTP error status.
func (e *Envelope) IsFailure() bool {
	return e.Status == 0
}

// FailureMessage returns the error carried by a failure envelope.
func (e *Envelope) FailureMessage() string {
	if !e.IsFailure() {
		return ""
	}
	var fb failureBody
	if err := json.Unmarshal([]byte(e.Body), &fb); err != nil {
		return e.Body
	}
	return fb.Error
}

func (e *Envelope) Header(key string) string {
	for k, v := range e.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (e *Envelope) ContentType() string {
	return e.Header("Content-Type")
}

func (e *Envelope) IsJSON() bool {
	return strings.Contains(e.ContentType(), "json")
}

func (e *Envelope) IsSuccess() bool {
	return e.Status >= 200 && e.Status < 300
}

func (e *Envelope) DurationMs() int64 {
	return e.Time.Milliseconds()
}

// Fingerprint returns the hex BLAKE3 hash of the body. Equal fingerprints
// mean byte-identical bodies.
func (e *Envelope) Fingerprint() string {
	sum := blake3.Sum256([]byte(e.Body))
	return hex.EncodeToString(sum[:])
}

// Decoded returns the body decoded as JSON. The result is computed once and
// cached; ok is false when the body is not valid JSON.
func (e *Envelope) Decoded() (compare.Value, bool) {
	e.decodeOnce.Do(func() {
		e.decoded, e.decodeErr = compare.FromJSON([]byte(e.Body))
	})
	return e.decoded, e.decodeErr == nil
}
