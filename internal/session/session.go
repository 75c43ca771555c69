// Package session holds the state of one conversation with the assistant and
// answers user prompts: booking requests, general chat and listing searches.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/pkg/llm"
)

// Session is the state of one conversation. It is created when the chat
// starts and cleared by Reset; nothing else outlives a prompt.
type Session struct {
	ID             string
	StartedAt      time.Time
	History        []llm.Message
	Results        []crawler.Result
	Summary        string
	Recommendation string
}

// New starts a session with a fresh id.
func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Reset drops history, results and the cached recommendation and assigns a
// new id.
func (s *Session) Reset() {
	*s = *New()
}

// Add appends a message to the history.
func (s *Session) Add(role llm.Role, content string) {
	s.History = append(s.History, llm.Message{Role: role, Content: content})
}

// Listings returns the results that were parsed successfully.
func (s *Session) Listings() []crawler.Result {
	out := make([]crawler.Result, 0, len(s.Results))
	for _, r := range s.Results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// BookingURL returns the detail URL of the first listing, if any.
func (s *Session) BookingURL() (string, bool) {
	listings := s.Listings()
	if len(listings) == 0 {
		return "", false
	}
	return listings[0].SourceURL, true
}
