// Package session holds the interactive client's local state
package session

import (
	"io"
	"os"

	"chesstral/internal/client/api"
	"chesstral/internal/core"
)

// Session implements commands.Session
type Session struct {
	APIBaseURL     string
	CurrentSession string
	State          *core.SessionResponse
	Client         *api.Client
	Verbose        bool
	Out            io.Writer
}

// New creates a client session against baseURL writing to stdout
func New(baseURL string) *Session {
	c := api.New(baseURL)
	return &Session{
		APIBaseURL: c.BaseURL,
		Client:     c,
		Out:        os.Stdout,
	}
}

func (s *Session) GetAPIBaseURL() string {
	return s.APIBaseURL
}

func (s *Session) SetAPIBaseURL(url string) {
	s.APIBaseURL = url
}

func (s *Session) GetCurrentSession() string {
	return s.CurrentSession
}

func (s *Session) GetClient() *api.Client {
	return s.Client
}

func (s *Session) IsVerbose() bool {
	return s.Verbose
}

func (s *Session) GetState() *core.SessionResponse {
	return s.State
}

// SetCurrentSession switches sessions and drops the cached state of the old one
func (s *Session) SetCurrentSession(id string) {
	if id != s.CurrentSession {
		s.State = nil
	}
	s.CurrentSession = id
}

func (s *Session) SetState(state *core.SessionResponse) {
	s.State = state
}

func (s *Session) Writer() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}
