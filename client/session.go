package client

import "sync"

// Session holds the principal of the current client session. Each
// acquisition supersedes the previous principal.
type Session struct {
	mu        sync.RWMutex
	current   *Principal
	listeners []PrincipalListener
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// OnChange registers a listener called with the new principal, or nil on
// sign out.
func (s *Session) OnChange(listener PrincipalListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// Set replaces the current principal.
func (s *Session) Set(principal *Principal) {
	s.mu.Lock()
	s.current = principal
	listeners := append([]PrincipalListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(principal)
	}
}

// Current returns the current principal.
func (s *Session) Current() (*Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// SignOut clears the current principal.
func (s *Session) SignOut() {
	s.Set(nil)
}

// AuthorizationHeader returns the bearer header for the current principal.
func (s *Session) AuthorizationHeader() string {
	p, ok := s.Current()
	if !ok {
		return ""
	}
	return p.AuthorizationHeader()
}
