package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// chatSession tracks one Telegram chat.
type chatSession struct {
	busy     bool
	limiter  *rate.Limiter
	lastSeen time.Time
}

// chatSessions lets one turn per chat run at a time and throttles bursts of
// messages or repeated button presses from the same chat.
type chatSessions struct {
	mu       sync.Mutex
	sessions map[int64]*chatSession
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newChatSessions(limit rate.Limit, burst int) *chatSessions {
	return &chatSessions{
		sessions: make(map[int64]*chatSession),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

// begin reports whether a turn may start for chatID. A true result must be
// paired with end.
func (s *chatSessions) begin(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session, exists := s.sessions[chatID]
	if !exists {
		session = &chatSession{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.sessions[chatID] = session
	}
	session.lastSeen = now

	if session.busy || !session.limiter.AllowN(now, 1) {
		return false
	}
	session.busy = true
	return true
}

func (s *chatSessions) end(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[chatID]; ok {
		session.busy = false
	}
}

// prune drops idle sessions not seen within maxIdle and returns how many went.
func (s *chatSessions) prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for chatID, session := range s.sessions {
		if !session.busy && now.Sub(session.lastSeen) > maxIdle {
			delete(s.sessions, chatID)
			removed++
		}
	}
	return removed
}
