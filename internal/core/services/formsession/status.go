package formsession

import (
	"fmt"
	"time"
)

// showNoticeLocked replaces the transient message. A positive ttl dismisses
// it later unless a newer message took its place.
func (s *Session) showNoticeLocked(text string, ttl time.Duration) {
	s.noticeGen++
	s.notice = text
	if ttl <= 0 {
		return
	}
	gen := s.noticeGen
	s.clock.AfterFunc(ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.noticeGen == gen {
			s.notice = ""
		}
	})
}

// Notice returns the transient status message, if any
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// DismissNotice clears the transient status message
func (s *Session) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noticeGen++
	s.notice = ""
}

// SaveIndicator is the one-line save status shown next to the breadcrumb
func (s *Session) SaveIndicator() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.notice != "":
		return s.notice
	case s.lastSave.IsZero():
		return ""
	case s.dirty:
		return "● Unsaved changes"
	default:
		return "✓ Saved " + relativeTime(s.clock.Now(), s.lastSave)
	}
}

func relativeTime(now, t time.Time) string {
	mins := int(now.Sub(t) / time.Minute)
	switch {
	case mins < 1:
		return "just now"
	case mins == 1:
		return "1 min ago"
	case mins < 60:
		return fmt.Sprintf("%d mins ago", mins)
	}

	hours := mins / 60
	switch {
	case hours == 1:
		return "1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	}
	return t.Format("Jan 2, 2006")
}
