package http

import "time"

func (s *Server) SetNow(fn func() time.Time) {
	s.nowFn = fn
}
