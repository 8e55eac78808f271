package httpd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"humancron/internal/task"
	logx "humancron/pkg/logx"
)

// clientSeq numbers SSE connections for the hello frame and log correlation.
var clientSeq atomic.Int64

type sseHello struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

type sseRun struct {
	Type string     `json:"type"`
	Task *task.Task `json:"task"`
}

// handleEvents streams one frame per firing to the connected viewer:
// a hello frame on connect, then {"type":"run","task":{...}} frames.
// Frames a slow client cannot keep up with are dropped by the bus, not
// buffered without bound.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id := clientSeq.Add(1)
	sub, unsubscribe := s.bus.Subscribe(32)
	defer unsubscribe()

	writeFrame(w, sseHello{Type: "hello", ID: id})
	flusher.Flush()
	s.log.Debug("sse client connected", logx.Int64("client", id))

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("sse client disconnected", logx.Int64("client", id))
			return
		case f, ok := <-sub:
			if !ok {
				return
			}
			writeFrame(w, sseRun{Type: "run", Task: f.Task})
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
}
