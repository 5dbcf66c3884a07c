package healthz

import (
	"fmt"
	"net/http"
	"sync"
)

// Handler answers health checks for the debug server, and reports how far a
// render has progressed.
type Handler struct {
	lock  sync.Mutex
	done  int
	total int
}

func New() *Handler {
	return &Handler{}
}

// SetProgress has the signature of render.ProgressFunction.
func (h *Handler) SetProgress(done, total int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.done = done
	h.total = total
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.lock.Lock()
	done, total := h.done, h.total
	h.lock.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if total == 0 {
		w.Write([]byte("200 OK\n"))
		return
	}
	fmt.Fprintf(w, "200 OK\nrows %d/%d\n", done, total)
}
