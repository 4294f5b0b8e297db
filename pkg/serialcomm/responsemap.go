package serialcomm

import "sync"

// responseMap is the id-keyed concurrent map for responses the design
// notes call for: a per-id channel eliminates the busy-wait blocking Get
// performed in the original source. Entries are written by the receiver
// and removed by the requester (or, if nobody is waiting yet, parked in
// pending until someone asks).
type responseMap struct {
	mu      sync.Mutex
	pending map[int]Response
	waiters map[int]chan Response
}

func newResponseMap() *responseMap {
	return &responseMap{
		pending: make(map[int]Response),
		waiters: make(map[int]chan Response),
	}
}

// Store records a response under id, waking any blocked Get for that id.
func (r *responseMap) Store(id int, resp Response) {
	r.mu.Lock()
	if ch, ok := r.waiters[id]; ok {
		delete(r.waiters, id)
		r.mu.Unlock()
		ch <- resp
		return
	}
	r.pending[id] = resp
	r.mu.Unlock()
}

// Get retrieves and removes the response for id. If block is true and no
// response has arrived yet, it waits on a per-id channel instead of
// spinning. If block is false and no response is present, ok is false.
func (r *responseMap) Get(id int, block bool) (resp Response, ok bool) {
	r.mu.Lock()
	if resp, ok := r.pending[id]; ok {
		delete(r.pending, id)
		r.mu.Unlock()
		return resp, true
	}
	if !block {
		r.mu.Unlock()
		return Response{}, false
	}
	ch := make(chan Response, 1)
	r.waiters[id] = ch
	r.mu.Unlock()

	resp = <-ch
	return resp, true
}

// drainUnclaimed returns every response never popped by a caller, for
// logging at shutdown, and clears the map.
func (r *responseMap) drainUnclaimed() map[int]Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = make(map[int]Response)
	r.waiters = make(map[int]chan Response)
	return out
}
