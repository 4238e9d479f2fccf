// Command jpathd is a small HTTP front end to the XPath-over-JSON
// engine: POST an expression and a JSON body to /eval, get back the
// formatted Value. Each request gets a uuid for log correlation, and
// queries are throttled per remote address with a token bucket.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/midbel/jpath/jsonv"
	"github.com/midbel/jpath/node"
	"github.com/midbel/jpath/xpath"
)

func main() {
	var (
		addr      = flag.String("addr", ":8088", "listen address")
		perSecond = flag.Float64("rate", 10, "max queries per second per remote address")
		stepLimit = flag.Int("steps", 100_000, "evaluator step limit per request")
	)
	flag.Parse()

	srv := newServer(*perSecond, *stepLimit)
	log.Printf("jpathd listening on %s", *addr)
	if err := http.ListenAndServe(*addr, srv); err != nil {
		log.Fatal(err)
	}
}

type server struct {
	mux       *http.ServeMux
	stepLimit int
	ratePerS  float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newServer(ratePerS float64, stepLimit int) *server {
	s := &server{
		mux:       http.NewServeMux(),
		stepLimit: stepLimit,
		ratePerS:  ratePerS,
		limiters:  make(map[string]*rate.Limiter),
	}
	s.mux.HandleFunc("POST /eval", s.handleEval)
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// evalRequest keeps "data" as raw bytes rather than decoding it with
// encoding/json straight away: node.New requires the jsonv decoder's
// *jsonv.Object/jsonv.Array shape to preserve document order, and
// encoding/json's map[string]any would silently lose it.
type evalRequest struct {
	Expr string          `json:"expr"`
	Data json.RawMessage `json:"data"`
}

type evalResponse struct {
	RequestID string `json:"requestId"`
	Kind      string `json:"kind"`
	Result    string `json:"result"`
}

func (s *server) handleEval(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	start := time.Now()

	limiter := s.limiterFor(remoteAddr(r))
	if !limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		log.Printf("request=%s status=429 remote=%s", reqID, remoteAddr(r))
		return
	}

	var req evalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := jsonv.Decode(bytes.NewReader(req.Data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tree := node.New(data)
	env := xpath.NewEnvFromTree(tree)
	env.SetStepLimit(s.stepLimit)

	expr, err := xpath.CompileExpression(req.Expr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Printf("request=%s status=400 remote=%s err=%q", reqID, remoteAddr(r), err)
		return
	}
	value, err := expr.Eval(env)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		log.Printf("request=%s status=422 remote=%s err=%q", reqID, remoteAddr(r), err)
		return
	}

	resp := evalResponse{
		RequestID: reqID,
		Kind:      value.Kind().String(),
		Result:    value.Format(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)

	log.Printf("request=%s status=200 remote=%s elapsed=%s", reqID, remoteAddr(r), time.Since(start))
}

func (s *server) limiterFor(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[addr]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.ratePerS), 1)
		s.limiters[addr] = l
	}
	return l
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
