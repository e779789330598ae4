// Command mockchat serves a fake OpenAI-compatible chat completion endpoint
// for trying llmload locally.
//
//	go run ./scripts/testservers/mockchat --port 8080 --delay 200ms --fail-every 10
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type server struct {
	delay     time.Duration
	spread    time.Duration
	words     int
	failEvery int64
	calls     int64
	log       *zap.Logger
}

func main() {
	port := pflag.Int("port", 8080, "Listening port")
	delay := pflag.Duration("delay", 100*time.Millisecond, "Base response delay")
	spread := pflag.Duration("spread", 50*time.Millisecond, "Random extra delay added to each response")
	words := pflag.Int("words", 32, "Words per completion (capped by max_tokens)")
	failEvery := pflag.Int64("fail-every", 0, "Answer every Nth request with HTTP 500 (0 disables)")
	pflag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	s := &server{delay: *delay, spread: *spread, words: *words, failEvery: *failEvery, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", s.handleCompletion)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("mock chat server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func (s *server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	n := atomic.AddInt64(&s.calls, 1)
	wait := s.delay
	if s.spread > 0 {
		wait += time.Duration(rand.Int63n(int64(s.spread)))
	}
	time.Sleep(wait)

	if s.failEvery > 0 && n%s.failEvery == 0 {
		s.log.Debug("injected failure", zap.Int64("call", n), zap.String("request_id", r.Header.Get("X-Request-ID")))
		http.Error(w, `{"error":{"message":"injected failure"}}`, http.StatusInternalServerError)
		return
	}

	words := s.words
	if req.MaxTokens > 0 && req.MaxTokens < words {
		words = req.MaxTokens
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":     fmt.Sprintf("chatcmpl-%d", n),
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "length",
			"message": map[string]string{
				"role":    "assistant",
				"content": strings.TrimSpace(strings.Repeat("lorem ", words)),
			},
		}},
		"usage": map[string]int{"completion_tokens": words},
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
