// Package web serves the single unauthenticated liveness route.
package web

import (
	"log"
	"net/http"
)

// Serve blocks on the health endpoint; run it in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Ticket Bot Online"))
	})

	log.Printf("[web] Health endpoint listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[web] Health endpoint stopped: %v", err)
	}
}
