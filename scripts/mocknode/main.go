// Mocknode is a fake execution node used for relay testing. It answers
// JSON-RPC requests on / and exposes control endpoints to change its
// behavior at runtime.
//
// Usage:
//
//	go run ./scripts/mocknode -port 8545 -name node1
//	go run ./scripts/mocknode -port 8546 -name node2 -delay 200ms -syncing
//
// Control endpoints:
//
//	POST /mock/set_response  — body becomes the canned JSON-RPC response
//	POST /mock/syncing       — toggles the eth_syncing answer
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
}

func main() {
	port := flag.Int("port", 8545, "port to listen on")
	name := flag.String("name", "mocknode", "node name, echoed in responses")
	delay := flag.Duration("delay", 0, "artificial delay before answering")
	syncing := flag.Bool("syncing", false, "report the node as syncing")
	flag.Parse()

	var mu sync.Mutex
	isSyncing := *syncing
	cannedResponse := []byte{}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		log.Printf("request: method=%s path=%s from=%s body=%s", r.Method, r.URL.Path, r.RemoteAddr, string(body))

		if *delay > 0 {
			time.Sleep(*delay)
		}

		var req rpcRequest
		json.Unmarshal(body, &req)
		id := req.ID
		if id == nil {
			id = json.RawMessage("1")
		}

		mu.Lock()
		canned := cannedResponse
		syncingNow := isSyncing
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if req.Method == "eth_syncing" {
			if syncingNow {
				fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":{"startingBlock":"0x0","currentBlock":"0x1a2b","highestBlock":"0x3c4d"}}`, id)
			} else {
				fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":false}`, id)
			}
			return
		}

		if len(canned) > 0 {
			w.Write(canned)
			return
		}

		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":{"node":"%s","method":"%s"}}`, id, *name, req.Method)
	})

	mux.HandleFunc("/mock/set_response", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		mu.Lock()
		cannedResponse = body
		mu.Unlock()
		log.Printf("canned response set (%d bytes)", len(body))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/mock/syncing", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		mu.Lock()
		isSyncing = !isSyncing
		now := isSyncing
		mu.Unlock()
		log.Printf("syncing toggled to %v", now)
		fmt.Fprintf(w, "syncing=%v\n", now)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting mock node %q on %s (syncing=%v delay=%v)", *name, addr, isSyncing, *delay)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
