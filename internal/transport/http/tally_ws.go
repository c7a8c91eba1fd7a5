package http

import (
	"log"
	"net/http"
	"strconv"

	"email-quiz-service/internal/app"
	"email-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// TallyFeed streams per-question tally snapshots over a websocket so the
// results page can update live as votes land.
type TallyFeed struct {
	hub      *app.TallyHub
	ledger   app.AttemptLedger
	upgrader websocket.Upgrader
}

func NewTallyFeed(hub *app.TallyHub, ledger app.AttemptLedger) *TallyFeed {
	return &TallyFeed{
		hub:    hub,
		ledger: ledger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type tallyMessage struct {
	Type    string       `json:"type"`
	Payload domain.Tally `json:"payload"`
}

// ServeWS upgrades the request and replays the current tally followed by
// every update until the client disconnects.
func (f *TallyFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(r.URL.Query().Get("question"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid question", http.StatusBadRequest)
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshot, err := f.ledger.Tally(r.Context(), questionID)
	if err != nil {
		log.Printf("tally snapshot failed: %v", err)
		return
	}

	updates, cancel := f.hub.Subscribe(questionID)
	defer cancel()

	if err := conn.WriteJSON(tallyMessage{Type: "tally", Payload: snapshot}); err != nil {
		return
	}

	// Reader only detects disconnects; the feed is one-directional.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(tallyMessage{Type: "tally", Payload: update}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
