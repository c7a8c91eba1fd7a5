package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"email-quiz-service/internal/app"
	"email-quiz-service/internal/domain"
	"email-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func readTally(t *testing.T, conn *websocket.Conn) tallyMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg tallyMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read tally message: %v", err)
	}
	if msg.Type != "tally" {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
	return msg
}

func TestTallyFeedSnapshotThenUpdates(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedger()
	hub := app.NewTallyHub()
	feed := NewTallyFeed(hub, ledger)

	if err := ledger.Append(ctx, domain.Attempt{
		QuestionID:     1,
		Email:          "a@x.com",
		SelectedOption: 2,
		IsCorrect:      true,
		VotedAt:        time.Now(),
	}); err != nil {
		t.Fatalf("seed attempt: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/tally/ws", feed.ServeWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tally/ws?question=1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	snapshot := readTally(t, conn)
	if snapshot.Payload.Total != 1 || snapshot.Payload.Counts[1] != 1 {
		t.Fatalf("unexpected snapshot %+v", snapshot.Payload)
	}

	if err := ledger.Append(ctx, domain.Attempt{
		QuestionID:     1,
		Email:          "b@x.com",
		SelectedOption: 3,
		VotedAt:        time.Now(),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	tally, err := ledger.Tally(ctx, 1)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	hub.Publish(tally)

	update := readTally(t, conn)
	if update.Payload.Total != 2 || update.Payload.Counts[2] != 1 {
		t.Fatalf("unexpected update %+v", update.Payload)
	}
}

func TestTallyFeedRequiresQuestionParam(t *testing.T) {
	feed := NewTallyFeed(app.NewTallyHub(), memory.NewLedger())
	rec := httptest.NewRecorder()
	feed.ServeWS(rec, httptest.NewRequest(http.MethodGet, "/tally/ws", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request without question param, got %d", rec.Code)
	}
}

func TestTallyFeedIgnoresOtherQuestions(t *testing.T) {
	ledger := memory.NewLedger()
	hub := app.NewTallyHub()
	feed := NewTallyFeed(hub, ledger)

	mux := http.NewServeMux()
	mux.HandleFunc("/tally/ws", feed.ServeWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tally/ws?question=1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Empty snapshot first.
	snapshot := readTally(t, conn)
	if snapshot.Payload.Total != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot.Payload)
	}

	// A publish for another question must not surface on this feed.
	hub.Publish(domain.Tally{QuestionID: 42, Total: 9})
	hub.Publish(domain.Tally{QuestionID: 1, Total: 1, Counts: [domain.OptionCount]int{1, 0, 0}})

	update := readTally(t, conn)
	if update.Payload.QuestionID != 1 || update.Payload.Total != 1 {
		t.Fatalf("expected only question 1 updates, got %+v", update.Payload)
	}
}
