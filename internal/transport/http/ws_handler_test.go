package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
	"trivia-service/internal/infra/memory"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)
	gateway := NewGateway(service, zap.NewNop())

	if _, err := service.SubmitQuestion(ctx, 1, 10, "QA", "Capital of France?", "Paris", 3); err != nil {
		t.Fatalf("submit question: %v", err)
	}
	if _, err := service.PostQuestion(ctx, 1); err != nil {
		t.Fatalf("post question: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gateway.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?communityId=1&userId=42"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Late joiners get the open question first.
	msgType, payload := readNext(conn, t, "question")
	if msgType != "question" {
		t.Fatalf("expected question, got %s", msgType)
	}
	if payload["prompt"] != "Capital of France?" {
		t.Fatalf("unexpected question payload %+v", payload)
	}
	if _, leaked := payload["answer"]; leaked {
		t.Fatalf("question frame must not carry the answer: %+v", payload)
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"text": "paris"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	if msgType, _ = readNext(conn, t, "answerReceived"); msgType != "answerReceived" {
		t.Fatalf("expected answerReceived, got %s", msgType)
	}

	if err := conn.WriteJSON(map[string]any{"type": "leaderboard"}); err != nil {
		t.Fatalf("request leaderboard: %v", err)
	}
	if msgType, _ = readNext(conn, t, "leaderboard"); msgType != "leaderboard" {
		t.Fatalf("expected leaderboard, got %s", msgType)
	}
}

func TestWebSocketRejectsBadParams(t *testing.T) {
	gateway := NewGateway(newTestService(t), zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(gateway.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?communityId=abc&userId=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBroadcastReachesCommunityClients(t *testing.T) {
	service := newTestService(t)
	gateway := NewGateway(service, zap.NewNop())

	server := httptest.NewServer(http.HandlerFunc(gateway.ServeWS))
	defer server.Close()

	dial := func(communityID string) *websocket.Conn {
		u := "ws" + server.URL[len("http"):] + "?communityId=" + communityID + "&userId=1"
		conn, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		return conn
	}
	member := dial("1")
	defer member.Close()
	outsider := dial("2")
	defer outsider.Close()

	// Give both readers a beat to register before broadcasting.
	waitForClients(t, gateway, 2)

	expires := time.Now().Add(5 * time.Minute)
	gateway.AnnounceQuestion(context.Background(), domain.CommunityConfig{CommunityID: 1, ChannelID: 100}, domain.Question{
		ID: 7, CommunityID: 1, Type: domain.TrueFalse, Prompt: "The sky is blue.", Difficulty: 1, ExpiresAt: &expires,
	})

	msgType, payload := readNext(member, t, "question")
	if msgType != "question" || payload["prompt"] != "The sky is blue." {
		t.Fatalf("member did not receive broadcast: %s %+v", msgType, payload)
	}

	_ = outsider.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg map[string]any
	if err := outsider.ReadJSON(&msg); err == nil {
		t.Fatalf("outsider should not receive community 1 broadcasts, got %+v", msg)
	}
}

func waitForClients(t *testing.T, g *Gateway, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		g.mu.RLock()
		total := 0
		for _, set := range g.clients {
			total += len(set)
		}
		g.mu.RUnlock()
		if total >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("clients never registered")
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newTestService(t *testing.T) *app.TriviaService {
	t.Helper()
	questions := memory.NewQuestionRepository()
	return app.NewTriviaService(
		questions,
		memory.NewAnswerRepository(),
		memory.NewLeaderboardRepository(),
		memory.NewCommunityConfigRepository(),
		memory.NewActiveQuestionCache(questions, time.Minute),
		5*time.Minute,
		10,
		zap.NewNop(),
	)
}
