package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trivia-service/internal/app"
	"trivia-service/internal/domain"
)

// Gateway bridges chat clients to the trivia service over websockets.
// Each connection belongs to one community; the scheduler announces
// posted questions and grading results through the same hub.
type Gateway struct {
	service  *app.TriviaService
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
}

type client struct {
	send chan outboundMessage[any]
}

func NewGateway(service *app.TriviaService, log *zap.Logger) *Gateway {
	return &Gateway{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[int64]map[*client]struct{}),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Text string `json:"text"`
}

type answerReceived struct {
	QuestionID  int64     `json:"questionId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView is the posted-question frame; it never carries the
// correct answer.
type questionView struct {
	ID         int64      `json:"id"`
	Prompt     string     `json:"prompt"`
	Type       string     `json:"type"`
	Difficulty int        `json:"difficulty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type resultsView struct {
	QuestionID int64                 `json:"questionId"`
	Prompt     string                `json:"prompt"`
	Answer     string                `json:"answer"`
	Graded     []domain.GradedAnswer `json:"graded"`
}

type leaderboardView struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

func viewOf(q domain.Question) questionView {
	return questionView{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Type:       string(q.Type),
		Difficulty: q.Difficulty,
		ExpiresAt:  q.ExpiresAt,
	}
}

// AnnounceQuestion broadcasts a freshly posted question to the
// community's connected clients.
func (g *Gateway) AnnounceQuestion(_ context.Context, cfg domain.CommunityConfig, q domain.Question) {
	g.broadcast(cfg.CommunityID, outboundMessage[any]{Type: "question", Payload: viewOf(q)})
}

// AnnounceResults broadcasts grading results, revealing the answer.
func (g *Gateway) AnnounceResults(_ context.Context, cfg domain.CommunityConfig, results domain.QuestionResults) {
	g.broadcast(cfg.CommunityID, outboundMessage[any]{Type: "results", Payload: resultsView{
		QuestionID: results.Question.ID,
		Prompt:     results.Question.Prompt,
		Answer:     results.Question.Answer,
		Graded:     results.Graded,
	}})
}

func (g *Gateway) broadcast(communityID int64, msg outboundMessage[any]) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := range g.clients[communityID] {
		select {
		case c.send <- msg:
		default:
			// drop the oldest frame rather than block the hub on a slow client
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- msg:
			default:
			}
		}
	}
}

func (g *Gateway) register(communityID int64, c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clients[communityID] == nil {
		g.clients[communityID] = make(map[*client]struct{})
	}
	g.clients[communityID][c] = struct{}{}
}

func (g *Gateway) unregister(communityID int64, c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if set, ok := g.clients[communityID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(g.clients, communityID)
		}
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// trivia use cases.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	communityID, err := strconv.ParseInt(r.URL.Query().Get("communityId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid communityId", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &client{send: make(chan outboundMessage[any], 16)}
	g.register(communityID, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				g.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	// Late joiners see the open question immediately.
	if question, err := g.service.ActiveQuestion(r.Context(), communityID); err == nil {
		c.send <- outboundMessage[any]{Type: "question", Payload: viewOf(question)}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			answer, err := g.service.SubmitAnswer(r.Context(), communityID, userID, payload.Text)
			if err != nil {
				msg := err.Error()
				if app.IsNotFound(err) {
					msg = "no question is open right now"
				}
				c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
				continue
			}
			c.send <- outboundMessage[any]{Type: "answerReceived", Payload: answerReceived{
				QuestionID:  answer.QuestionID,
				SubmittedAt: answer.SubmittedAt,
			}}
		case "leaderboard":
			entries, err := g.service.Leaderboard(r.Context(), communityID)
			if err != nil {
				c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			c.send <- outboundMessage[any]{Type: "leaderboard", Payload: leaderboardView{Entries: entries}}
		default:
			c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	// Unregister before closing send so the hub cannot write to a
	// closed channel.
	g.unregister(communityID, c)
	close(c.send)
	<-writerDone
}
