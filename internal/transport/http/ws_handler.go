package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"assessment-session-service/internal/app"
	"assessment-session-service/internal/domain"
	"assessment-session-service/internal/engine"
)

// WSHandler drives one assessment session per websocket connection.
type WSHandler struct {
	service  *app.AssessmentService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Value string `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type sessionPayload struct {
	AssessmentID string `json:"assessmentId"`
	SessionID    string `json:"sessionId"`
	Resumed      bool   `json:"resumed"`
	Total        int    `json:"total"`
}

// questionView is the client-safe projection of a question: grading fields
// never cross the wire.
type questionView struct {
	ID        string              `json:"id"`
	Prompt    string              `json:"prompt"`
	Type      domain.QuestionType `json:"type"`
	Options   []string            `json:"options,omitempty"`
	TimeLimit int                 `json:"timeLimit"`
	TopicID   string              `json:"topicId,omitempty"`
	ModuleID  string              `json:"moduleId,omitempty"`
}

type questionPayload struct {
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Question questionView `json:"question"`
}

type tickPayload struct {
	SecondsLeft int `json:"secondsLeft"`
}

// ServeWS upgrades the request and runs the session protocol: the client
// sends answer/next/skip/finish, the engine pushes session/question/tick/
// completed events back.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	assessmentID := r.URL.Query().Get("assessmentId")
	if userID == "" || assessmentID == "" {
		http.Error(w, "missing userId or assessmentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	backend := h.service.ForUser(userID, assessmentID)
	eng := engine.NewSessionEngine(engine.Config{
		Bootstrapper: backend,
		Evaluator:    backend,
		Saver:        backend,
		Finisher:     backend,
	})
	defer eng.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-eng.Events():
				if !ok {
					return
				}
				select {
				case send <- outboundFor(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if err := eng.Start(r.Context()); err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	} else {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			switch inbound.Type {
			case "answer":
				var payload answerPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
					continue
				}
				if err := eng.SetAnswer(payload.Value); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				}
			case "next":
				if err := eng.Next(r.Context()); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				}
			case "skip":
				if err := eng.Skip(r.Context()); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				}
			case "finish":
				if err := eng.Finish(r.Context()); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				}
			default:
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func outboundFor(ev engine.Event) outboundMessage[any] {
	switch ev.Type {
	case engine.EventSessionReady:
		return outboundMessage[any]{Type: "session", Payload: sessionPayload{
			AssessmentID: ev.AssessmentID,
			SessionID:    ev.SessionID,
			Resumed:      ev.Resumed,
			Total:        ev.Total,
		}}
	case engine.EventQuestion:
		return outboundMessage[any]{Type: "question", Payload: questionPayload{
			Index:    ev.Position,
			Total:    ev.Total,
			Question: viewOf(ev.Question),
		}}
	case engine.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{SecondsLeft: ev.SecondsLeft}}
	case engine.EventCompleted:
		return outboundMessage[any]{Type: "completed", Payload: ev.Summary}
	case engine.EventError:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: ev.Err.Error()}}
	}
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unknown event"}}
}

func viewOf(q domain.Question) questionView {
	return questionView{
		ID:        q.ID,
		Prompt:    q.Prompt,
		Type:      q.Type,
		Options:   q.Options,
		TimeLimit: q.TimeLimit(),
		TopicID:   q.TopicID,
		ModuleID:  q.ModuleID,
	}
}
