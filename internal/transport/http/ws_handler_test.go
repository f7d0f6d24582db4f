package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"assessment-session-service/internal/app"
	"assessment-session-service/internal/domain"
	"assessment-session-service/internal/infra/memory"
)

func TestWebSocketSessionFlow(t *testing.T) {
	service := app.NewAssessmentService(
		memory.NewAssessmentRepository(memory.NewStaticAssessmentLoader(sampleAssessments()), time.Minute),
		memory.NewProgressStore(),
		memory.NewResultStore(),
	)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=u1&assessmentId=placement-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the session event first, then the first question.
	_, payload := readNext(conn, t, "session")
	if payload["sessionId"] == "" || payload["assessmentId"] != "placement-1" {
		t.Fatalf("unexpected session payload %+v", payload)
	}

	_, payload = readUntil(conn, t, "question")
	question, _ := payload["question"].(map[string]any)
	if question["id"] != "q1" {
		t.Fatalf("expected q1 first, got %+v", question)
	}
	if _, leaked := question["correctOption"]; leaked {
		t.Fatalf("answer key leaked to client: %+v", question)
	}

	// Answer correctly and move on.
	writeMsg(conn, t, map[string]any{"type": "answer", "payload": map[string]any{"value": "1"}})
	writeMsg(conn, t, map[string]any{"type": "next"})

	_, payload = readUntil(conn, t, "question")
	question, _ = payload["question"].(map[string]any)
	if question["id"] != "q2" {
		t.Fatalf("expected q2 next, got %+v", question)
	}

	// Skip the last question; the session finalizes on its own.
	writeMsg(conn, t, map[string]any{"type": "skip"})

	_, payload = readUntil(conn, t, "completed")
	if payload["total"].(float64) != 2 || payload["correct"].(float64) != 1 || payload["skipped"].(float64) != 1 {
		t.Fatalf("unexpected summary %+v", payload)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	service := app.NewAssessmentService(
		memory.NewAssessmentRepository(memory.NewStaticAssessmentLoader(sampleAssessments()), time.Minute),
		memory.NewProgressStore(),
		memory.NewResultStore(),
	)
	wsHandler := NewWSHandler(service)

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?userId=u1")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func writeMsg(conn *websocket.Conn, t *testing.T, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
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

// readUntil drains tick events until the wanted type arrives.
func readUntil(conn *websocket.Conn, t *testing.T, want string) (string, map[string]any) {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == want {
			return typ, payload
		}
	}
	t.Fatalf("never received %s", want)
	return "", nil
}

func sampleAssessments() map[string]domain.Assessment {
	return map[string]domain.Assessment{
		"placement-1": {
			ID: "placement-1",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Prompt:        "What is 2 + 2?",
					Type:          domain.QuestionTypeMCQ,
					Options:       []string{"3", "4", "5"},
					CorrectOption: 1,
					TopicID:       "arithmetic",
				},
				{
					ID:              "q2",
					Prompt:          "Name the capital of France.",
					Type:            domain.QuestionTypeText,
					AcceptedAnswers: []string{"Paris"},
					TopicID:         "geography",
				},
			},
		},
	}
}
