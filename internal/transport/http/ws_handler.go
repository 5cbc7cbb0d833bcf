package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/platform/logger"
)

type WSHandler struct {
	engine   *app.Engine
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.Engine, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		engine: engine,
		log:    log,
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

type quizPayload struct {
	QuizID string `json:"quizId"`
}

type questionPayload struct {
	QuizID     string `json:"quizId"`
	QuestionID int    `json:"questionId"`
}

type answerPayload struct {
	QuizID     string `json:"quizId"`
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

type hintPayload struct {
	QuizID     string `json:"quizId"`
	QuestionID int    `json:"questionId"`
	HintID     string `json:"hintId"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errBadPayload marks inbound payloads that could not be decoded.
var errBadPayload = errors.New("invalid payload")

// ServeWS upgrades HTTP requests to websockets and wires them into the engine.
// Every inbound message gets exactly one result or error reply; committed
// engine events are pushed as they happen.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.engine.Subscribe(32)
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "event", Payload: ev}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		payload, err := h.dispatch(r.Context(), inbound)
		if err != nil {
			send <- outboundMessage{Type: "error", Request: inbound.Type, Payload: errorPayload{
				Code:    errorCode(err),
				Message: err.Error(),
			}}
			continue
		}
		send <- outboundMessage{Type: "result", Request: inbound.Type, Payload: payload}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, in inboundMessage) (any, error) {
	switch in.Type {
	case "submitAnswer":
		var p answerPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.engine.SubmitAnswer(ctx, p.QuizID, p.QuestionID, p.Answer)
	case "useHint":
		var p hintPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.engine.UseHint(ctx, p.QuizID, p.QuestionID, p.HintID)
	case "availableHints":
		var p questionPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.engine.AvailableHints(p.QuizID, p.QuestionID)
	case "unlockStatus":
		var p quizPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.engine.UnlockStatus(p.QuizID)
	case "quizState":
		var p quizPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.engine.QuizState(p.QuizID)
	case "resetQuiz":
		var p quizPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		return h.engine.ResetQuiz(ctx, p.QuizID)
	case "points":
		return h.engine.Points(), nil
	case "pendingUnlocks":
		return h.engine.PendingUnlocks(), nil
	case "ackUnlock":
		var p quizPayload
		if err := decode(in.Payload, &p); err != nil {
			return nil, err
		}
		if err := h.engine.MarkUnlockShown(ctx, p.QuizID); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errUnsupported
	}
}

var errUnsupported = errors.New("unsupported message type")

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errBadPayload
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errBadPayload
	}
	return nil
}

func errorCode(err error) string {
	var hintErr *domain.HintError
	switch {
	case errors.As(err, &hintErr):
		return "hint_unavailable"
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz_not_found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "question_not_found"
	case errors.Is(err, domain.ErrQuizLocked):
		return "quiz_locked"
	case errors.Is(err, domain.ErrQuestionNotActive):
		return "question_not_active"
	case errors.Is(err, domain.ErrUnlockNotFound):
		return "unlock_not_found"
	case errors.Is(err, errBadPayload):
		return "invalid_payload"
	case errors.Is(err, errUnsupported):
		return "unsupported"
	default:
		return "internal"
	}
}
