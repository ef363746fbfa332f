package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"smart-board-game/internal/app"
	"smart-board-game/internal/domain"
)

// WSHandler gives every websocket connection its own game session.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
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

type namePayload struct {
	Name string `json:"name"`
}

type roundPayload struct {
	RoundID string `json:"roundId"`
}

type questionPayload struct {
	QuestionID string `json:"questionId"`
}

type answerPayload struct {
	Answer *domain.Answer `json:"answer"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type ignoredPayload struct {
	Operation string `json:"operation"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one play-through per connection.
// An optional name query parameter registers the player right away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID, engine := h.service.Open()
	defer h.service.Close(sessionID)

	updates, cancel := engine.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	deliver(send, writerDone, outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: sessionID}})

	go func() {
		defer close(updatesDone)
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: PublicState(state)}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if name := r.URL.Query().Get("name"); name != "" {
		engine.SetPlayer(name)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg, ok := handleInbound(engine, inbound)
		if ok && !deliver(send, writerDone, msg) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// deliver queues msg for the writer and reports false once the writer has
// stopped on a write error.
func deliver(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// handleInbound applies one message. Accepted operations need no direct reply;
// the resulting state reaches the client through the subscription.
func handleInbound(engine *app.Engine, inbound inboundMessage) (outboundMessage[any], bool) {
	if inbound.Type == "state" {
		return outboundMessage[any]{Type: "state", Payload: PublicState(engine.State())}, true
	}
	applied, err := dispatch(engine, inbound)
	if err != nil {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}, true
	}
	if !applied {
		return outboundMessage[any]{Type: "ignored", Payload: ignoredPayload{Operation: inbound.Type}}, true
	}
	return outboundMessage[any]{}, false
}

var (
	errUnsupported    = errors.New("unsupported message type")
	errInvalidPayload = errors.New("invalid payload")
)

// dispatch applies one inbound message to the engine and reports whether the
// engine accepted it.
func dispatch(engine *app.Engine, msg inboundMessage) (bool, error) {
	switch msg.Type {
	case "setPlayer":
		var p namePayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return false, err
		}
		return engine.SetPlayer(p.Name), nil
	case "selectRound":
		var p roundPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return false, err
		}
		return engine.SelectRound(p.RoundID), nil
	case "startGame":
		return engine.StartGame(), nil
	case "selectQuestion":
		var p questionPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return false, err
		}
		return engine.SelectQuestion(p.QuestionID), nil
	case "answer":
		var p answerPayload
		if err := decodePayload(msg.Payload, &p); err != nil || p.Answer == nil {
			return false, errInvalidPayload
		}
		return engine.AnswerQuestion(*p.Answer), nil
	case "skip":
		return engine.SkipQuestion(), nil
	case "next":
		return engine.NextQuestion(), nil
	case "end":
		return engine.EndGame(), nil
	case "reset":
		return engine.ResetGame(), nil
	default:
		return false, errUnsupported
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errInvalidPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

// PublicState strips answer keys from every question that has no outcome yet.
func PublicState(state domain.GameState) domain.GameState {
	questions := make([]domain.Question, len(state.Questions))
	for i, q := range state.Questions {
		if _, done := state.AnsweredQuestions[q.ID]; done {
			questions[i] = q
		} else {
			questions[i] = q.Public()
		}
	}
	state.Questions = questions
	if q := state.CurrentQuestion; q != nil {
		if _, done := state.AnsweredQuestions[q.ID]; !done {
			public := q.Public()
			state.CurrentQuestion = &public
		}
	}
	return state
}
