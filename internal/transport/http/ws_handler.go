package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"lesson-editor-service/internal/app"
	"lesson-editor-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.EditorService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.EditorService) *WSHandler {
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

type indexPayload struct {
	Index int `json:"index"`
}

type movePayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type kindPayload struct {
	Index int         `json:"index"`
	Kind  domain.Kind `json:"kind"`
}

type promptPayload struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

type choicePayload struct {
	Index  int    `json:"index"`
	Choice int    `json:"choice"`
	Text   string `json:"text"`
}

type dragMovePayload struct {
	HoverIndex int     `json:"hoverIndex"`
	RowTop     float64 `json:"rowTop"`
	RowHeight  float64 `json:"rowHeight"`
	PointerY   float64 `json:"pointerY"`
}

type importPayload struct {
	Selected []string `json:"selected"`
}

type candidatesPayload struct {
	Page       int                `json:"page"`
	Candidates []domain.Candidate `json:"candidates"`
	// PreSelected seeds the import dialog: candidates already present in
	// the lesson show as checked and read-only.
	PreSelected []string `json:"preSelected"`
}

type importedPayload struct {
	Count int `json:"count"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// lesson editor use cases. One connection edits one lesson.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lessonID := r.URL.Query().Get("lessonId")
	if lessonID == "" {
		http.Error(w, "missing lessonId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	opened, err := h.service.Open(r.Context(), lessonID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(lessonID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

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
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "snapshot", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "opened", Payload: opened}

	state := &connState{
		lessonID: lessonID,
		seen:     make(map[string]domain.Candidate),
	}
	var wg sync.WaitGroup

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type == "close" {
			h.service.Close(lessonID)
			break
		}
		h.dispatch(r.Context(), state, &wg, send, closeSignals, inbound)
	}

	close(closeSignals)
	wg.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}

// connState is the per-connection editing state: the in-progress drag and
// the candidates this connection has seen, which back import selections.
type connState struct {
	lessonID string
	drag     *app.DragReorder

	mu   sync.Mutex
	seen map[string]domain.Candidate
}

func (c *connState) remember(candidates []domain.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cand := range candidates {
		c.seen[cand.SourceID] = cand
	}
}

func (c *connState) seenCandidates() []domain.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Candidate, 0, len(c.seen))
	for _, cand := range c.seen {
		out = append(out, cand)
	}
	return out
}

func (h *WSHandler) dispatch(ctx context.Context, state *connState, wg *sync.WaitGroup, send chan<- outboundMessage[any], closed <-chan struct{}, inbound inboundMessage) {
	session, err := h.service.Session(state.lessonID)
	if err != nil {
		reply(send, closed, errorMessage(err))
		return
	}

	switch inbound.Type {
	case "append":
		session.AddQuestion()

	case "insert":
		var p indexPayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.InsertQuestionAt(p.Index))

	case "remove":
		var p indexPayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.RemoveAt(p.Index))

	case "move":
		var p movePayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.MoveTo(p.From, p.To))

	case "setKind":
		var p kindPayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.SetKind(p.Index, p.Kind))

	case "setPrompt":
		var p promptPayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.SetPrompt(p.Index, p.Prompt))

	case "setChoice":
		var p choicePayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.SetChoice(p.Index, p.Choice, p.Text))

	case "addChoice":
		var p indexPayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.AddChoice(p.Index))

	case "removeChoice":
		var p choicePayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.RemoveChoice(p.Index, p.Choice))

	case "toggleCorrect":
		var p choicePayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		h.editErr(send, closed, session.ToggleCorrect(p.Index, p.Choice))

	case "dragStart":
		var p indexPayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		drag, err := session.StartDrag(p.Index)
		if err != nil {
			reply(send, closed, errorMessage(err))
			return
		}
		state.drag = drag

	case "dragMove":
		var p dragMovePayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		if state.drag == nil {
			return
		}
		if _, err := state.drag.Hover(p.HoverIndex, app.RowGeometry{Top: p.RowTop, Height: p.RowHeight}, p.PointerY); err != nil {
			reply(send, closed, errorMessage(err))
		}

	case "dragDrop":
		if state.drag != nil {
			state.drag.Drop()
			state.drag = nil
		}

	case "dragCancel":
		if state.drag != nil {
			state.drag.Cancel()
			state.drag = nil
		}

	case "bankSearch":
		var q domain.BankQuery
		if !decode(send, closed, inbound.Payload, &q) {
			return
		}
		// Fetch off the read loop; a search superseded before this one
		// resolves is dropped without a message.
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, accepted, err := h.service.SearchBank(ctx, state.lessonID, q)
			if err != nil {
				reply(send, closed, errorMessage(err))
				return
			}
			if !accepted {
				return
			}
			state.remember(page.Candidates)
			reply(send, closed, outboundMessage[any]{Type: "candidates", Payload: candidatesPayload{
				Page:        page.Page,
				Candidates:  page.Candidates,
				PreSelected: session.ImportedSourceIDs(),
			}})
		}()

	case "import":
		var p importPayload
		if !decode(send, closed, inbound.Payload, &p) {
			return
		}
		count, err := h.service.Import(state.lessonID, state.seenCandidates(), p.Selected)
		if err != nil {
			h.editErr(send, closed, err)
			return
		}
		reply(send, closed, outboundMessage[any]{Type: "imported", Payload: importedPayload{Count: count}})

	case "save":
		draft, err := h.service.Save(ctx, state.lessonID)
		if err != nil {
			reply(send, closed, errorMessage(err))
			return
		}
		reply(send, closed, outboundMessage[any]{Type: "saved", Payload: draft})

	default:
		reply(send, closed, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}

// editErr translates store errors into user-facing messages. Immutability
// and empty-import outcomes are informational notices, not failures.
func (h *WSHandler) editErr(send chan<- outboundMessage[any], closed <-chan struct{}, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrImmutableItem) || errors.Is(err, domain.ErrNothingNewToImport) {
		reply(send, closed, outboundMessage[any]{Type: "notice", Payload: errorPayload{Message: err.Error()}})
		return
	}
	reply(send, closed, errorMessage(err))
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

func decode(send chan<- outboundMessage[any], closed <-chan struct{}, raw json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		reply(send, closed, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid payload"}})
		return false
	}
	return true
}

func reply(send chan<- outboundMessage[any], closed <-chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-closed:
	}
}
