package dashboard

import (
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/umlgen/internal/apperr"
	"github.com/ziadkadry99/umlgen/internal/conversation"
	"github.com/ziadkadry99/umlgen/internal/credentials"
	"github.com/ziadkadry99/umlgen/internal/transcript"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type     string `json:"type"` // message, reset, edit, credential or clear_credential
	Content  string `json:"content"`
	Remember bool   `json:"remember,omitempty"`
}

type renderedMessage struct {
	ID        string    `json:"id"`
	FromUser  bool      `json:"from_user"`
	HTML      string    `json:"html"`
	Timestamp time.Time `json:"timestamp"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type       string              `json:"type"` // state, credential_required or error
	State      *conversation.State `json:"state,omitempty"`
	DiagramURL string              `json:"diagram_url,omitempty"`
	Messages   []renderedMessage   `json:"messages,omitempty"`
	Kind       apperr.Kind         `json:"kind,omitempty"`
	Message    string              `json:"message,omitempty"`
}

// chatSession binds one websocket connection to one conversation.
type chatSession struct {
	d      *Dashboard
	conn   *websocket.Conn
	ctrl   *conversation.Controller
	logger *slog.Logger

	writeMu sync.Mutex
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	credential, err := credentials.Resolve(ctx, d.cfg.Credentials, d.cfg.Provider)
	if err != nil {
		d.logger.Warn("loading stored credential", "error", err)
	}

	opts := []conversation.Option{
		conversation.WithCredential(credential),
		conversation.WithLogger(d.logger),
		conversation.WithGenerationTimeout(d.cfg.GenerationTimeout),
	}
	if d.cfg.Observer != nil {
		opts = append(opts, conversation.WithObserver(d.cfg.Observer))
	}
	ctrl := conversation.New(d.cfg.Gateway, opts...)

	s := &chatSession{d: d, conn: conn, ctrl: ctrl}
	s.logger = d.logger.With("session_id", ctrl.State().SessionID)
	s.logger.Info("chat session opened")

	unsubscribe := ctrl.Subscribe(s.onEvent)
	defer func() {
		unsubscribe()
		ctrl.Reset()
		ctrl.Wait()
		s.logger.Info("chat session closed")
	}()

	s.sendState(ctrl.State())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "error", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError("", "invalid message format")
			continue
		}
		s.handle(r, req)
	}
}

func (s *chatSession) handle(r *http.Request, req chatRequest) {
	ctx := r.Context()
	store := s.d.cfg.Credentials

	switch req.Type {
	case "message":
		effect, err := s.ctrl.Submit(req.Content)
		switch {
		case errors.Is(err, apperr.ErrMissingCredential):
			// Already announced through a credential_required event.
		case err != nil:
			s.sendAppError(err)
		case effect == conversation.EffectNone:
			s.logger.Debug("message ignored while a diagram is generating")
		}
	case "reset":
		s.ctrl.Reset()
	case "edit":
		s.ctrl.SetMarkup(req.Content)
	case "credential":
		if req.Remember && store != nil {
			if err := store.Save(ctx, req.Content); err != nil {
				s.logger.Error("saving credential", "error", err)
				s.sendError("", "could not save the API key")
			}
		}
		s.ctrl.SetCredential(req.Content)
	case "clear_credential":
		if store != nil {
			if err := store.Clear(ctx); err != nil {
				s.logger.Error("clearing credential", "error", err)
				s.sendError("", "could not clear the saved API key")
			}
		}
		s.ctrl.SetCredential("")
	default:
		s.sendError("", "unknown message type: "+req.Type)
	}
}

// onEvent runs on the publishing goroutine and must not call back into the
// controller's mutating methods.
func (s *chatSession) onEvent(ev conversation.Event) {
	switch ev.Type {
	case conversation.EventStateChanged:
		s.sendState(ev.State)
	case conversation.EventCredentialRequired:
		s.send(chatResponse{
			Type:    "credential_required",
			Kind:    apperr.KindMissingCredential,
			Message: apperr.UserMessage(apperr.ErrMissingCredential),
		})
	}
}

func (s *chatSession) sendState(st conversation.State) {
	resp := chatResponse{Type: "state", State: &st}
	resp.Messages = make([]renderedMessage, 0, len(st.History))
	for _, m := range st.History {
		body, err := transcript.MessageHTML(m.Text)
		if err != nil {
			body = "<p>" + html.EscapeString(m.Text) + "</p>"
		}
		resp.Messages = append(resp.Messages, renderedMessage{
			ID:        m.ID,
			FromUser:  m.FromUser,
			HTML:      body,
			Timestamp: m.Timestamp,
		})
	}
	if st.Markup != "" && s.d.cfg.Renderer != nil {
		if url, err := s.d.cfg.Renderer.URL(st.Markup, s.d.cfg.Format); err == nil {
			resp.DiagramURL = url
		} else {
			s.logger.Warn("building diagram url", "error", err)
		}
	}
	s.send(resp)
}

func (s *chatSession) sendAppError(err error) {
	s.sendError(apperr.KindOf(err), apperr.UserMessage(err))
}

func (s *chatSession) sendError(kind apperr.Kind, message string) {
	s.send(chatResponse{Type: "error", Kind: kind, Message: message})
}

func (s *chatSession) send(resp chatResponse) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(resp); err != nil {
		s.logger.Debug("websocket write", "error", err)
	}
}
