package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/ideagen/internal/metrics"
	"github.com/yoockh/ideagen/internal/models"
	"github.com/yoockh/ideagen/internal/services"
	"github.com/yoockh/ideagen/internal/utils"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
)

type WSHandler struct {
	svc      services.GenerationService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(svc services.GenerationService, l *logrus.Logger) *WSHandler {
	return &WSHandler{
		svc: svc,
		log: l,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type wsErrorMsg struct {
	Type    string     `json:"type"`
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteJSON(v)
}

func (w *wsConn) writeError(err error) error {
	code := utils.CodeInternal
	var ae *utils.AppError
	if errors.As(err, &ae) {
		code = ae.Code
	}
	return w.writeJSON(wsErrorMsg{Type: "error", Code: code, Message: utils.SafeMessage(err)})
}

func (w *wsConn) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
}

// Generate runs the same pipeline as the SSE endpoint over a WebSocket: the
// client sends one GenerationRequest and receives one {"text":...} message
// per fragment, then a normal close.
func (h *WSHandler) Generate(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	log := h.log.WithField("request_id", requestID(c))

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var req models.GenerationRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = wc.writeError(utils.E(utils.CodeInvalidArgument, "WSHandler.Generate", services.MsgMissingFields, err))
		wc.close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	chunks, errs, err := h.svc.Generate(ctx, req)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("invalid").Inc()
		_ = wc.writeError(err)
		wc.close()
		return
	}

	// reader: any client frame after the request, or a dropped connection, stops the generation
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	start := time.Now()
	fragments := 0
	for text := range chunks {
		if err := wc.writeJSON(models.TextFragment{Text: text}); err != nil {
			cancel()
			break
		}
		fragments++
		metrics.FragmentsEmitted.Inc()
	}
	cancel()

	log = log.WithFields(logrus.Fields{"fragments": fragments, "transport": "websocket"})
	if err := <-errs; err != nil {
		log.WithError(err).Error("generation stream aborted")
		observe("aborted", start)
		_ = wc.writeError(err)
		wc.close()
		return
	}
	log.Info("generation complete")
	observe("ok", start)
	wc.close()
}
