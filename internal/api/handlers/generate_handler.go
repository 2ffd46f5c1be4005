package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/ideagen/internal/metrics"
	"github.com/yoockh/ideagen/internal/models"
	"github.com/yoockh/ideagen/internal/services"
	"github.com/yoockh/ideagen/internal/stream"
	"github.com/yoockh/ideagen/internal/utils"
)

type GenerateHandler struct {
	svc services.GenerationService
	log *logrus.Logger
}

func NewGenerateHandler(svc services.GenerationService, l *logrus.Logger) *GenerateHandler {
	return &GenerateHandler{svc: svc, log: l}
}

// Generate streams a project idea as Server-Sent Events, one
// `data: {"text":...}` event per provider fragment.
func (h *GenerateHandler) Generate(c *gin.Context) {
	start := time.Now()

	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// an unreadable body is reported the same way as missing fields
		req = models.GenerationRequest{}
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	chunks, errs, err := h.svc.Generate(ctx, req)
	if err != nil {
		if utils.IsCode(err, utils.CodeInvalidArgument) {
			metrics.GenerationsTotal.WithLabelValues("invalid").Inc()
			c.String(http.StatusBadRequest, utils.SafeMessage(err))
			return
		}
		writeError(c, err)
		return
	}

	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	log := h.log.WithFields(logrus.Fields{
		"request_id":  requestID(c),
		"topic":       req.Topic,
		"proficiency": req.Proficiency,
	})

	// Hold the status line until the provider has produced something, so a
	// provider that fails up front can still be reported with a real status.
	first, ok := <-chunks
	if !ok {
		if err := <-errs; err != nil {
			log.WithError(err).Error("generation failed before streaming")
			observe("upstream_error", start)
			writeError(c, err)
			return
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	enc := stream.NewEncoder(c.Writer)
	fragments := 0
	write := func(text string) bool {
		if err := enc.WriteText(text); err != nil {
			log.WithError(err).Warn("client write failed")
			return false
		}
		fragments++
		metrics.FragmentsEmitted.Inc()
		return true
	}

	if ok && write(first) {
		for text := range chunks {
			if !write(text) {
				break
			}
		}
	}
	// unblocks the provider if we stopped reading early
	cancel()

	log = log.WithFields(logrus.Fields{
		"fragments":   fragments,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err := <-errs; err != nil {
		log.WithError(err).Error("generation stream aborted")
		observe("aborted", start)
		return
	}
	log.Info("generation complete")
	observe("ok", start)
}

func observe(result string, start time.Time) {
	metrics.GenerationsTotal.WithLabelValues(result).Inc()
	metrics.StreamDurationSeconds.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
