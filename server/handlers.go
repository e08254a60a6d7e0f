package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/search"
	"github.com/jonwraymond/productsearch/stream"
)

func (s *Server) handleSearch(c *gin.Context) {
	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res, err := s.search.Search(ctx, c.Query("q"))
	if err != nil {
		s.writeError(ctx, c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) writeError(ctx context.Context, c *gin.Context, err error) {
	switch {
	case search.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil && c.Request.Context().Err() == nil:
		s.logger.Warn(ctx, "request timed out", observe.Field{Key: "timeout", Value: s.cfg.RequestTimeout.String()})
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	case c.Request.Context().Err() != nil:
		// Client left; nobody reads the reply.
		c.Abort()
	default:
		s.logger.Error(ctx, "search failed", observe.Field{Key: "error", Value: err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": err.Error(),
		})
	}
}

func (s *Server) handleCacheInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.search.CacheInfo(c.Request.Context()))
}

func (s *Server) handleStream(c *gin.Context) {
	ctx := c.Request.Context()

	closeWhenSettled := s.cfg.CloseWhenSettled
	if v := c.Query("close_when_settled"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "close_when_settled must be a boolean"})
			return
		}
		closeWhenSettled = b
	}

	sess, err := s.search.Stream(ctx, c.Query("q"))
	switch {
	case search.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, search.ErrStreamingDisabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "streaming is not enabled"})
		return
	case err != nil:
		s.writeError(ctx, c, err)
		return
	}
	defer sess.Close()

	logger := s.logger.With(observe.Field{Key: "session_id", Value: sess.ID})
	logger.Info(ctx, "stream opened", observe.Field{Key: "query", Value: sess.Query})

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	settled := sess.Settled()
	for {
		select {
		case ev := <-sess.Events():
			s.writeEvent(c, ev)
		case <-settled:
			if closeWhenSettled {
				s.drain(c, sess)
				logger.Info(ctx, "stream settled")
				return
			}
			settled = nil
		case <-ctx.Done():
			logger.Info(ctx, "stream closed by client")
			return
		}
	}
}

// drain writes the events already buffered on a settled session.
func (s *Server) drain(c *gin.Context, sess *stream.Session) {
	for {
		select {
		case ev := <-sess.Events():
			s.writeEvent(c, ev)
		default:
			return
		}
	}
}

func (s *Server) writeEvent(c *gin.Context, ev stream.Event) {
	c.SSEvent(ev.Name(), ev.Payload)
	c.Writer.Flush()
}
