package gateway

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/danmuck/actionwire/internal/dispatch"
	"github.com/danmuck/actionwire/internal/protocol/schema"
	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"
)

// ActionInfo is the JSON listing of one registered action.
type ActionInfo struct {
	ID          string             `json:"id"`
	Description string             `json:"description,omitempty"`
	Args        *jsonschema.Schema `json:"args"`
	Result      *jsonschema.Schema `json:"result"`
}

func (s *Server) handleList(c *gin.Context) {
	list := s.dispatcher.Catalog().List()
	out := make([]ActionInfo, 0, len(list))
	for _, info := range list {
		out = append(out, ActionInfo{
			ID:          info.ID,
			Description: info.Description,
			Args:        schema.JSONSchema(info.Args),
			Result:      schema.JSONSchema(info.Result),
		})
	}
	c.JSON(http.StatusOK, gin.H{"actions": out})
}

// handleInvoke answers every dispatched request with 200 and a response
// envelope; protocol errors live inside the envelope.
func (s *Server) handleInvoke(c *gin.Context) {
	if !isEnvelope(c.GetHeader("Content-Type")) {
		c.Status(http.StatusUnsupportedMediaType)
		return
	}
	raw, err := readLimited(c.Request.Body, s.dispatcher.Limits().MaxPayloadBytes)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	out, err := s.dispatcher.Serve(c.Request.Context(), raw)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("dispatch produced no response")
		if errors.Is(err, dispatch.ErrEmptyEnvelope) {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Data(http.StatusOK, ContentType, out)
}

const defaultBodyLimit = 1 << 20

func isEnvelope(header string) bool {
	mt, _, err := mime.ParseMediaType(header)
	return err == nil && mt == ContentType
}

// readLimited reads at most limit+1 bytes, so an oversized body reaches the
// dispatcher as an oversized envelope and is rejected there.
func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	return io.ReadAll(io.LimitReader(r, int64(limit)+1))
}
