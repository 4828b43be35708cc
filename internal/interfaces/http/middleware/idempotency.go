package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyContextKey holds the accepted Idempotency-Key in the gin context
const IdempotencyKeyContextKey = "idempotency_key"

// IdempotencyConfig configures the idempotency middleware
type IdempotencyConfig struct {
	Store  cache.ResponseStore
	Logger *zap.Logger
}

// Idempotency replays the first response of a write request carrying an
// Idempotency-Key header. The key is scoped by method and request path, so
// one key sent to two resources of the same route makes two requests. A
// retry with a different body is rejected, as is one that arrives while the
// first is still being processed. Responses with status 5xx are not kept,
// so the client may retry them.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if cfg.Store == nil || key == "" || !isWriteMethod(c.Request.Method) {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
					"Request body exceeds maximum allowed size")
				return
			}
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		path := c.Request.URL.Path
		storeKey := c.Request.Method + " " + path + " " + key
		fingerprint := requestFingerprint(c.Request.Method, path, body)

		stored, err := cfg.Store.Reserve(ctx, storeKey, fingerprint)
		switch {
		case errors.Is(err, cache.ErrKeyReused):
			abortWithError(c, http.StatusConflict, dto.ErrCodeIdempotencyKeyReused,
				"Idempotency-Key was already used with a different request")
			return
		case errors.Is(err, cache.ErrInProgress):
			abortWithError(c, http.StatusConflict, dto.ErrCodeIdempotencyInProgress,
				"A request with this Idempotency-Key is still being processed")
			return
		case err != nil:
			// The store is unavailable; the service-level key lookup still
			// prevents duplicate ledger entries.
			logger.Warn("Idempotency store unavailable",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err))
			c.Set(IdempotencyKeyContextKey, key)
			c.Next()
			return
		case stored != nil:
			c.Header(ReplayHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		c.Set(IdempotencyKeyContextKey, key)
		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		// The outcome is recorded even when the client has gone away
		storeCtx := context.WithoutCancel(ctx)

		completed := false
		defer func() {
			if completed {
				return
			}
			if err := cfg.Store.Release(storeCtx, storeKey); err != nil {
				logger.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}()

		c.Next()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		resp := cache.StoredResponse{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := cfg.Store.Complete(storeCtx, storeKey, fingerprint, resp); err != nil {
			logger.Warn("Failed to store idempotent response",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err))
			return
		}
		completed = true
	}
}

// GetIdempotencyKey returns the Idempotency-Key accepted for this request
func GetIdempotencyKey(c *gin.Context) string {
	if key := c.GetString(IdempotencyKeyContextKey); key != "" {
		return key
	}
	return c.GetHeader(IdempotencyKeyHeader)
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// responseRecorder copies the response body while writing it through
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
