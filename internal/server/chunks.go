package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
	"github.com/Ruthe06/cloudsharefiles/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// handleUploadChunk ingests one chunk's raw bytes, stores them, and
// announces the signed retrieval URL to the session's room, excluding the
// uploader itself. The final chunk index arms the session's auto-delete
// timer.
func (s *Server) handleUploadChunk(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	chunkIndex := c.QueryParam("chunkIndex")
	if sessionID == "" || chunkIndex == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "missing required query parameters"})
	}

	index, err := strconv.Atoi(chunkIndex)
	if err != nil || index < 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid chunkIndex"})
	}
	total, err := strconv.Atoi(c.QueryParam("totalChunks"))
	if err != nil || total <= 0 || index >= total {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid totalChunks"})
	}

	if s.gateway == nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: storage.ErrNotConfigured.Error()})
	}

	sessionID = signaling.NormalizeRoomID(sessionID)
	if err := s.sessions.Validate(sessionID, total); err != nil {
		s.logger.Warn("conflicting chunk count for session", "session", sessionID, "total", total)
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.cfg.MaxChunkBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read chunk body"})
	}
	if int64(len(body)) > s.cfg.MaxChunkBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "chunk exceeds size limit"})
	}

	ctx := c.Request().Context()
	key := storage.ChunkKey(sessionID, index)

	if err := s.gateway.Put(ctx, key, body); err != nil {
		s.logger.Error("chunk store failed", "key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	chunkURL, err := s.gateway.SignedURL(ctx, key, s.cfg.SignedURLTTL)
	if err != nil {
		s.logger.Error("chunk sign failed", "key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	if index == total-1 {
		s.logger.Info("final chunk uploaded", "session", sessionID)
		s.janitor.Schedule(sessionID, total)
	}

	senderID := c.QueryParam("senderId")
	s.hub.Broadcast(sessionID, signaling.EventChunkReceived, signaling.ChunkAnnouncement{
		ChunkIndex:  index,
		TotalChunks: total,
		ChunkURL:    chunkURL,
		FileName:    c.QueryParam("fileName"),
		FileType:    c.QueryParam("fileType"),
		SenderID:    senderID,
	}, senderID)

	return c.JSON(http.StatusOK, uploadResponse{Success: true, URL: chunkURL})
}

// handleGetChunk serves chunk bytes for a valid, unexpired signed URL.
func (s *Server) handleGetChunk(c echo.Context) error {
	if s.gateway == nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: storage.ErrNotConfigured.Error()})
	}

	key := c.Param("session") + "/" + c.Param("name")

	expiresUnix, err := strconv.ParseInt(c.QueryParam("expires"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid expires"})
	}
	expires := time.Unix(expiresUnix, 0)

	if err := s.signer.Verify(key, c.QueryParam("token"), expires, time.Now()); err != nil {
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	}

	data, err := s.gateway.Get(c.Request().Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	if err != nil {
		s.logger.Error("chunk read failed", "key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.Blob(http.StatusOK, echo.MIMEOctetStream, data)
}
