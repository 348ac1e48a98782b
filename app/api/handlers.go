package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sagepoint/listing-sync/app/database"
	"github.com/sagepoint/listing-sync/app/sync"
	"github.com/sagepoint/listing-sync/app/tasks"
)

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// GetStats reports store counts and batch progress for monitoring.
func (h *Handler) GetStats(c *gin.Context) {
	itemCount, err := h.itemRepo.GetItemCount()
	if err != nil {
		slog.Error("Failed to count items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	termCount, err := h.termRepo.GetTermCount()
	if err != nil {
		slog.Error("Failed to count terms", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	offset, err := h.stateRepo.GetOffset()
	if err != nil {
		slog.Error("Failed to read import offset", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	stats := gin.H{
		"items":         itemCount,
		"terms":         termCount,
		"import_offset": offset,
		"tasks":         h.registry.Names(),
		"version":       h.version,
	}

	// Timestamps are best effort; a fresh database simply has none yet.
	if started, err := h.stateRepo.GetTime(database.KeyLastImportStart); err == nil && started != nil {
		stats["last_import_start"] = started
	}
	if succeeded, err := h.stateRepo.GetTime(database.KeyLastImportSuccess); err == nil && succeeded != nil {
		stats["last_import_success"] = succeeded
	}

	c.JSON(http.StatusOK, stats)
}

// RunTask triggers a named task. Import responses carry the batch result
// and use a status convention external schedulers poll on: 200 while more
// pages remain, 206 once the batch has completed and the cursor is back
// at the start.
func (h *Handler) RunTask(c *gin.Context) {
	name := c.Param("name")

	if h.taskSecret == "" {
		slog.Error("Task triggered but no task secret is configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Task secret is not configured"})
		return
	}

	key := c.Query("key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.taskSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid task key"})
		return
	}

	result, err := h.registry.Run(c.Request.Context(), name)
	switch {
	case errors.Is(err, tasks.ErrUnknownTask):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown task", "task": name})
		return
	case errors.Is(err, sync.ErrImportRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "An import batch is already running"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "task": name})
		return
	}

	if batch, ok := result.(*sync.Result); ok {
		status := http.StatusOK
		if batch.Complete {
			status = http.StatusPartialContent
		}
		c.JSON(status, gin.H{
			"task":     name,
			"fetched":  batch.Fetched,
			"created":  batch.Created,
			"updated":  batch.Updated,
			"skipped":  batch.Skipped,
			"offset":   batch.Offset,
			"complete": batch.Complete,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": name, "status": "completed"})
}
