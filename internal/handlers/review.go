package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"artboard/internal/apperr"
	"artboard/internal/models"
	"artboard/internal/service"
)

type reviewRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

func (h HandlerSet) ImageQueue(c *gin.Context) {
	pending := models.StatusPending
	views, err := h.browse.ListImages(c.Request.Context(), service.ListImagesInput{
		Privileged: true,
		Status:     &pending,
		Limit:      parsePositive(c.Query("limit"), 50, 200),
		Offset:     parsePositive(c.Query("offset"), 0, 1<<31-1),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]imageResponse, 0, len(views))
	for _, view := range views {
		items = append(items, toImageResponse(view))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) TagQueue(c *gin.Context) {
	pending := models.StatusPending
	tags, err := h.tags.List(
		c.Request.Context(),
		true,
		&pending,
		parsePositive(c.Query("limit"), 100, 500),
		parsePositive(c.Query("offset"), 0, 1<<31-1),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		items = append(items, toTagResponse(tag))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) ArtistQueue(c *gin.Context) {
	pending := models.StatusPending
	artists, err := h.artists.List(
		c.Request.Context(),
		true,
		&pending,
		parsePositive(c.Query("limit"), 100, 500),
		parsePositive(c.Query("offset"), 0, 1<<31-1),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]artistResponse, 0, len(artists))
	for _, artist := range artists {
		items = append(items, toArtistResponse(artist))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) ReviewImage(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.Validation("accept", apperr.ReasonMalformed))
		return
	}

	if err := h.review.ReviewImage(c.Request.Context(), c.Param("id"), *req.Accept); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ReviewTag(c *gin.Context) {
	h.reviewNumeric(c, h.review.ReviewTag)
}

func (h HandlerSet) ReviewArtist(c *gin.Context) {
	h.reviewNumeric(c, h.review.ReviewArtist)
}

func (h HandlerSet) reviewNumeric(c *gin.Context, decide func(ctx context.Context, id int64, accept bool) error) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.Validation("accept", apperr.ReasonMalformed))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.writeError(c, apperr.Validation("id", apperr.ReasonMalformed))
		return
	}

	if err := decide(c.Request.Context(), id, *req.Accept); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
