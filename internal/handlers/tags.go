package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"artboard/internal/apperr"
	"artboard/internal/models"
)

type tagResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTagResponse(tag models.Tag) tagResponse {
	return tagResponse{
		ID:          tag.ID,
		Name:        tag.Name,
		Slug:        tag.Slug,
		Description: tag.Description,
		Status:      string(tag.Status),
		CreatedAt:   tag.CreatedAt,
	}
}

type createTagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h HandlerSet) CreateTag(c *gin.Context) {
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.Validation("body", apperr.ReasonMalformed))
		return
	}

	tag, err := h.tags.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tag": toTagResponse(tag)})
}

func (h HandlerSet) GetTag(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.writeError(c, apperr.NotFound("tag", c.Param("id")))
		return
	}

	tag, err := h.tags.Get(c.Request.Context(), id, privileged(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": toTagResponse(tag)})
}

func (h HandlerSet) ListTags(c *gin.Context) {
	var status *models.ModerationStatus
	if privileged(c) {
		status = parseStatusFilter(c.Query("status"))
	}

	tags, err := h.tags.List(
		c.Request.Context(),
		privileged(c),
		status,
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
