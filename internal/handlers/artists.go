package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"artboard/internal/apperr"
	"artboard/internal/models"
	"artboard/internal/service"
)

type artistResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	TwitterURL *string   `json:"twitterUrl,omitempty"`
	PixivURL   *string   `json:"pixivUrl,omitempty"`
	PatreonURL *string   `json:"patreonUrl,omitempty"`
	WebsiteURL *string   `json:"websiteUrl,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toArtistResponse(artist models.Artist) artistResponse {
	return artistResponse{
		ID:         artist.ID,
		Name:       artist.Name,
		TwitterURL: artist.TwitterURL,
		PixivURL:   artist.PixivURL,
		PatreonURL: artist.PatreonURL,
		WebsiteURL: artist.WebsiteURL,
		Status:     string(artist.Status),
		CreatedAt:  artist.CreatedAt,
	}
}

type createArtistRequest struct {
	Name       string  `json:"name"`
	TwitterURL *string `json:"twitterUrl"`
	PixivURL   *string `json:"pixivUrl"`
	PatreonURL *string `json:"patreonUrl"`
	WebsiteURL *string `json:"websiteUrl"`
}

func (h HandlerSet) CreateArtist(c *gin.Context) {
	var req createArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.Validation("body", apperr.ReasonMalformed))
		return
	}

	artist, err := h.artists.Create(c.Request.Context(), service.CreateArtistInput{
		Name:       req.Name,
		TwitterURL: req.TwitterURL,
		PixivURL:   req.PixivURL,
		PatreonURL: req.PatreonURL,
		WebsiteURL: req.WebsiteURL,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"artist": toArtistResponse(artist)})
}

func (h HandlerSet) GetArtist(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.writeError(c, apperr.NotFound("artist", c.Param("id")))
		return
	}

	artist, err := h.artists.Get(c.Request.Context(), id, privileged(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artist": toArtistResponse(artist)})
}

func (h HandlerSet) ListArtists(c *gin.Context) {
	var status *models.ModerationStatus
	if privileged(c) {
		status = parseStatusFilter(c.Query("status"))
	}

	artists, err := h.artists.List(
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

	items := make([]artistResponse, 0, len(artists))
	for _, artist := range artists {
		items = append(items, toArtistResponse(artist))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
