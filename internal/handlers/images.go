package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"artboard/internal/apperr"
	"artboard/internal/models"
	"artboard/internal/service"
)

type imageResponse struct {
	ID            string           `json:"id"`
	URL           string           `json:"url"`
	Status        string           `json:"status"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	SizeBytes     int64            `json:"sizeBytes"`
	DominantColor string           `json:"dominantColor"`
	SourceURL     *string          `json:"sourceUrl,omitempty"`
	UploaderID    string           `json:"uploaderId"`
	NSFW          bool             `json:"nsfw"`
	Animated      bool             `json:"animated"`
	FavoriteCount int              `json:"favoriteCount"`
	Tags          []tagResponse    `json:"tags"`
	Artists       []artistResponse `json:"artists"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func toImageResponse(view service.ImageView) imageResponse {
	tags := make([]tagResponse, 0, len(view.Tags))
	for _, t := range view.Tags {
		tags = append(tags, toTagResponse(t))
	}
	artists := make([]artistResponse, 0, len(view.Artists))
	for _, a := range view.Artists {
		artists = append(artists, toArtistResponse(a))
	}
	return imageResponse{
		ID:            view.ID,
		URL:           view.URL,
		Status:        string(view.Status),
		Width:         view.Width,
		Height:        view.Height,
		SizeBytes:     view.SizeBytes,
		DominantColor: view.DominantColor,
		SourceURL:     view.SourceURL,
		UploaderID:    view.UploaderID,
		NSFW:          view.NSFW,
		Animated:      view.Animated,
		FavoriteCount: view.FavoriteCount,
		Tags:          tags,
		Artists:       artists,
		CreatedAt:     view.CreatedAt,
	}
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.writeError(c, apperr.Validation("file", apperr.ReasonMalformed))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Upload.MaxSizeBytes+1))
	if err != nil {
		h.writeError(c, apperr.Validation("file", apperr.ReasonMalformed))
		return
	}

	var sourceURL *string
	if raw := strings.TrimSpace(c.PostForm("sourceUrl")); raw != "" {
		sourceURL = &raw
	}

	artistIDs, err := parseIDList(c.PostFormArray("artistIds"))
	if err != nil {
		h.writeError(c, apperr.Validation("artistIds", apperr.ReasonMalformed))
		return
	}

	view, err := h.ingest.Ingest(c.Request.Context(), service.IngestInput{
		UploaderID:  user.ID,
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SourceURL:   sourceURL,
		NSFW:        c.PostForm("nsfw") == "true",
		TagNames:    splitList(c.PostFormArray("tags")),
		ArtistIDs:   artistIDs,
		ArtistNames: splitList(c.PostFormArray("artistNames")),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": toImageResponse(view)})
}

func (h HandlerSet) GetImage(c *gin.Context) {
	view, err := h.browse.GetImage(c.Request.Context(), c.Param("id"), privileged(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": toImageResponse(view)})
}

func (h HandlerSet) ListImages(c *gin.Context) {
	input := service.ListImagesInput{
		Privileged:  privileged(c),
		NSFW:        parseBoolFilter(c.Query("nsfw")),
		Animated:    parseBoolFilter(c.Query("animated")),
		MinWidth:    parsePositive(c.Query("minWidth"), 0, 1<<20),
		MinHeight:   parsePositive(c.Query("minHeight"), 0, 1<<20),
		MaxWidth:    parsePositive(c.Query("maxWidth"), 0, 1<<20),
		MaxHeight:   parsePositive(c.Query("maxHeight"), 0, 1<<20),
		IncludeTags: splitList(c.QueryArray("tags")),
		ExcludeTags: splitList(c.QueryArray("excludeTags")),
		UploaderID:  c.Query("uploader"),
		Limit:       parsePositive(c.Query("limit"), 50, 200),
		Offset:      parsePositive(c.Query("offset"), 0, 1<<31-1),
	}
	if input.Privileged {
		input.Status = parseStatusFilter(c.Query("status"))
	}

	views, err := h.browse.ListImages(c.Request.Context(), input)
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

func (h HandlerSet) DeleteImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.review.DeleteImage(c.Request.Context(), c.Param("id"), user); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// splitList flattens repeated form values, splitting each on commas.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseIDList(values []string) ([]int64, error) {
	var out []int64
	for _, raw := range splitList(values) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseBoolFilter(raw string) *bool {
	switch raw {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func parseStatusFilter(raw string) *models.ModerationStatus {
	switch models.ModerationStatus(raw) {
	case models.StatusPending, models.StatusAccepted:
		status := models.ModerationStatus(raw)
		return &status
	}
	return nil
}
