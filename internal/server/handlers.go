package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dyike/CortexReview/consts"
	"github.com/dyike/CortexReview/internal/analysis"
	"github.com/dyike/CortexReview/internal/desk"
	"github.com/dyike/CortexReview/internal/imageload"
	"github.com/dyike/CortexReview/internal/logger"
	"github.com/dyike/CortexReview/internal/playbook"
	"github.com/dyike/CortexReview/models"
)

type deskHandler struct {
	ctrl     *desk.Controller
	loader   *imageload.Loader
	playbook *playbook.Playbook
}

type stateResponse struct {
	desk.Snapshot
	Label       string `json:"label"`
	CanEvaluate bool   `json:"can_evaluate"`
}

func (h *deskHandler) stateJSON() stateResponse {
	snap := h.ctrl.Snapshot()
	return stateResponse{
		Snapshot:    snap,
		Label:       snap.State.Label(),
		CanEvaluate: snap.CanEvaluate(),
	}
}

func (h *deskHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Playbook": h.playbook,
	})
}

func (h *deskHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.stateJSON())
}

func (h *deskHandler) Playbook(c *gin.Context) {
	c.JSON(http.StatusOK, h.playbook)
}

// Upload accepts a multipart "image" file or a "url" form field.
func (h *deskHandler) Upload(c *gin.Context) {
	var (
		img *models.TradeImage
		err error
	)
	if url := strings.TrimSpace(c.PostForm("url")); url != "" {
		img, err = h.loader.LoadURL(c.Request.Context(), url)
	} else {
		img, err = h.readUpload(c)
	}
	if err != nil {
		logger.Log.Warnf("upload rejected: %v", err)
		status := http.StatusBadRequest
		if errors.Is(err, imageload.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		msg := err.Error()
		if errors.Is(err, imageload.ErrNotImage) {
			msg = consts.Msg_NotImage
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if err := h.ctrl.Load(img); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.stateJSON())
}

func (h *deskHandler) readUpload(c *gin.Context) (*models.TradeImage, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("no image selected")
	}
	if limit := h.loader.MaxBytes(); limit > 0 && fh.Size > limit {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", imageload.ErrTooLarge, fh.Size, limit)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return h.loader.FromBytes(data, fh.Filename)
}

func (h *deskHandler) Evaluate(c *gin.Context) {
	result, err := h.ctrl.Evaluate(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"analysis": result, "state": h.stateJSON()})
	case errors.Is(err, desk.ErrBusy), errors.Is(err, desk.ErrAlreadyAnalyzed), errors.Is(err, desk.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": h.stateJSON()})
	case errors.Is(err, desk.ErrNoImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "state": h.stateJSON()})
	case errors.Is(err, analysis.ErrAnalysisFailed), errors.Is(err, desk.ErrNoAnalyzer):
		c.JSON(http.StatusBadGateway, gin.H{"error": consts.Msg_UplinkError, "state": h.stateJSON()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "state": h.stateJSON()})
	}
}

func (h *deskHandler) Reset(c *gin.Context) {
	h.ctrl.Reset()
	c.JSON(http.StatusOK, h.stateJSON())
}
