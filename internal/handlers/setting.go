package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
)

type SettingHandler struct {
	settingService *services.SettingService
}

func NewSettingHandler(settingService *services.SettingService) *SettingHandler {
	return &SettingHandler{
		settingService: settingService,
	}
}

// GetSettings returns the saved settings object, or {} when none exist.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	settings, err := h.settingService.Get(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, gin.MIMEJSON, settings)
}

// SaveSettings replaces the settings object.
func (h *SettingHandler) SaveSettings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	settings, err := h.settingService.Save(c.Request.Context(), actor, json.RawMessage(body))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"settings": settings,
	})
}
