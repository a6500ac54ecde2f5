package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/requestdata"
	"github.com/cvready/cvready-backend/internal/services"
	"github.com/cvready/cvready-backend/internal/types"
)

type JdHandler struct {
	jdService services.JdService
}

func NewJdHandler(jdService services.JdService) *JdHandler {
	return &JdHandler{jdService: jdService}
}

func (jh *JdHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	jds, err := jh.jdService.ListJds(c.Request.Context(), rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jds": jds})
}

func (jh *JdHandler) GetRules(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid jd id"})
		return
	}
	if _, err := jh.jdService.EnsureJdExists(c.Request.Context(), rd.UserID, id); err != nil {
		respondError(c, err)
		return
	}
	rules, err := jh.jdService.FindRulesByJdID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (jh *JdHandler) UpdateRuleIntent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	jdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid jd id"})
		return
	}
	ruleID, err := uuid.Parse(c.Param("ruleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}
	var req struct {
		Intent string `json:"intent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	switch types.RuleIntent(req.Intent) {
	case types.IntentRequirement, types.IntentResponsibility, types.IntentQualification,
		types.IntentInformational, types.IntentPreference:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent"})
		return
	}
	if err := jh.jdService.UpdateRuleIntent(c.Request.Context(), rd.UserID, jdID, ruleID, types.RuleIntent(req.Intent)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (jh *JdHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid jd id"})
		return
	}
	if err := jh.jdService.DeleteJd(c.Request.Context(), rd.UserID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
