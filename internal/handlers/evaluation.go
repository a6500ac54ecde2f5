package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/requestdata"
	"github.com/cvready/cvready-backend/internal/services"
)

type EvaluationHandler struct {
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(evaluationService services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationService: evaluationService}
}

func (eh *EvaluationHandler) Run(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		CvID string  `json:"cv_id"`
		JdID *string `json:"jd_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cvID, err := uuid.Parse(req.CvID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cv_id"})
		return
	}
	var jdID *uuid.UUID
	if req.JdID != nil {
		parsed, err := uuid.Parse(*req.JdID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid jd_id"})
			return
		}
		jdID = &parsed
	}

	result, err := eh.evaluationService.RunEvaluation(c.Request.Context(), rd.UserID, cvID, jdID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (eh *EvaluationHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	rows, err := eh.evaluationService.ListEvaluations(c.Request.Context(), rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluations": rows})
}

func (eh *EvaluationHandler) GetSummary(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}
	summary, err := eh.evaluationService.GetEvaluationSummary(c.Request.Context(), rd.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (eh *EvaluationHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid evaluation id"})
		return
	}
	if err := eh.evaluationService.DeleteEvaluation(c.Request.Context(), rd.UserID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
