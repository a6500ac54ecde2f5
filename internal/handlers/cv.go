package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/requestdata"
	"github.com/cvready/cvready-backend/internal/services"
)

type CvHandler struct {
	cvService services.CvService
}

func NewCvHandler(cvService services.CvService) *CvHandler {
	return &CvHandler{cvService: cvService}
}

func (ch *CvHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	cvs, err := ch.cvService.ListCvs(c.Request.Context(), rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cvs": cvs})
}

func (ch *CvHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cv id"})
		return
	}
	if _, err := ch.cvService.EnsureCvParsed(c.Request.Context(), rd.UserID, id); err != nil {
		respondError(c, err)
		return
	}
	cv, err := ch.cvService.FindCvWithSectionsAndChunks(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

func (ch *CvHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cv id"})
		return
	}
	if err := ch.cvService.DeleteCv(c.Request.Context(), rd.UserID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
