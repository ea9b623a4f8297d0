package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/fraudwatch/internal/feature"
	"github.com/mbd888/fraudwatch/internal/logging"
	"github.com/mbd888/fraudwatch/internal/validation"
)

type scoreRequest struct {
	Tx        feature.Transaction `json:"tx"`
	Threshold *float64            `json:"threshold"`
}

type feedbackRequest struct {
	TxID  string `json:"txId"`
	Label *int   `json:"label"`
}

// scoreHandler scores one transaction payload and returns the assessment.
func (s *Server) scoreHandler(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tx == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "body must be {\"tx\": {...}, \"threshold\": optional float}",
		})
		return
	}

	if req.Threshold != nil {
		if errs := validation.Validate(validation.UnitInterval("threshold", *req.Threshold)); len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": errs})
			return
		}
	}

	var assessment any
	if req.Threshold != nil {
		assessment = s.pipeline.ProcessWithThreshold(c.Request.Context(), req.Tx, *req.Threshold)
	} else {
		assessment = s.pipeline.Process(c.Request.Context(), req.Tx)
	}

	c.JSON(http.StatusOK, assessment)
}

// feedbackHandler appends a ground-truth label to the feedback log.
func (s *Server) feedbackHandler(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "body must be {\"txId\": string, \"label\": 0|1}",
		})
		return
	}

	if req.Label == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "label is required"})
		return
	}

	txID := validation.SanitizeString(req.TxID, 256)
	errs := validation.Validate(
		validation.Required("txId", txID),
		validation.BinaryLabel("label", *req.Label),
	)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "details": errs})
		return
	}

	if err := s.feedback.Record(txID, *req.Label); err != nil {
		logging.L(c.Request.Context()).Error("feedback append failed", "tx", txID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "could not record feedback",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded", "txId": txID})
}

// assessmentsHandler lists recent assessments from the audit store.
func (s *Server) assessmentsHandler(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "limit must be an integer in [1,200]",
			})
			return
		}
		limit = n
	}

	assessments, err := s.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("assessment list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "storage_error",
			"message": "could not list assessments",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessments": assessments,
		"count":       len(assessments),
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"healthy": healthy,
		"checks":  statuses,
	})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
