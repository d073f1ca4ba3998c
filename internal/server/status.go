package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Country Currency & Exchange API",
		"version": s.cfg.AppVersion,
		"endpoints": gin.H{
			"POST /countries/refresh": "Fetch and cache all countries",
			"GET /countries":          "Get all countries (supports ?region, ?currency, ?sort)",
			"GET /countries/:name":    "Get specific country",
			"DELETE /countries/:name": "Delete a country",
			"GET /status":             "Get refresh status",
			"GET /countries/image":    "Get summary image",
		},
	})
}

func (s *Server) GetStatus(c *gin.Context) {
	st, err := s.statusSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}
