package server

import (
	"net/http"
	"os"

	"github.com/geodesk/atlasfx/internal/country/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) RefreshCountries(c *gin.Context) {
	result, err := s.countrySvc.Refresh(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "refresh completed",
		"total_countries":   result.TotalCountries,
		"last_refreshed_at": result.LastRefreshedAt,
	})
}

func (s *Server) ListCountries(c *gin.Context) {
	sort, err := domain.ParseSortMode(c.Query("sort"))
	if err != nil {
		AbortWithError(c, newValidationError("sort", "invalid_sort", "sort must be one of gdp_desc, gdp_asc"))
		return
	}

	countries, err := s.countrySvc.List(c.Request.Context(), domain.ListRequest{
		Region:   c.Query("region"),
		Currency: c.Query("currency"),
		Sort:     sort,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if countries == nil {
		countries = []domain.Country{}
	}
	c.JSON(http.StatusOK, countries)
}

func (s *Server) GetCountryByName(c *gin.Context) {
	country, err := s.countrySvc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, country)
}

func (s *Server) DeleteCountryByName(c *gin.Context) {
	if err := s.countrySvc.DeleteByName(c.Request.Context(), c.Param("name")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "country deleted"})
}

// GetSummaryImage serves the image generated by the last successful refresh.
func (s *Server) GetSummaryImage(c *gin.Context) {
	path := s.renderer.ImagePath()
	if _, err := os.Stat(path); err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.Header("Content-Type", "image/png")
	c.File(path)
}
