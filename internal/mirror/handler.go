package mirror

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"animeharvest/pkg/models"
)

type Handler struct {
	Data Dataset
}

func NewHandler(ds Dataset) *Handler {
	return &Handler{Data: ds}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/anime/:id", h.getAnime)               // GET /anime/:id
	rg.GET("/season/:year/:season", h.listSeason) // GET /season/:year/:season
}

func (h *Handler) getAnime(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	d, ok := h.Data.Anime[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": http.StatusNotFound, "error": "Resource does not exist"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) listSeason(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	season := c.Param("season")
	items := h.Data.Seasons[SeasonKey(season, year)]
	if items == nil {
		items = []models.Candidate{}
	}
	c.JSON(http.StatusOK, models.SeasonListing{
		SeasonName: season,
		SeasonYear: year,
		Anime:      items,
	})
}

// RateLimit answers 429 once the token bucket is empty, the way the public
// API signals its limit.
func RateLimit(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status": http.StatusTooManyRequests,
				"error":  "Too Many Requests",
			})
			return
		}
		c.Next()
	}
}

// NewRouter builds the mirror server. A nil limiter disables rate limiting.
func NewRouter(ds Dataset, limiter *rate.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "anime": len(ds.Anime), "seasons": len(ds.Seasons)})
	})

	api := router.Group("")
	if limiter != nil {
		api.Use(RateLimit(limiter))
	}
	NewHandler(ds).RegisterRoutes(api)
	return router
}
