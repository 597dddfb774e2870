// controller/event_controller.go
package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smplabs/warden/audit"
	"github.com/smplabs/warden/util"
)

type EventController struct {
	auditService audit.Service
}

func NewEventController(auditService audit.Service) *EventController {
	return &EventController{
		auditService: auditService,
	}
}

// RegisterRoutes registers the API routes
func (ec *EventController) RegisterRoutes(r *gin.RouterGroup) {
	events := r.Group("/events")
	{
		events.GET("/recent", ec.Recent)
		events.GET("/type/:type", ec.ByType)
		events.GET("/user/:id", ec.ByUser)
		events.GET("/resource/:id", ec.ByResource)
		events.GET("/timeline", ec.Timeline)
		events.GET("/stats", ec.DailyStats)
		events.GET("/archive", ec.SearchArchive)
	}
}

func queryLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	return limit
}

// Recent endpoint
func (ec *EventController) Recent(c *gin.Context) {
	events, err := ec.auditService.Recent(c, queryLimit(c))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch recent events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// ByType endpoint
func (ec *EventController) ByType(c *gin.Context) {
	events, err := ec.auditService.ByType(c, c.Param("type"), queryLimit(c))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch events by type", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// ByUser endpoint
func (ec *EventController) ByUser(c *gin.Context) {
	events, err := ec.auditService.ByUser(c, c.Param("id"), queryLimit(c))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch events by user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// ByResource endpoint
func (ec *EventController) ByResource(c *gin.Context) {
	events, err := ec.auditService.ByResource(c, c.Param("id"), queryLimit(c))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch events by resource", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// Timeline endpoint
func (ec *EventController) Timeline(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	events, err := ec.auditService.Timeline(c, queryLimit(c), offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch timeline", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// DailyStats endpoint
func (ec *EventController) DailyStats(c *gin.Context) {
	stats, err := ec.auditService.DailyStats(c, c.Query("date"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch event stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SearchArchive endpoint. Time bounds default to the last 24 hours.
func (ec *EventController) SearchArchive(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' timestamp", err)
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' timestamp", err)
			return
		}
		to = parsed
	}

	events, err := ec.auditService.SearchArchive(c, from, to, c.Query("userId"), c.Query("resourceId"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Archive search failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
