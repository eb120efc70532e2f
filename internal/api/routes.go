package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zulandar/incidentdesk/internal/models"
)

// registerRoutes sets up all API routes on the Gin router.
func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Passthrough records.
	contacts := router.Group("/contacts")
	contacts.GET("", listRecords(s.stores.Contacts))
	contacts.GET("/:id", getRecord(s.stores.Contacts))
	contacts.POST("", createRecord(s.stores.Contacts, s.checkNewContact))
	contacts.PUT("/:id", patchRecord(s.stores.Contacts, s.checkContactUpdate))
	contacts.PATCH("/:id", patchRecord(s.stores.Contacts, s.checkContactUpdate))
	contacts.DELETE("/:id", deleteRecord(s.stores.Contacts))

	reports := router.Group("/incident-reports")
	reports.GET("", listRecords(s.stores.Reports))
	reports.GET("/:id", getRecord(s.stores.Reports))
	reports.POST("", createRecord[models.IncidentReport](s.stores.Reports, nil))
	reports.PUT("/:id", patchRecord[models.IncidentReport](s.stores.Reports, nil))
	reports.PATCH("/:id", patchRecord[models.IncidentReport](s.stores.Reports, nil))
	reports.DELETE("/:id", deleteRecord(s.stores.Reports))

	// Messages. Status and classification only move through the workflow.
	msgs := router.Group("/sms-received")
	msgs.GET("", listRecords(s.stores.Messages))
	msgs.GET("/:id", getRecord(s.stores.Messages))
	msgs.POST("", createRecord(s.stores.Messages, s.checkNewMessage))
	msgs.PUT("/:id", patchRecord(s.stores.Messages, checkMessageUpdate))
	msgs.PATCH("/:id", patchRecord(s.stores.Messages, checkMessageUpdate))
	msgs.DELETE("/:id", deleteRecord(s.stores.Messages))
	msgs.POST("/:id/verify", s.handleVerify)
	msgs.POST("/:id/decline", s.handleDecline)
	msgs.POST("/:id/dispatch", s.handleDispatch)
	msgs.GET("/:id/outstanding", s.handleOutstanding)

	reqs := router.Group("/sms-verifications")
	reqs.GET("", listRecords(s.stores.Requests))
	reqs.GET("/:id", getRecord(s.stores.Requests))
	reqs.POST("", s.handleCreateVerification)
	reqs.PUT("/:id", s.handleUpdateVerification)
	reqs.PATCH("/:id", s.handleUpdateVerification)
	reqs.DELETE("/:id", deleteRecord(s.stores.Requests))
	reqs.POST("/:id/reply", s.handleReply)

	dispatches := router.Group("/response-dispatches")
	dispatches.GET("", listRecords(s.stores.Dispatches))
	dispatches.GET("/:id", getRecord(s.stores.Dispatches))
	dispatches.PATCH("/:id", s.handleUpdateDispatch)

	// Views.
	router.GET("/responders", s.handleResponders)
	router.GET("/taxonomy", s.handleTaxonomy)
	router.POST("/classify", s.handleClassify)
	router.GET("/dashboard/counts", s.handleCounts)
	router.GET("/dashboard/inbox", s.handleInbox)
	router.GET("/outbox", s.handleOutbox)
	router.GET("/outbox/unaddressed", s.handleUnaddressed)
	router.GET("/reconciliation/orphans", s.handleOrphans)
}
