package handler

import "github.com/julienschmidt/httprouter"

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings/round-robin", h.RoundRobin)
	router.POST("/api/v1/bookings/conflicts", h.Conflicts)
	router.POST("/api/v1/bookings/team", h.TeamBookings)
	router.POST("/api/v1/bookings/team/count", h.CountTeamBookings)
	router.GET("/api/v1/bookings/id/:id/access", h.Access)
	router.PATCH("/api/v1/bookings/id/:id/location", h.UpdateLocation)
	router.GET("/api/v1/bookings/uid/:uid", h.GetByUID)
	router.GET("/api/v1/bookings/uid/:uid/rescheduled", h.FirstReschedule)
	router.GET("/api/v1/bookings/uid/:uid/original", h.OriginalRescheduled)
	router.GET("/api/v1/bookings/uid/:uid/rescheduled-by", h.LastRescheduledBy)
}
