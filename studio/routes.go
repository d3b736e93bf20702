package studio

import "github.com/gin-gonic/gin"

func (s *Server) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/diagram", s.GetDiagram)
	api.POST("/save", s.Save)
	api.PUT("/engine", s.SetEngine)

	tables := api.Group("/tables")
	{
		tables.POST("", s.CreateTable)
		tables.PATCH("/:id", s.UpdateTable)
		tables.DELETE("/:id", s.DeleteTable)
		tables.POST("/:id/columns", s.AddColumn)
		tables.POST("/:id/columns/move", s.MoveColumn)
		tables.PATCH("/:id/columns/:col", s.UpdateColumn)
		tables.DELETE("/:id/columns/:col", s.DeleteColumn)
	}

	api.POST("/connect", s.Connect)
	conflict := api.Group("/conflict")
	{
		conflict.GET("", s.GetConflict)
		conflict.POST("/confirm", s.ConfirmConflict)
		conflict.POST("/cancel", s.CancelConflict)
		conflict.POST("/create-new", s.CreateNewColumn)
		conflict.POST("/use-existing", s.UseExistingColumn)
	}

	rels := api.Group("/relationships")
	{
		rels.POST("/:id/reconnect", s.Reconnect)
		rels.PUT("/:id/cardinality", s.UpdateCardinality)
		rels.DELETE("/:id", s.DeleteRelationship)
		rels.GET("/:id/route", s.GetRoute)
		rels.POST("/:id/waypoints", s.AddWaypoint)
		rels.PUT("/:id/waypoints/:index", s.MoveWaypoint)
		rels.DELETE("/:id/waypoints/:index", s.DeleteWaypoint)
		rels.PUT("/:id/segments/:index", s.MoveSegment)
		rels.POST("/:id/routing/reset", s.ResetRouting)
	}
}
