package server

// RegisterRoutes wires the admin API and the WebSocket endpoint.
func (s *Server) RegisterRoutes() {
	s.E.GET("/topics", s.listTopics)
	s.E.GET("/topics/:name", s.getTopic)
	s.E.PUT("/topics/:name", s.createTopic)
	s.E.DELETE("/topics/:name", s.deleteTopic)
	s.E.POST("/topics/:name/broadcast", s.broadcast)
	s.E.GET("/stats", s.stats)
	s.E.GET("/ws", s.serveWebSocket)
}
