package webserver

func (web *WebServer) routes() {
	web.router.HandleFunc("/api/v1.0/stream/state", web.streamStateHdlr)
	web.router.HandleFunc("/api/v1.0/volume", web.volumeHdlr)
	web.router.HandleFunc("/api/v1.0/status", web.statusHdlr).Methods("GET")
	web.router.HandleFunc("/ws", web.webSocketHdlr)
	web.router.PathPrefix("/").Handler(web.fileServer)
}
