// Package webserver provides a web based control interface for an audio
// pipeline. It exposes a REST API for starting and stopping streaming
// sessions and adjusting the volume, and pushes state updates to the
// connected browsers through a websocket.
package webserver

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"regexp"
	"sync"

	"github.com/dh1tw/nolistfs"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/voicebridge/audiopipe/pipe"
)

//go:embed html
var htmlFS embed.FS

var upgrader = websocket.Upgrader{}

// WebServer is the web based control interface of an audio pipeline.
type WebServer struct {
	sync.RWMutex
	url            string
	port           int
	apiVersion     string
	apiMatch       *regexp.Regexp
	router         *mux.Router
	fileServer     http.Handler
	pipe           *pipe.Pipe
	wsClients      map[*wsClient]bool
	addWsClient    chan *wsClient
	removeWsClient chan *wsClient
}

// ApplicationState is the data structure pushed to the connected
// websocket clients whenever the state of the pipeline changes.
type ApplicationState struct {
	Streaming *bool   `json:"streaming,omitempty"`
	Volume    *int    `json:"volume,omitempty"`
	LastError *string `json:"lastError,omitempty"`
}

// AudioControlState is the JSON message for getting and setting the
// streaming state.
type AudioControlState struct {
	On   *bool   `json:"on,omitempty"`
	File *string `json:"file,omitempty"`
}

// AudioControlVolume is the JSON message for getting and setting the
// volume (in percent).
type AudioControlVolume struct {
	Volume *int `json:"volume,omitempty"`
}

// NewWebServer is the constructor method for a WebServer. The pipe
// provides the operations exposed through the web interface.
func NewWebServer(url string, port int, p *pipe.Pipe) (*WebServer, error) {

	if p == nil {
		return nil, fmt.Errorf("pipe is nil")
	}

	web := &WebServer{
		url:            url,
		port:           port,
		apiVersion:     "1.0",
		apiMatch:       regexp.MustCompile(`api\/v\d\.\d\/`),
		router:         mux.NewRouter().StrictSlash(true),
		pipe:           p,
		wsClients:      make(map[*wsClient]bool),
		addWsClient:    make(chan *wsClient),
		removeWsClient: make(chan *wsClient),
	}

	sub, err := fs.Sub(htmlFS, "html")
	if err != nil {
		return nil, err
	}
	web.fileServer = http.FileServer(nolistfs.New(http.FS(sub)))

	p.SetNotifyStateChangeCb(web.updateWsClients)

	web.routes()

	return web, nil
}

// Start launches the webserver. This method blocks until the listener
// fails.
func (web *WebServer) Start() error {

	go web.handleWsClients()

	serverURL := fmt.Sprintf("%s:%d", web.url, web.port)
	log.Printf("webserver listening on %s", serverURL)

	return http.ListenAndServe(serverURL, web.apiRedirectRouter(web.router))
}

// handleWsClients manages the websocket client registry.
func (web *WebServer) handleWsClients() {
	for {
		select {
		case client := <-web.addWsClient:
			log.Println("websocket client connected")
			web.Lock()
			web.wsClients[client] = true
			web.Unlock()
			web.updateWsClients()

		case client := <-web.removeWsClient:
			log.Println("websocket client disconnected")
			web.Lock()
			if _, ok := web.wsClients[client]; ok {
				delete(web.wsClients, client)
				close(client.send)
			}
			web.Unlock()
		}
	}
}

// getAppState assembles the current state of the pipeline.
func (web *WebServer) getAppState() (ApplicationState, error) {

	streaming := web.pipe.Streaming()

	volume, err := web.pipe.Volume()
	if err != nil {
		return ApplicationState{}, err
	}
	vol := int(volume * 100)

	appState := ApplicationState{
		Streaming: &streaming,
		Volume:    &vol,
	}

	if lastErr := web.pipe.LastError(); lastErr != nil {
		errMsg := lastErr.Error()
		appState.LastError = &errMsg
	}

	return appState, nil
}

// updateWsClients pushes the current application state to all connected
// websocket clients.
func (web *WebServer) updateWsClients() {

	appState, err := web.getAppState()
	if err != nil {
		log.Println(err)
		return
	}

	data, err := json.Marshal(appState)
	if err != nil {
		log.Println(err)
		return
	}

	web.RLock()
	defer web.RUnlock()
	for client := range web.wsClients {
		client.send <- data
	}
}

type wsClient struct {
	ws           *websocket.Conn
	send         chan []byte
	removeClient chan<- *wsClient
}

func (c *wsClient) write() {
	defer c.ws.Close()

	for message := range c.send {
		c.ws.WriteMessage(websocket.TextMessage, message)
	}
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *wsClient) read() {
	defer func() {
		c.removeClient <- c
		c.ws.Close()
	}()

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			break
		}
	}
}
