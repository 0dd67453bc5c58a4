package webserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/voicebridge/audiopipe/pipe"
)

func (web *WebServer) webSocketHdlr(w http.ResponseWriter, req *http.Request) {

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		http.NotFound(w, req)
		log.Printf("unable to open ws for %v\n", req.RemoteAddr)
		return
	}

	client := &wsClient{
		ws:           conn,
		send:         make(chan []byte),
		removeClient: web.removeWsClient,
	}

	go client.write()
	go client.read()

	web.addWsClient <- client
}

func (web *WebServer) streamStateHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		streaming := web.pipe.Streaming()
		stateCtlMsg := &AudioControlState{
			On: &streaming,
		}
		if err := json.NewEncoder(w).Encode(stateCtlMsg); err != nil {
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to encode AudioControlState msg"))
		}

	case "PUT":
		var stateCtlMsg AudioControlState
		dec := json.NewDecoder(req.Body)

		if err := dec.Decode(&stateCtlMsg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid JSON"))
			return
		}
		if stateCtlMsg.On == nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid Request"))
			return
		}

		if !*stateCtlMsg.On {
			if err := web.pipe.Stop(); err != nil {
				log.Println(err)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("500 - unable to stop streaming session"))
			}
			web.updateWsClients()
			return
		}

		if stateCtlMsg.File == nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - file missing"))
			return
		}
		if err := web.pipe.StartFile(*stateCtlMsg.File); err != nil {
			if errors.Is(err, pipe.ErrAlreadyStreaming) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte("409 - streaming session already in progress"))
				return
			}
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to start streaming session"))
			return
		}
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) volumeHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	switch req.Method {
	case "GET":
		volume, err := web.pipe.Volume()
		if err != nil {
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to find default sink"))
			return
		}
		vol := int(volume * 100)
		volCtlMsg := &AudioControlVolume{
			Volume: &vol,
		}
		if err := json.NewEncoder(w).Encode(volCtlMsg); err != nil {
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to encode AudioControlVolume msg"))
		}

	case "PUT":
		var volCtlMsg AudioControlVolume
		dec := json.NewDecoder(req.Body)

		if err := dec.Decode(&volCtlMsg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid JSON"))
			return
		}
		if volCtlMsg.Volume == nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("400 - invalid Request"))
			return
		}
		if err := web.pipe.SetVolume(float32(*volCtlMsg.Volume) / 100); err != nil {
			log.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 - unable to set volume"))
			return
		}
		web.updateWsClients()

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (web *WebServer) statusHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")

	appState, err := web.getAppState()
	if err != nil {
		log.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 - unable to execute query"))
		return
	}

	if err := json.NewEncoder(w).Encode(appState); err != nil {
		log.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("500 - unable to encode ApplicationState msg"))
	}
}
