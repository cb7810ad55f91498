package preview

import (
	"bytes"
	"encoding/json"
	"image"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/1siamBot/fisheye-engine/engine/export"
)

const writeWait = 200 * time.Millisecond

// Frame is the JSON message sent to every connected client
type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Name    string `json:"name,omitempty"`
	Format  string `json:"format"`
	Data    []byte `json:"data"`
}

// Hub broadcasts encoded fisheye frames to websocket clients. It doubles as
// an export sink so exported sequences can be watched as they are written.
type Hub struct {
	Encoder export.Encoder
	Log     zerolog.Logger

	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	frameID  uint64
	upgrader websocket.Upgrader
	buf      bytes.Buffer
}

func NewHub() *Hub {
	return &Hub{
		Encoder: export.PNGEncoder{},
		Log:     zerolog.Nop(),
		clients: map[*websocket.Conn]bool{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and registers the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.Log.Info().Str("remote", r.RemoteAddr).Int("clients", n).Msg("preview client connected")

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish encodes img and sends it to every client. Frames are dropped, not
// queued, when nobody is listening.
func (h *Hub) Publish(img image.Image) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return nil
	}
	h.buf.Reset()
	if err := h.Encoder.Encode(&h.buf, img); err != nil {
		return err
	}
	h.broadcastLocked("", h.Encoder.Ext(), h.buf.Bytes())
	return nil
}

// Open never fails; the hub accepts frames with or without clients
func (h *Hub) Open() error { return nil }

// WriteFrame forwards an already encoded export frame
func (h *Hub) WriteFrame(name string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	format := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		format = name[i+1:]
	}
	h.broadcastLocked(name, format, data)
	return nil
}

func (h *Hub) broadcastLocked(name, format string, data []byte) {
	h.frameID++
	b, err := json.Marshal(Frame{T: time.Now().UnixNano(), FrameID: h.frameID, Name: name, Format: format, Data: data})
	if err != nil {
		h.Log.Error().Err(err).Msg("marshal frame")
		return
	}
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.Log.Debug().Err(err).Msg("write frame")
		}
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.Close()
		delete(h.clients, c)
	}
}
