package webui

import (
	"encoding/json"
	"fmt"
	"log"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Socket is a connected browser.
type Socket struct {
	s    *Server
	conn net.Conn

	// write queue, closed by removeSocket
	q      chan Update
	closed bool
}

// Request is a command from the browser.
type Request struct {
	Command string          `json:"c"`
	Args    json.RawMessage `json:"a"`
}

func newSocket(s *Server, conn net.Conn) (socket *Socket) {
	socket = &Socket{
		s:    s,
		conn: conn,
		q:    make(chan Update, QUEUE_DEPTH),
	}

	s.appendSocket(socket)

	go socket.readHandler()
	go socket.writeHandler()

	return
}

// notify queues an update. Updates to a socket that is not keeping up
// are dropped. The caller holds the server's socket lock.
func (k *Socket) notify(view string, model any) {
	if k.closed {
		return
	}

	select {
	case k.q <- Update{View: view, Model: model}:
	default:
		if k.s.Verbose {
			log.Printf("webui: %v: dropped %v update", k.conn.RemoteAddr(), view)
		}
	}
}

// reply sends an update to this socket only.
func (k *Socket) reply(view string, model any) {
	k.s.socketsRw.RLock()
	defer k.s.socketsRw.RUnlock()

	k.notify(view, model)
}

func (k *Socket) readHandler() {
	// The reader owns the lifetime of the socket.
	defer func() {
		_ = k.conn.Close()
		k.s.removeSocket(k)
	}()

	var (
		r       = wsutil.NewReader(k.conn, ws.StateServerSide)
		decoder = json.NewDecoder(r)
	)

	for {
		hdr, err := r.NextFrame()
		if err != nil {
			if k.s.Verbose {
				log.Printf("webui: reading next websocket frame: %v", err)
			}
			return
		}
		if hdr.OpCode == ws.OpClose {
			return
		}

		if hdr.OpCode != ws.OpText {
			_ = r.Discard()
			continue
		}

		var req Request
		err = decoder.Decode(&req)
		if err != nil {
			k.reply("error", fmt.Sprintf("%v", err))
			_ = r.Discard()
			// The decoder may hold a partial frame.
			decoder = json.NewDecoder(r)
			continue
		}

		err = k.s.execute(k, req)
		if err != nil {
			k.reply("error", err.Error())
		}
	}
}

func (k *Socket) writeHandler() {
	var (
		w       = wsutil.NewWriter(k.conn, ws.StateServerSide, ws.OpText)
		encoder = json.NewEncoder(w)
	)

	for u := range k.q {
		err := encoder.Encode(&u)
		if err != nil {
			log.Printf("webui: %v", err)
			continue
		}
		err = w.Flush()
		if err != nil {
			if k.s.Verbose {
				log.Printf("webui: %v", err)
			}
			continue
		}
	}
}
