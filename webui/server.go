// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package webui

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gobwas/ws"

	"github.com/ezrec/i8085/emulator"
	"github.com/ezrec/i8085/isa"
)

const (
	QUEUE_DEPTH = 256 // Pending updates per socket before updates are dropped.
)

// Update is a view model sent to the browser.
type Update struct {
	View  string `json:"v"`
	Model any    `json:"m"`
}

// CpuModel is the "cpu" view.
type CpuModel struct {
	State   string `json:"state"`
	A       byte   `json:"a"`
	B       byte   `json:"b"`
	C       byte   `json:"c"`
	D       byte   `json:"d"`
	E       byte   `json:"e"`
	H       byte   `json:"h"`
	L       byte   `json:"l"`
	SP      uint16 `json:"sp"`
	PC      uint16 `json:"pc"`
	Flags   byte   `json:"flags"`
	Halted  bool   `json:"halted"`
	Count   int    `json:"count"`
	LineNo  int    `json:"line"`
	Elapsed int64  `json:"elapsed_us"`
	Fault   string `json:"fault,omitempty"`
}

// LogModel is an entry of the "log" view.
type LogModel struct {
	Address string `json:"address"`
	Text    string `json:"text"`
	Note    string `json:"note,omitempty"`
}

// ProgramModel is the "program" view.
type ProgramModel struct {
	Origin   uint16   `json:"origin"`
	Listing  string   `json:"listing,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// MemoryModel is the "memory" view.
type MemoryModel struct {
	Start uint16 `json:"start"`
	Data  []int  `json:"data"`
}

// Server bridges an engine to browser displays over websockets.
type Server struct {
	Verbose bool // If set, enables verbose logging.

	engine *emulator.Engine
	mux    *http.ServeMux

	socketsRw sync.RWMutex
	sockets   []*Socket

	runMutex sync.Mutex
	run      *emulator.Run
}

// NewServer creates a server for an engine, handling websockets on /ws/.
func NewServer(engine *emulator.Engine) (s *Server) {
	s = &Server{
		engine: engine,
		mux:    http.NewServeMux(),
	}

	s.mux.Handle("/ws/", http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(req, rw)
		if err != nil {
			log.Printf("webui: %v", err)
			return
		}

		socket := newSocket(s, conn)

		// Start the new socket with the current views.
		socket.reply("cpu", cpuModel(engine.Snapshot()))
		socket.reply("breakpoints", breakpointsModel(engine.Breakpoints()))
		if prog := engine.Program(); prog != nil {
			socket.reply("program", ProgramModel{Origin: prog.Origin, Listing: prog.Listing()})
		}
	}))

	return
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on a TCP address.
func (s *Server) ListenAndServe(addr string) error {
	if s.Verbose {
		log.Printf("webui: listening on %v", addr)
	}
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) appendSocket(socket *Socket) {
	s.socketsRw.Lock()
	defer s.socketsRw.Unlock()

	s.sockets = append(s.sockets, socket)
}

// removeSocket forgets a socket and closes its queue.
func (s *Server) removeSocket(socket *Socket) {
	s.socketsRw.Lock()
	defer s.socketsRw.Unlock()

	for n, sk := range s.sockets {
		if sk == socket {
			s.sockets = append(s.sockets[:n], s.sockets[n+1:]...)
			socket.closed = true
			close(socket.q)
			break
		}
	}
}

// Broadcast a view model to every connected socket.
func (s *Server) Broadcast(view string, model any) {
	s.socketsRw.RLock()
	defer s.socketsRw.RUnlock()

	for _, socket := range s.sockets {
		socket.notify(view, model)
	}
}

// broadcastState sends the cpu view, and the log view if it has entries.
func (s *Server) broadcastState(snapshot emulator.Snapshot, entries []emulator.LogEntry) {
	if len(entries) != 0 {
		s.Broadcast("log", logModel(entries))
	}
	s.Broadcast("cpu", cpuModel(snapshot))
}

// start a run, broadcasting every yield.
func (s *Server) start(fast bool) (err error) {
	s.stop()

	run, err := s.engine.Run(context.Background(), emulator.RunOptions{
		Fast: fast,
		OnYield: func(update emulator.Update) {
			s.broadcastState(update.Snapshot, update.Log)
		},
	})
	if err != nil {
		return
	}

	s.runMutex.Lock()
	s.run = run
	s.runMutex.Unlock()

	return
}

// stop the run started by this server, if any.
func (s *Server) stop() {
	s.runMutex.Lock()
	run := s.run
	s.run = nil
	s.runMutex.Unlock()

	if run != nil {
		run.Stop()
		run.Wait()
	}
}

func cpuModel(snap emulator.Snapshot) (model CpuModel) {
	st := snap.Cpu
	model = CpuModel{
		State:   snap.State.String(),
		A:       st.A,
		B:       st.B,
		C:       st.C,
		D:       st.D,
		E:       st.E,
		H:       st.H,
		L:       st.L,
		SP:      st.SP,
		PC:      st.PC,
		Flags:   st.Flags.Byte(),
		Halted:  st.Halted,
		Count:   st.Count,
		LineNo:  snap.LineNo,
		Elapsed: snap.Elapsed.Microseconds(),
	}
	if snap.Fault != nil {
		model.Fault = snap.Fault.Error()
	}
	return
}

func logModel(entries []emulator.LogEntry) (model []LogModel) {
	model = make([]LogModel, len(entries))
	for n, entry := range entries {
		model[n] = LogModel{
			Address: isa.Hex16(entry.Address),
			Text:    entry.Text,
			Note:    entry.Note,
		}
	}
	return
}

func breakpointsModel(addrs []uint16) (model []string) {
	model = make([]string, len(addrs))
	for n, addr := range addrs {
		model[n] = fmt.Sprintf("%04X", addr)
	}
	return
}
