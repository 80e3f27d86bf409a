package webui

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/i8085/emulator"
)

type client struct {
	t    *testing.T
	conn net.Conn
	rw   io.ReadWriter
}

func dial(t *testing.T, server *httptest.Server) (c *client) {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/"
	conn, br, _, err := ws.Dial(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	c = &client{t: t, conn: conn}
	c.rw = conn
	if br != nil {
		// The server may write before the handshake has been consumed.
		c.rw = struct {
			io.Reader
			io.Writer
		}{br, conn}
	}

	return
}

func (c *client) send(command string, args any) {
	data, err := json.Marshal(map[string]any{"c": command, "a": args})
	if err != nil {
		c.t.Fatal(err)
	}
	err = wsutil.WriteClientText(c.conn, data)
	if err != nil {
		c.t.Fatal(err)
	}
}

// expect reads updates until one for the view is accepted.
func (c *client) expect(view string, accept func(model json.RawMessage) bool) {
	for {
		data, err := wsutil.ReadServerText(c.rw)
		if err != nil {
			c.t.Fatalf("waiting for %v: %v", view, err)
		}

		var update struct {
			View  string          `json:"v"`
			Model json.RawMessage `json:"m"`
		}
		err = json.Unmarshal(data, &update)
		if err != nil {
			c.t.Fatal(err)
		}

		if update.View == view && (accept == nil || accept(update.Model)) {
			return
		}
	}
}

func (c *client) expectCpu(state string) (model CpuModel) {
	c.expect("cpu", func(data json.RawMessage) bool {
		model = CpuModel{}
		_ = json.Unmarshal(data, &model)
		return model.State == state
	})
	return
}

func TestServer(t *testing.T) {
	assert := assert.New(t)

	engine := emulator.NewEngine()
	server := httptest.NewServer(NewServer(engine).Handler())
	defer server.Close()

	c := dial(t, server)
	c.expectCpu("Idle")

	c.send("assemble", map[string]any{"source": "MVI A,5\nINR A\nHLT"})
	var prog ProgramModel
	c.expect("program", func(data json.RawMessage) bool {
		return json.Unmarshal(data, &prog) == nil
	})
	assert.Empty(prog.Errors)
	assert.Equal(uint16(0), prog.Origin)
	assert.Contains(prog.Listing, "0000  3E 05")

	c.send("step", nil)
	var entries []LogModel
	c.expect("log", func(data json.RawMessage) bool {
		return json.Unmarshal(data, &entries) == nil
	})
	assert.Equal([]LogModel{{Address: "0000H", Text: "MVI A,05H"}}, entries)
	cpu := c.expectCpu("Idle")
	assert.Equal(byte(5), cpu.A)
	assert.Equal(uint16(2), cpu.PC)

	c.send("run", map[string]any{"fast": true})
	cpu = c.expectCpu("Halted")
	assert.Equal(byte(6), cpu.A)
	assert.Equal(3, cpu.Count)
	assert.True(cpu.Halted)

	c.send("memory", map[string]any{"start": 0, "end": 2})
	var memory MemoryModel
	c.expect("memory", func(data json.RawMessage) bool {
		return json.Unmarshal(data, &memory) == nil
	})
	assert.Equal([]int{0x3e, 0x05, 0x3c}, memory.Data)

	c.send("break", map[string]any{"line": 2})
	var breakpoints []string
	c.expect("breakpoints", func(data json.RawMessage) bool {
		return json.Unmarshal(data, &breakpoints) == nil
	})
	assert.Equal([]string{"0002"}, breakpoints)

	c.send("reset", nil)
	cpu = c.expectCpu("Idle")
	assert.Equal(0, cpu.Count)

	c.send("run", nil)
	cpu = c.expectCpu("PausedAtBreakpoint")
	assert.Equal(uint16(2), cpu.PC)

	c.send("bogus", nil)
	c.expect("error", nil)

	c.send("assemble", map[string]any{"source": "BOGUS"})
	prog = ProgramModel{}
	c.expect("program", func(data json.RawMessage) bool {
		return json.Unmarshal(data, &prog) == nil
	})
	assert.Equal(1, len(prog.Errors))
	assert.Contains(prog.Errors[0], "line 1")
}

func TestServerFault(t *testing.T) {
	assert := assert.New(t)

	engine := emulator.NewEngine()
	_, err := engine.Assemble("OUT 1\nHLT")
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(NewServer(engine).Handler())
	defer server.Close()

	c := dial(t, server)
	c.expect("program", nil)

	c.send("step", nil)
	var entries []LogModel
	c.expect("log", func(data json.RawMessage) bool {
		return json.Unmarshal(data, &entries) == nil
	})
	if assert.Equal(1, len(entries)) {
		assert.Equal("OUT 01H", entries[0].Text)
		assert.Contains(entries[0].Note, "unsupported instruction")
	}

	cpu := c.expectCpu("Idle")
	assert.Contains(cpu.Fault, "unsupported instruction")
	assert.Equal(uint16(0), cpu.PC)
}
