// Package netmod registers the "net" builtin module: ws_dial(url)
// returns a NativeClass instance wrapping a *websocket.Conn, with
// send/recv/close methods. Exercises the teacher's gorilla/websocket
// dependency without its HTTP-server/pcap surface (see SPEC_FULL.md's
// DOMAIN STACK section — out of core scope).
package netmod

import (
	"github.com/gorilla/websocket"

	"nyra/internal/excn"
	"nyra/internal/module"
	"nyra/internal/value"
)

func init() {
	module.Register("net", load)
}

func load(h *value.Heap) *value.ModuleObject {
	_, mod := value.ModuleValue(h, "net")

	class := value.NewNativeClass(h, "WebSocket", func(args []value.Value) (interface{}, *excn.Error) {
		if len(args) != 1 || args[0].Object() == nil {
			return nil, excn.New(excn.TypeError, "net.ws_dial() takes one URL string argument")
		}
		conn, _, err := websocket.DefaultDialer.Dial(value.Str(args[0]), nil)
		if err != nil {
			return nil, excn.New(excn.RuntimeError, "ws_dial: %v", err)
		}
		return conn, nil
	})

	class.AddMethod("send", func(self interface{}, args []value.Value) (value.Value, *excn.Error) {
		conn := self.(*websocket.Conn)
		if len(args) != 1 || args[0].Object() == nil {
			return value.Value{}, excn.New(excn.TypeError, "send() takes one string argument")
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(value.Str(args[0]))); err != nil {
			return value.Value{}, excn.New(excn.RuntimeError, "send: %v", err)
		}
		return value.None(), nil
	})

	class.AddMethod("recv", func(self interface{}, args []value.Value) (value.Value, *excn.Error) {
		conn := self.(*websocket.Conn)
		if len(args) != 0 {
			return value.Value{}, excn.New(excn.TypeError, "recv() takes no arguments")
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return value.Value{}, excn.New(excn.RuntimeError, "recv: %v", err)
		}
		return value.StringValue(h, string(msg)), nil
	})

	class.AddMethod("close", func(self interface{}, args []value.Value) (value.Value, *excn.Error) {
		conn := self.(*websocket.Conn)
		if err := conn.Close(); err != nil {
			return value.Value{}, excn.New(excn.RuntimeError, "close: %v", err)
		}
		return value.None(), nil
	})

	mod.Set("ws_dial", value.NativeFunctionValue(h, "net.ws_dial", func(args []value.Value) (value.Value, *excn.Error) {
		data, cerr := class.Construct(args)
		if cerr != nil {
			return value.Value{}, cerr
		}
		return value.NativeInstanceValue(h, class, data), nil
	}))

	return mod
}
