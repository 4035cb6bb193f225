//go:build !no_automation

package automation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/zcl"
)

// DefaultTimeout bounds one on_command call.
const DefaultTimeout = time.Second

// ClusterScript is a cluster-specific command handler implemented in Lua. The script
// defines a global
//
//	function on_command(cmd, payload, hdr) ... end
//
// where cmd is the command id, payload the bytes after the ZCL header as a string and
// hdr a table {seq, manufacturer, disable_default_response}. Returning false marks the
// command as unsupported; raising an error fails the frame.
type ClusterScript struct {
	id      string
	logger  *slog.Logger
	timeout time.Duration

	mu    sync.Mutex
	state *lua.LState
	// cluster is only set while a command is being handled.
	cluster *device.AttributeCluster
}

// NewClusterScript compiles and runs the top-level code of s.
func NewClusterScript(s *Script, logger *slog.Logger, timeout time.Duration) (*ClusterScript, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cs := &ClusterScript{
		id:      s.ID,
		logger:  logger.With("script", s.ID),
		timeout: timeout,
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: false})

	// Sandbox: remove dangerous libs and functions
	L.SetGlobal("os", lua.LNil)
	L.SetGlobal("io", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("debug", lua.LNil)
	L.SetGlobal("package", lua.LNil)

	registerZCLModule(L, cs)
	registerSystemModule(L, cs.logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)
	err := L.DoString(s.LuaCode)
	L.RemoveContext()
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("execute script %s: %w", s.ID, err)
	}
	if L.GetGlobal("on_command").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("script %s: on_command is not defined", s.ID)
	}

	cs.state = L
	return cs, nil
}

// ID returns the script id.
func (cs *ClusterScript) ID() string { return cs.id }

// HandleClusterCommand implements device.CommandHandler.
func (cs *ClusterScript) HandleClusterCommand(c *device.AttributeCluster, hdr zcl.Header, payload []byte) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.state == nil {
		return fmt.Errorf("script %s: closed", cs.id)
	}
	L := cs.state

	cs.cluster = c
	defer func() { cs.cluster = nil }()

	ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	hdrTable := L.NewTable()
	hdrTable.RawSetString("seq", lua.LNumber(hdr.SeqNumber))
	hdrTable.RawSetString("disable_default_response", lua.LBool(hdr.DefaultResponseDisabled()))
	if hdr.ManufacturerSpecific() {
		hdrTable.RawSetString("manufacturer", lua.LNumber(hdr.ManufacturerCode))
	}

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("on_command"),
		NRet:    1,
		Protect: true,
	}, lua.LNumber(hdr.CommandID), lua.LString(payload), hdrTable)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "context deadline exceeded") {
			errStr = fmt.Sprintf("timeout (%s)", cs.timeout)
		}
		return fmt.Errorf("script %s command 0x%02X: %s", cs.id, hdr.CommandID, errStr)
	}
	ret := L.Get(-1)
	L.Pop(1)

	if ret == lua.LFalse {
		return fmt.Errorf("script %s command 0x%02X: %w", cs.id, hdr.CommandID, device.ErrUnsupportedCommand)
	}
	return nil
}

// Close releases the Lua state.
func (cs *ClusterScript) Close() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.state != nil {
		cs.state.Close()
		cs.state = nil
	}
}

// Engine creates cluster scripts from the scripts directory and owns their Lua states.
type Engine struct {
	manager *Manager
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	scripts []*ClusterScript
}

// NewEngine creates a new automation engine.
func NewEngine(mgr *Manager, logger *slog.Logger, timeout time.Duration) *Engine {
	return &Engine{
		manager: mgr,
		logger:  logger.With("component", "automation"),
		timeout: timeout,
	}
}

// HandlerFactory returns a device.HandlerFactory that attaches the script named by a
// cluster's configuration. Clusters without a script get no handler.
func (e *Engine) HandlerFactory() device.HandlerFactory {
	return func(cc device.ClusterConfig) (device.CommandHandler, error) {
		if cc.Script == "" {
			return nil, nil
		}
		s, err := e.manager.Get(cc.Script)
		if err != nil {
			return nil, fmt.Errorf("load script %q: %w", cc.Script, err)
		}
		if !s.Meta.Enabled {
			e.logger.Info("script disabled", "id", s.ID, "cluster", fmt.Sprintf("0x%04X", cc.ID))
			return nil, nil
		}
		cs, err := NewClusterScript(s, e.logger, e.timeout)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.scripts = append(e.scripts, cs)
		e.mu.Unlock()

		e.logger.Info("script attached", "id", s.ID, "name", s.Meta.Name, "cluster", fmt.Sprintf("0x%04X", cc.ID))
		return cs, nil
	}
}

// Stop closes every script created by the engine.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, cs := range e.scripts {
		cs.Close()
	}
	e.scripts = nil
	e.logger.Info("automation engine stopped")
}

// goToLua converts a Go value to a Lua value.
func goToLua(L *lua.LState, v interface{}) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case uint8:
		return lua.LNumber(val)
	case uint16:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case int8:
		return lua.LNumber(val)
	case int16:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case map[string]interface{}:
		t := L.NewTable()
		for k, vv := range val {
			t.RawSetString(k, goToLua(L, vv))
		}
		return t
	case []interface{}:
		t := L.NewTable()
		for i, vv := range val {
			t.RawSetInt(i+1, goToLua(L, vv))
		}
		return t
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

// luaToGo converts a Lua scalar into the form device.Attribute.SetValue accepts.
func luaToGo(v lua.LValue) interface{} {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	default:
		return nil
	}
}
