package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM that defines the context menus and
// object gizmos offered to puppeteers. Single-goroutine access only
// (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// ActorContext holds pre-packed actor data handed to the script side.
type ActorContext struct {
	ID               int64
	Name             string
	X, Y             int
	TargetX, TargetY int // cell the menu or selection was requested at
	Drafted          bool
	Zone             string
	HostileResponse  string
	Hour             int
}

// Order is one declarative choice returned by a script. Kind selects the
// game-side executor; the remaining fields are its arguments.
type Order struct {
	Label string
	Kind  string // "goto", "draft", "undraft", "zone", "use", "wait"
	X, Y  int
	Arg   string
}

// MenuChoices calls the Lua menu_choices function for an actor.
func (e *Engine) MenuChoices(ctx ActorContext) []Order {
	return e.callOrders("menu_choices", e.contextTable(ctx))
}

// ObjectGizmos calls the Lua object_gizmos function for the object at
// the context's target cell.
func (e *Engine) ObjectGizmos(ctx ActorContext, object string) []Order {
	return e.callOrders("object_gizmos", e.contextTable(ctx), lua.LString(object))
}

func (e *Engine) contextTable(ctx ActorContext) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(ctx.ID))
	t.RawSetString("name", lua.LString(ctx.Name))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("tx", lua.LNumber(ctx.TargetX))
	t.RawSetString("ty", lua.LNumber(ctx.TargetY))
	t.RawSetString("drafted", lua.LBool(ctx.Drafted))
	t.RawSetString("zone", lua.LString(ctx.Zone))
	t.RawSetString("hostile_response", lua.LString(ctx.HostileResponse))
	t.RawSetString("hour", lua.LNumber(ctx.Hour))
	return t
}

// callOrders invokes a global Lua function expected to return an array of
// order tables. Script errors degrade to an empty menu, never a crash.
func (e *Engine) callOrders(name string, args ...lua.LValue) []Order {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("fn", name))
		return nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call failed", zap.String("fn", name), zap.Error(err))
		return nil
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua function returned non-table", zap.String("fn", name))
		return nil
	}

	var orders []Order
	rt.ForEach(func(_, v lua.LValue) {
		ot, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		orders = append(orders, Order{
			Label: lua.LVAsString(ot.RawGetString("label")),
			Kind:  lua.LVAsString(ot.RawGetString("kind")),
			X:     int(lua.LVAsNumber(ot.RawGetString("x"))),
			Y:     int(lua.LVAsNumber(ot.RawGetString("y"))),
			Arg:   lua.LVAsString(ot.RawGetString("arg")),
		})
	})
	return orders
}
