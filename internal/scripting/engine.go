package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/transitloop/sim/internal/world"
)

// Lua function names the engine looks up.
const (
	FnChooseDestination = "choose_destination"
	FnHeadwaySpeedScale = "headway_speed_scale"
)

// PolicyFuncs lists every Lua function that can override the default policy.
var PolicyFuncs = []string{FnChooseDestination, FnHeadwaySpeedScale}

// Engine wraps a single gopher-lua VM that supplies the simulation policy.
// Single-goroutine access only (tick loop). Missing or failing Lua functions
// fall back to world.DefaultPolicy.
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback world.Policy
}

// NewEngine creates a Lua engine and loads every .lua file in scriptsDir in
// name order. A missing directory yields an engine that only uses the
// default policy.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, fallback: world.DefaultPolicy()}
	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load policy scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
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

// Has reports whether a global Lua function is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// call invokes a global Lua function returning one number.
func (e *Engine) call(name string, args ...lua.LValue) (float64, bool) {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua "+name+" error", zap.Error(err))
		return 0, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		e.log.Error("lua "+name+" returned non-number", zap.String("type", ret.Type().String()))
		return 0, false
	}
	return float64(n), true
}

// ChooseDestination calls choose_destination(origin, count, roll). Station
// indices are zero based on both sides. An out-of-range result or the
// origin itself falls back to the default policy.
func (e *Engine) ChooseDestination(origin, count int, roll float64) int {
	v, ok := e.call(FnChooseDestination, lua.LNumber(origin), lua.LNumber(count), lua.LNumber(roll))
	if !ok {
		return e.fallback.ChooseDestination(origin, count, roll)
	}
	d := int(math.Floor(v))
	if d < 0 || d >= count || d == origin {
		e.log.Warn("lua choose_destination out of range",
			zap.Int("origin", origin), zap.Int("count", count), zap.Float64("result", v))
		return e.fallback.ChooseDestination(origin, count, roll)
	}
	return d
}

// HeadwaySpeedScale calls headway_speed_scale(gap, ideal). The caller clamps
// the result.
func (e *Engine) HeadwaySpeedScale(gap, ideal float64) float64 {
	v, ok := e.call(FnHeadwaySpeedScale, lua.LNumber(gap), lua.LNumber(ideal))
	if !ok {
		return e.fallback.HeadwaySpeedScale(gap, ideal)
	}
	return v
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}
