package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riftgo/server/internal/data"
	"github.com/riftgo/server/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// builtinChunk is the default stat formula set. Script files loaded from the
// scripts directory may redefine any of these functions.
const builtinChunk = `
function calc_fight_props(base_hp, base_atk, base_def, hp_curve, atk_curve, def_curve, level, break_level)
    local break_bonus = 1.0 + 0.05 * break_level
    return {
        [FIGHT_PROP_BASE_HP]      = base_hp  * curve_value(hp_curve, level)  * break_bonus,
        [FIGHT_PROP_BASE_ATTACK]  = base_atk * curve_value(atk_curve, level) * break_bonus,
        [FIGHT_PROP_BASE_DEFENSE] = base_def * curve_value(def_curve, level) * break_bonus,
        [FIGHT_PROP_CRIT_RATE]    = 0.05,
        [FIGHT_PROP_CRIT_DAMAGE]  = 0.5,
    }
end

function ability_modifiers(name, level)
    return {}
end
`

// Engine wraps a single gopher-lua VM for stat-curve and ability-modifier
// scripts. Single-goroutine access only (scene loop). Implements
// world.StatEngine.
type Engine struct {
	vm     *lua.LState
	curves *data.CurveTable
	log    *zap.Logger
}

// NewEngine creates a Lua engine: growth-curve lookup is exposed to scripts
// as curve_value(id, level), the builtin formulas are loaded first, then any
// .lua files in scriptsDir may override them. A missing directory is fine;
// the builtins remain active.
func NewEngine(scriptsDir string, curves *data.CurveTable, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("FIGHT_PROP_BASE_HP", lua.LNumber(world.FightPropBaseHP))
	vm.SetGlobal("FIGHT_PROP_MAX_HP", lua.LNumber(world.FightPropMaxHP))
	vm.SetGlobal("FIGHT_PROP_CUR_HP", lua.LNumber(world.FightPropCurHP))
	vm.SetGlobal("FIGHT_PROP_BASE_ATTACK", lua.LNumber(world.FightPropBaseAttack))
	vm.SetGlobal("FIGHT_PROP_CUR_ATTACK", lua.LNumber(world.FightPropCurAttack))
	vm.SetGlobal("FIGHT_PROP_BASE_DEFENSE", lua.LNumber(world.FightPropBaseDefense))
	vm.SetGlobal("FIGHT_PROP_CUR_DEFENSE", lua.LNumber(world.FightPropCurDefense))
	vm.SetGlobal("FIGHT_PROP_CRIT_RATE", lua.LNumber(world.FightPropCritRate))
	vm.SetGlobal("FIGHT_PROP_CRIT_DAMAGE", lua.LNumber(world.FightPropCritDamage))

	e := &Engine{vm: vm, curves: curves, log: log}

	vm.SetGlobal("curve_value", vm.NewFunction(func(L *lua.LState) int {
		curveID := L.CheckString(1)
		level := int32(L.CheckNumber(2))
		L.Push(lua.LNumber(e.curves.Value(curveID, level)))
		return 1
	}))

	if err := vm.DoString(builtinChunk); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin scripts: %w", err)
	}

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
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

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// CalcFightProps implements world.StatEngine: calls calc_fight_props and
// decodes the returned prop-keyed table.
func (e *Engine) CalcFightProps(ctx context.Context, base world.BaseStats, level, breakLevel int32) (map[world.FightPropKey]float64, error) {
	ret, err := e.call("calc_fight_props",
		lua.LNumber(base.HP),
		lua.LNumber(base.Attack),
		lua.LNumber(base.Defense),
		lua.LString(base.HPCurve),
		lua.LString(base.AttackCurve),
		lua.LString(base.DefenseCurve),
		lua.LNumber(level),
		lua.LNumber(breakLevel),
	)
	if err != nil {
		return nil, err
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("calc_fight_props returned %s, want table", ret.Type())
	}

	props := make(map[world.FightPropKey]float64, 8)
	var decodeErr error
	tbl.ForEach(func(k, v lua.LValue) {
		key, kok := k.(lua.LNumber)
		val, vok := v.(lua.LNumber)
		if !kok || !vok {
			decodeErr = fmt.Errorf("calc_fight_props entry %s=%s is not numeric", k, v)
			return
		}
		props[world.FightPropKey(key)] = float64(val)
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return props, nil
}

// AbilityModifiers implements world.StatEngine: calls ability_modifiers and
// decodes the returned {prop=, value=} array.
func (e *Engine) AbilityModifiers(ctx context.Context, ability string, level int32) ([]world.AbilityModifier, error) {
	ret, err := e.call("ability_modifiers", lua.LString(ability), lua.LNumber(level))
	if err != nil {
		return nil, err
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("ability_modifiers returned %s, want table", ret.Type())
	}

	var mods []world.AbilityModifier
	var decodeErr error
	tbl.ForEach(func(_, v lua.LValue) {
		entry, eok := v.(*lua.LTable)
		if !eok {
			decodeErr = fmt.Errorf("ability_modifiers entry is %s, want table", v.Type())
			return
		}
		prop, pok := entry.RawGetString("prop").(lua.LNumber)
		val, vok := entry.RawGetString("value").(lua.LNumber)
		if !pok || !vok {
			decodeErr = fmt.Errorf("ability_modifiers entry for %q missing prop/value", ability)
			return
		}
		mods = append(mods, world.AbilityModifier{
			Prop:  world.FightPropKey(prop),
			Value: float64(val),
		})
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return mods, nil
}

// call invokes a global Lua function with one return value.
func (e *Engine) call(name string, args ...lua.LValue) (lua.LValue, error) {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("lua function %q not defined", name)
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return nil, fmt.Errorf("lua %s: %w", name, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret, nil
}
