package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(expr) -> {total, dice, modifier, rolled} | nil, err
//	engine.combat.get_combatant(name) -> table | nil
//	engine.combat.apply_effect(target, effect [, mind_level]) -> bool
//	engine.combat.deal_damage(target, amount [, type]) -> actual
//	engine.combat.heal(target, amount) -> actual
//	engine.narrate(text)
//
// Game-facing functions dispatch through the Manager's callback fields; a
// nil callback makes the function a no-op returning nil or zero.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	logMod := L.NewTable()
	L.SetField(engine, "log", logMod)
	L.SetField(logMod, "debug", L.NewFunction(m.luaLog(m.logger.Debug)))
	L.SetField(logMod, "info", L.NewFunction(m.luaLog(m.logger.Info)))
	L.SetField(logMod, "warn", L.NewFunction(m.luaLog(m.logger.Warn)))
	L.SetField(logMod, "error", L.NewFunction(m.luaLog(m.logger.Error)))

	diceMod := L.NewTable()
	L.SetField(engine, "dice", diceMod)
	L.SetField(diceMod, "roll", L.NewFunction(m.luaDiceRoll))

	combatMod := L.NewTable()
	L.SetField(engine, "combat", combatMod)
	L.SetField(combatMod, "get_combatant", L.NewFunction(m.luaGetCombatant))
	L.SetField(combatMod, "apply_effect", L.NewFunction(m.luaApplyEffect))
	L.SetField(combatMod, "deal_damage", L.NewFunction(m.luaDealDamage))
	L.SetField(combatMod, "heal", L.NewFunction(m.luaHeal))

	L.SetField(engine, "narrate", L.NewFunction(m.luaNarrate))
}

func (m *Manager) luaLog(log func(string, ...zap.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		log(L.CheckString(1), zap.String("origin", "lua"))
		return 0
	}
}

// luaDiceRoll rolls an expression without variables and returns a table
// where total == dice + modifier always holds.
func (m *Manager) luaDiceRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	outcome, err := m.roller.RollAndDescribe(expr, nil)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	diceSum := 0
	for _, face := range outcome.Rolls {
		diceSum += face
	}
	tbl := L.NewTable()
	L.SetField(tbl, "total", lua.LNumber(outcome.Value))
	L.SetField(tbl, "dice", lua.LNumber(diceSum))
	L.SetField(tbl, "modifier", lua.LNumber(outcome.Value-diceSum))
	L.SetField(tbl, "rolled", lua.LString(outcome.Description))
	L.Push(tbl)
	return 1
}

func (m *Manager) luaGetCombatant(L *lua.LState) int {
	name := L.CheckString(1)
	if m.GetCombatant == nil {
		L.Push(lua.LNil)
		return 1
	}
	info := m.GetCombatant(name)
	if info == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(combatantToTable(L, info))
	return 1
}

func combatantToTable(L *lua.LState, info *CombatantInfo) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(info.Name))
	L.SetField(tbl, "team", lua.LString(info.Team))
	L.SetField(tbl, "hp", lua.LNumber(info.HP))
	L.SetField(tbl, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(tbl, "mind", lua.LNumber(info.Mind))
	L.SetField(tbl, "max_mind", lua.LNumber(info.MaxMind))
	L.SetField(tbl, "ac", lua.LNumber(info.AC))
	L.SetField(tbl, "alive", lua.LBool(info.Alive))
	effects := L.NewTable()
	for _, e := range info.Effects {
		effects.Append(lua.LString(e))
	}
	L.SetField(tbl, "effects", effects)
	return tbl
}

func (m *Manager) luaApplyEffect(L *lua.LState) int {
	target := L.CheckString(1)
	effectName := L.CheckString(2)
	mindLevel := L.OptInt(3, 0)
	if m.ApplyEffect == nil {
		L.Push(lua.LFalse)
		return 1
	}
	if err := m.ApplyEffect(target, effectName, mindLevel); err != nil {
		m.logger.Warn("scripting: effect rejected",
			zap.String("target", target),
			zap.String("effect", effectName),
			zap.Error(err),
		)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) luaDealDamage(L *lua.LState) int {
	target := L.CheckString(1)
	amount := L.CheckInt(2)
	damageType := L.OptString(3, "")
	if m.DealDamage == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	dealt, err := m.DealDamage(target, amount, damageType)
	if err != nil {
		m.logger.Warn("scripting: damage rejected",
			zap.String("target", target),
			zap.Int("amount", amount),
			zap.Error(err),
		)
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(dealt))
	return 1
}

func (m *Manager) luaHeal(L *lua.LState) int {
	target := L.CheckString(1)
	amount := L.CheckInt(2)
	if m.Heal == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	healed, err := m.Heal(target, amount)
	if err != nil {
		m.logger.Warn("scripting: heal rejected",
			zap.String("target", target),
			zap.Int("amount", amount),
			zap.Error(err),
		)
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(healed))
	return 1
}

func (m *Manager) luaNarrate(L *lua.LState) int {
	text := L.CheckString(1)
	if m.Narrate != nil {
		m.Narrate(text)
	}
	return 0
}
