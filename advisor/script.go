package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minaorangina/fantan/deck"
	"github.com/minaorangina/fantan/game"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

var ErrNoChooseFunction = errors.New("script does not define choose(hand, legal, table, name)")

// Script runs a Lua strategy. The script must define a global
//
//	function choose(hand, legal, table, name) return id, rationale end
//
// where hand and legal are arrays of {id, suit, rank} and table maps suit
// symbols to {min, max}.
type Script struct {
	name  string
	proto *lua.FunctionProto
}

// NewScript compiles source once; each Advise call runs it in a fresh state
func NewScript(name, source string) (*Script, error) {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}

	s := &Script{name: name, proto: proto}

	L, err := s.load(context.Background())
	if err != nil {
		return nil, err
	}
	L.Close()

	return s, nil
}

func (s *Script) load(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState()
	L.SetContext(ctx)

	L.Push(L.NewFunctionFromProto(s.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("running %s: %w", s.name, err)
	}
	if L.GetGlobal("choose").Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoChooseFunction
	}
	return L, nil
}

func (s *Script) Advise(ctx context.Context, req Request) (Decision, error) {
	L, err := s.load(ctx)
	if err != nil {
		return Decision{}, err
	}
	defer L.Close()

	err = L.CallByParam(lua.P{
		Fn:      L.GetGlobal("choose"),
		NRet:    2,
		Protect: true,
	}, cardsToLua(L, req.Hand), cardsToLua(L, req.Legal), tableToLua(L, req.Table), lua.LString(req.PlayerName))
	if err != nil {
		return Decision{}, fmt.Errorf("calling choose: %w", err)
	}

	id, rationale := L.Get(-2), L.Get(-1)
	L.Pop(2)

	if id.Type() != lua.LTString {
		return Decision{}, fmt.Errorf("%w: choose returned %s", ErrMalformedReply, id.Type())
	}

	return Decision{
		CardID:    lua.LVAsString(id),
		Rationale: lua.LVAsString(rationale),
	}, nil
}

func cardsToLua(L *lua.LState, cards []deck.Card) *lua.LTable {
	t := L.NewTable()
	for i, c := range cards {
		ct := L.NewTable()
		L.SetField(ct, "id", lua.LString(c.ID()))
		L.SetField(ct, "suit", lua.LString(c.Suit.Symbol()))
		L.SetField(ct, "rank", lua.LNumber(c.Rank))
		t.RawSetInt(i+1, ct)
	}
	return t
}

func tableToLua(L *lua.LState, table game.TableState) *lua.LTable {
	t := L.NewTable()
	for _, suit := range table.Suits() {
		run, _ := table.Run(suit)
		rt := L.NewTable()
		L.SetField(rt, "min", lua.LNumber(run.Min))
		L.SetField(rt, "max", lua.LNumber(run.Max))
		L.SetField(t, suit.Symbol(), rt)
	}
	return t
}
