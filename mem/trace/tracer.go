package trace

import (
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/rocketship/datarecording"
	"github.com/sarchlab/rocketship/mem/cache/replacement"
	"github.com/sarchlab/rocketship/sim/hooking"
)

// A Tracer is a hook that logs every decision of a replacement engine.
type Tracer struct {
	logger *log.Logger
}

// NewTracer creates a new Tracer.
func NewTracer(logger *log.Logger) *Tracer {
	return &Tracer{logger: logger}
}

// Func logs one decision.
func (t *Tracer) Func(ctx hooking.HookCtx) {
	switch d := ctx.Detail.(type) {
	case replacement.VictimDetail:
		t.logger.Printf("victim, %d, %d, %d, %s, %s, 0x%x, 0x%x\n",
			d.AccessID, d.Set, d.Way, d.Role, d.Heuristic, d.PC, d.Address)
	case replacement.UpdateDetail:
		t.logger.Printf("update, %s, %d, %d, %s, %t, %d, %d, %s\n",
			d.AccessType, d.Set, d.Way, d.Heuristic, d.Hit,
			d.InsertionRRPV, d.PSEL, d.FollowerPolicy)
	case replacement.SwitchDetail:
		t.logger.Printf("switch, %s, %s, %d\n", d.From, d.To, d.PSEL)
	}
}

const (
	decisionTable = "replacement_decisions"
	switchTable   = "policy_switches"
)

// decisionEntry is a victim choice or a state update.
type decisionEntry struct {
	ID         string
	Kind       string
	Sequence   uint64
	CPU        int
	Set        int
	Way        int
	PC         uint64
	Address    uint64
	AccessType string
	Role       string
	Heuristic  string
	Hit        bool
	RRPV       int
	PSEL       uint32
}

// switchEntry is a step of the follower policy walk.
type switchEntry struct {
	ID       string
	Sequence uint64
	From     string
	To       string
	PSEL     uint32
}

// A DBTracer is a hook that records the decisions of a replacement engine
// into a database using the data recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	sequence     uint64
}

// NewDBTracer creates the decision tables and returns a tracer writing to
// them.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{dataRecorder: dataRecorder}

	t.dataRecorder.CreateTable(decisionTable, decisionEntry{})
	t.dataRecorder.CreateTable(switchTable, switchEntry{})

	return t
}

// Func records one decision.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	t.sequence++

	switch d := ctx.Detail.(type) {
	case replacement.VictimDetail:
		t.dataRecorder.InsertData(decisionTable, decisionEntry{
			ID:         xid.New().String(),
			Kind:       "victim",
			Sequence:   t.sequence,
			CPU:        d.CPU,
			Set:        d.Set,
			Way:        d.Way,
			PC:         d.PC,
			Address:    d.Address,
			AccessType: d.AccessType.String(),
			Role:       d.Role.String(),
			Heuristic:  d.Heuristic.String(),
		})
	case replacement.UpdateDetail:
		t.dataRecorder.InsertData(decisionTable, decisionEntry{
			ID:         xid.New().String(),
			Kind:       "update",
			Sequence:   t.sequence,
			CPU:        d.CPU,
			Set:        d.Set,
			Way:        d.Way,
			PC:         d.PC,
			Address:    d.Address,
			AccessType: d.AccessType.String(),
			Role:       d.Role.String(),
			Heuristic:  d.Heuristic.String(),
			Hit:        d.Hit,
			RRPV:       int(d.InsertionRRPV),
			PSEL:       d.PSEL,
		})
	case replacement.SwitchDetail:
		t.dataRecorder.InsertData(switchTable, switchEntry{
			ID:       xid.New().String(),
			Sequence: t.sequence,
			From:     d.From.String(),
			To:       d.To.String(),
			PSEL:     d.PSEL,
		})
	}
}
