package session

// Snapshot is an immutable copy of the session published to status
// observers.
type Snapshot struct {
	State      string `json:"state"`
	Running    bool   `json:"running"`
	Frequency  int    `json:"frequency"`
	TargetRate string `json:"target_rate"`
	ActualRate string `json:"actual_rate"`

	PC    uint16 `json:"pc"`
	A     uint8  `json:"a"`
	B     uint8  `json:"b"`
	X     uint8  `json:"x"`
	Y     uint8  `json:"y"`
	ST    uint16 `json:"st"`
	IR    uint8  `json:"ir"`
	AR    uint16 `json:"ar"`
	Flags uint8  `json:"flags"`

	Cycles    uint64 `json:"cycles"`
	Insns     uint64 `json:"insns"`
	Subs      uint64 `json:"subs"`
	MMIORead  uint64 `json:"mmio_read"`
	MMIOWrite uint64 `json:"mmio_write"`

	Keyboard []byte `json:"keyboard,omitempty"`
	Halted   bool   `json:"halted"`
}

// Snapshot copies the observable state.
func (s *Session) Snapshot() Snapshot {
	c := s.CPU
	return Snapshot{
		State:      s.State.String(),
		Running:    s.Running,
		Frequency:  s.Throttle.Index(),
		TargetRate: s.TargetDesc,
		ActualRate: s.ActualDesc,

		PC:    c.PC,
		A:     c.A,
		B:     c.B,
		X:     c.X,
		Y:     c.Y,
		ST:    c.ST,
		IR:    c.IR,
		AR:    c.AR,
		Flags: c.Flags(),

		Cycles:    c.Cycles,
		Insns:     c.Insns,
		Subs:      c.Subs,
		MMIORead:  s.MMIORead,
		MMIOWrite: s.MMIOWrite,

		Keyboard: s.Keyboard.Snapshot(32),
		Halted:   c.Halted,
	}
}
