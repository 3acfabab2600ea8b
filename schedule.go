package tapedelay

// scheduler maps the host's speed onto the ratios the two sides of the tape
// run at. Implementations are driven by the engine in tape order: apply
// before a chunk is recorded, noteWrite after it lands on tape, noteRead as
// the playback side consumes tape.
type scheduler interface {
	// apply refreshes the schedule from the host speed. For the deferred
	// strategy this may enqueue a speed change; a full queue is an error.
	apply(speed float64) error

	// writeRatio is the record-side conversion ratio (1.0 means the write
	// path is an identity copy).
	writeRatio() float64

	// readRatio is the playback-side conversion ratio for the next chunk.
	readRatio() float64

	// noteWrite and noteRead advance the cumulative tape positions.
	noteWrite(n int)
	noteRead(n int)

	// depth is the number of queued speed changes.
	depth() int

	reset(speed float64)
}

// dualSchedule drives both converters directly from the current speed. The
// tape transport runs at speed× the host rate: the record head lays down
// speed tape samples per host sample (write ratio = speed) and the playback
// head consumes speed tape samples per output sample (read ratio =
// 1/speed). No tape-position bookkeeping is needed; the tape itself encodes
// the time-compression history.
type dualSchedule struct {
	speed float64
}

func newDualSchedule(speed float64) *dualSchedule {
	return &dualSchedule{speed: speed}
}

func (s *dualSchedule) apply(speed float64) error {
	s.speed = speed
	return nil
}

func (s *dualSchedule) writeRatio() float64 { return s.speed }
func (s *dualSchedule) readRatio() float64  { return 1.0 / s.speed }
func (s *dualSchedule) noteWrite(int)       {}
func (s *dualSchedule) noteRead(int)        {}
func (s *dualSchedule) depth() int          { return 0 }

func (s *dualSchedule) reset(speed float64) {
	s.speed = speed
}

// speedChange records a speed taking effect at a cumulative tape position.
type speedChange struct {
	pos   uint64
	speed float64
}

// deferredSchedule implements the deferred-ratio strategy: the write path is
// an identity copy, and every speed change is queued with the tape position
// it was recorded at. Playback repitches by currentSpeed/recordedSpeed,
// where recordedSpeed is the speed that was active when the material under
// the playback head was recorded: the read converter consumes that many tape
// samples per output sample. Changes retire as the read position passes
// them.
type deferredSchedule struct {
	events []speedChange // fixed-capacity ring
	head   int
	count  int

	current  float64 // latest host speed
	recorded float64 // speed at the read position
	pending  float64 // speed of the newest queued (or applied) change

	tapeWritten uint64
	tapeRead    uint64
}

func newDeferredSchedule(capacity int, speed float64) *deferredSchedule {
	return &deferredSchedule{
		events:   make([]speedChange, capacity),
		current:  speed,
		recorded: speed,
		pending:  speed,
	}
}

func (s *deferredSchedule) apply(speed float64) error {
	s.current = speed
	if speed == s.pending {
		return nil
	}
	if s.count == len(s.events) {
		return ErrScheduleFull
	}
	s.events[(s.head+s.count)%len(s.events)] = speedChange{pos: s.tapeWritten, speed: speed}
	s.count++
	s.pending = speed
	return nil
}

func (s *deferredSchedule) writeRatio() float64 { return 1.0 }

func (s *deferredSchedule) readRatio() float64 {
	return s.recorded / s.current
}

func (s *deferredSchedule) noteWrite(n int) {
	s.tapeWritten += uint64(n)
}

// noteRead retires every change whose recording position the read cursor
// has reached.
func (s *deferredSchedule) noteRead(n int) {
	s.tapeRead += uint64(n)
	for s.count > 0 && s.events[s.head].pos <= s.tapeRead {
		s.recorded = s.events[s.head].speed
		s.head = (s.head + 1) % len(s.events)
		s.count--
	}
}

func (s *deferredSchedule) depth() int { return s.count }

func (s *deferredSchedule) reset(speed float64) {
	s.head = 0
	s.count = 0
	s.current = speed
	s.recorded = speed
	s.pending = speed
	s.tapeWritten = 0
	s.tapeRead = 0
}
