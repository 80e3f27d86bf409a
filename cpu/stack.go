package cpu

const (
	STACK_LIMIT = 64 // Maximum tracked call depth.
)

// Frame is a subroutine call tracked by the CPU.
type Frame struct {
	Site   uint16 // Address of the CALL or RST.
	Target uint16 // Subroutine entry.
	Return uint16 // Expected return address.
}

// Stack is a shadow of the subroutine calls on the 8085 stack.
// Programs may manipulate SP directly, so it is a debugging aid only.
type Stack struct {
	Data []Frame
}

// Push a frame. When full the oldest frame is forgotten.
func (s *Stack) Push(frame Frame) {
	if s.Full() {
		s.Data = append(s.Data[:0], s.Data[1:]...)
	}
	s.Data = append(s.Data, frame)
}

func (s *Stack) Pop() (frame Frame, ok bool) {
	frame, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

// Return unwinds to the innermost frame returning to addr.
// Returns to an address no frame expects leave the stack untouched.
func (s *Stack) Return(addr uint16) (frame Frame, ok bool) {
	for n := len(s.Data) - 1; n >= 0; n-- {
		if s.Data[n].Return == addr {
			frame, ok = s.Data[n], true
			s.Data = s.Data[:n]
			return
		}
	}
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) == STACK_LIMIT
}

func (s *Stack) Peek() (frame Frame, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

// Frames returns a copy of the frames, innermost last.
func (s *Stack) Frames() []Frame {
	return append([]Frame(nil), s.Data...)
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
