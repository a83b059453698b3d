package iso7816

// Transaction is one physical exchange: the bytes put on the wire and the
// R-APDU the card sent back. Command is the decoded form of Raw; it is nil
// when a verbatim command could not be decoded.
type Transaction struct {
	Command  *CommandAPDU
	Raw      []byte
	Response *ResponseAPDU
}

// Bytes returns what was transmitted, encoding Command when Raw is unset.
func (t *Transaction) Bytes() ([]byte, error) {
	if t.Raw != nil {
		return t.Raw, nil
	}
	if t.Command == nil {
		return nil, nil
	}
	return t.Command.Bytes()
}

// Trace is every exchange made for one logical command, in order. A card
// answering '61XX' or '6CXX' adds a GET RESPONSE or a resend to the trace;
// the last transaction carries the outcome.
type Trace []Transaction

// Last returns the final transaction, or nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// FollowedUp reports whether the client had to send follow-up commands.
func (t Trace) FollowedUp() bool {
	return len(t) > 1
}
