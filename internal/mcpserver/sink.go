package mcpserver

import "github.com/nsstate/ipystate/internal/change"

// envelopeSink implements change.Sink: it turns every AtomicChange handed to
// it into a schema-validated Envelope, appended in transfer order. It never
// retains PrimitivePayload or SerializedVar.Chunk bytes — those stay
// opaque and never leave the process (spec §6's transport boundary).
type envelopeSink struct {
	envelopes []Envelope
}

// Transfer implements change.Sink.
func (s *envelopeSink) Transfer(id string, p change.TransferPayload) error {
	env := newEnvelope(id, p)

	if err := validateEnvelope(env); err != nil {
		return err
	}

	s.envelopes = append(s.envelopes, env)

	return nil
}
