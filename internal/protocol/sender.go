package protocol

import "go.uber.org/zap"

// Sender queues envelopes toward the relay. Implemented by the transport
// session; consumers hold the interface so output can be captured in
// tests.
type Sender interface {
	Send(env Envelope)
}

// Push encodes a payload and queues it, logging instead of failing:
// outbound traffic is best-effort.
func Push(s Sender, log *zap.Logger, msgType string, payload any) {
	env, err := Encode(msgType, payload)
	if err != nil {
		log.Error("encode outbound", zap.String("type", msgType), zap.Error(err))
		return
	}
	s.Send(env)
}
