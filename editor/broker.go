package editor

import (
	"time"
)

type (
	// Broker carries messages from the goroutines doing slow work on behalf
	// of the model (recognition, persistence, metadata lookup) back to the
	// goroutine owning the model. The owner receives from ToModel and hands
	// every message to Model.ProcessMsg, which makes ToModel the single queue
	// through which results are written into the document.
	Broker struct {
		ToModel chan MsgToModel
	}

	// MsgToModel is a message sent to the model. Generation is the edit
	// generation of the model at the time the work producing the message was
	// started; Data is the result, or an Alert.
	MsgToModel struct {
		Generation uint64
		Data       any
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToModel: make(chan MsgToModel, 64),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
