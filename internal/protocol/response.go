package protocol

import "strings"

// Outbound verbs
const (
	VerbRespond  = "respond"
	VerbReceived = "received"
)

// Response is a reply written to the main slot
type Response interface {
	Format() string
}

// Respond answers a get (or delete) with the key's current value
type Respond struct {
	Key   string
	Value string
}

// Received acknowledges a set, optionally carrying a result
type Received struct {
	Value    string
	HasValue bool
}

func (r Respond) Format() string {
	return strings.Join([]string{VerbRespond, r.Key, r.Value}, Separator)
}

func (r Received) Format() string {
	if !r.HasValue {
		return VerbReceived
	}
	return VerbReceived + Separator + r.Value
}

// Ack is a bare acknowledgement
func Ack() Received {
	return Received{}
}

// AckBool is an acknowledgement carrying true or false
func AckBool(v bool) Received {
	if v {
		return Received{Value: "true", HasValue: true}
	}
	return Received{Value: "false", HasValue: true}
}
