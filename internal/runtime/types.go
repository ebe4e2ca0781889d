package runtime

import (
	"encoding/json"
	"fmt"
)

type State string

const (
	Stopped    State = "stopped"
	Starting   State = "starting"
	Started    State = "started"
	Stopping   State = "stopping"
	Restarting State = "restarting"
)

type Operation int

const (
	OperationStart Operation = iota
	OperationStop
	OperationTeardown
	OperationRestart
)

func (o Operation) String() string {
	switch o {
	case OperationStart:
		return "start"
	case OperationStop:
		return "stop"
	case OperationTeardown:
		return "teardown"
	case OperationRestart:
		return "restart"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// transient is the state held while the operation runs.
func (o Operation) transient() State {
	switch o {
	case OperationStart:
		return Starting
	case OperationRestart:
		return Restarting
	default:
		return Stopping
	}
}

// terminal is the state entered when every script succeeded.
func (o Operation) terminal() State {
	switch o {
	case OperationStart, OperationRestart:
		return Started
	default:
		return Stopped
	}
}

// scripts lists the network scripts the operation runs, in order.
func (o Operation) scripts() []string {
	switch o {
	case OperationStart:
		return []string{"start"}
	case OperationStop:
		return []string{"stop"}
	case OperationTeardown:
		return []string{"teardown"}
	case OperationRestart:
		return []string{"stop", "start"}
	default:
		return nil
	}
}

type BusyEvent struct {
	Busy bool
}

type StateEvent struct {
	State State
}

type NodeType string

const (
	NodeTypePeer    NodeType = "fabric-peer"
	NodeTypeCA      NodeType = "fabric-ca"
	NodeTypeOrderer NodeType = "fabric-orderer"
)

type Node struct {
	ShortName string   `json:"short_name"`
	Name      string   `json:"name"`
	Type      NodeType `json:"type"`
	URL       string   `json:"url"`
	Wallet    string   `json:"wallet"`
	Identity  string   `json:"identity"`
	MSPID     string   `json:"msp_id"`
}

type Gateway struct {
	Name              string          `json:"name"`
	Path              string          `json:"path"`
	ConnectionProfile json.RawMessage `json:"connectionProfile"`
}

// IdentityBundle is a wallet identity with its PEM material base64 encoded.
type IdentityBundle struct {
	Name        string `json:"name"`
	Certificate string `json:"certificate"`
	PrivateKey  string `json:"private_key"`
	MSPID       string `json:"msp_id"`
}
