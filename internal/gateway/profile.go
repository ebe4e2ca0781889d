package gateway

import (
	"encoding/json"
	"fmt"
)

const (
	NetworkName    = "basic-network"
	ProfileVersion = "1.0.0"
	Organization   = "Org1"
	OrgMSPID       = "Org1MSP"
	OrdererMSPID   = "OrdererMSP"
	Channel        = "mychannel"
	PeerName       = "peer0.org1.example.com"
	OrdererName    = "orderer.example.com"
	CAName         = "ca.org1.example.com"
	CAServerName   = "ca.example.com"

	defaultTimeout = "300"
)

type PeerTimeout struct {
	Endorser string `json:"endorser"`
	EventHub string `json:"eventHub"`
	EventReg string `json:"eventReg"`
}

type Timeout struct {
	Peer    PeerTimeout `json:"peer"`
	Orderer string      `json:"orderer"`
}

type Client struct {
	Organization string `json:"organization"`
	Connection   struct {
		Timeout Timeout `json:"timeout"`
	} `json:"connection"`
}

type ChannelConfig struct {
	Orderers []string            `json:"orderers"`
	Peers    map[string]struct{} `json:"peers"`
}

type OrganizationConfig struct {
	MSPID                  string   `json:"mspid"`
	Peers                  []string `json:"peers"`
	CertificateAuthorities []string `json:"certificateAuthorities"`
}

type OrdererConfig struct {
	URL string `json:"url"`
}

type PeerConfig struct {
	URL      string `json:"url"`
	EventURL string `json:"eventUrl"`
}

type CAConfig struct {
	URL    string `json:"url"`
	CAName string `json:"caName"`
}

type ConnectionProfile struct {
	Name                   string                        `json:"name"`
	Version                string                        `json:"version"`
	Client                 Client                        `json:"client"`
	Channels               map[string]ChannelConfig      `json:"channels"`
	Organizations          map[string]OrganizationConfig `json:"organizations"`
	Orderers               map[string]OrdererConfig      `json:"orderers"`
	Peers                  map[string]PeerConfig         `json:"peers"`
	CertificateAuthorities map[string]CAConfig           `json:"certificateAuthorities"`
}

// Endpoints are the client facing addresses of the network, as host:port.
type Endpoints struct {
	PeerRequest  string
	PeerEventHub string
	Orderer      string
	CA           string
}

// NewConnectionProfile describes the single org, single channel network
// reachable at the given endpoints.
func NewConnectionProfile(endpoints Endpoints) *ConnectionProfile {
	client := Client{Organization: Organization}
	client.Connection.Timeout = Timeout{
		Peer: PeerTimeout{
			Endorser: defaultTimeout,
			EventHub: defaultTimeout,
			EventReg: defaultTimeout,
		},
		Orderer: defaultTimeout,
	}

	return &ConnectionProfile{
		Name:    NetworkName,
		Version: ProfileVersion,
		Client:  client,
		Channels: map[string]ChannelConfig{
			Channel: {
				Orderers: []string{OrdererName},
				Peers:    map[string]struct{}{PeerName: {}},
			},
		},
		Organizations: map[string]OrganizationConfig{
			Organization: {
				MSPID:                  OrgMSPID,
				Peers:                  []string{PeerName},
				CertificateAuthorities: []string{CAName},
			},
		},
		Orderers: map[string]OrdererConfig{
			OrdererName: {URL: "grpc://" + endpoints.Orderer},
		},
		Peers: map[string]PeerConfig{
			PeerName: {
				URL:      "grpc://" + endpoints.PeerRequest,
				EventURL: "grpc://" + endpoints.PeerEventHub,
			},
		},
		CertificateAuthorities: map[string]CAConfig{
			CAName: {
				URL:    "http://" + endpoints.CA,
				CAName: CAServerName,
			},
		},
	}
}

// Render serializes the profile, applies the optional RFC 6902 patch and
// checks the result against the profile schema.
func Render(profile *ConnectionProfile, patchJSON string) ([]byte, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}
	if patchJSON != "" {
		raw, err = ApplyPatch(raw, []byte(patchJSON))
		if err != nil {
			return nil, err
		}
	}
	if err := Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid connection profile: %w", err)
	}
	return raw, nil
}
