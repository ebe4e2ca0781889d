package docker

import "fmt"

type Role string

const (
	RolePeer                 Role = "peer"
	RoleOrderer              Role = "orderer"
	RoleCertificateAuthority Role = "certificateAuthority"
	RoleCouchDB              Role = "couchDB"
	RoleLogs                 Role = "logs"
)

// Container ports published by the network's services.
const (
	PortPeerRequest   = "7051/tcp"
	PortPeerChaincode = "7052/tcp"
	PortPeerEventHub  = "7053/tcp"
	PortOrderer       = "7050/tcp"
	PortCA            = "7054/tcp"
	PortCouchDB       = "5984/tcp"
	PortLogs          = "80/tcp"
)

// Service describes one container of the managed network.
type Service struct {
	Role         Role
	DNSName      string
	ExposedPorts []string
}

// ResourceName is the name shared by the service's container and volume.
func (s Service) ResourceName(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, s.DNSName)
}

var (
	PeerService    = Service{Role: RolePeer, DNSName: "peer0.org1.example.com", ExposedPorts: []string{PortPeerRequest, PortPeerChaincode, PortPeerEventHub}}
	OrdererService = Service{Role: RoleOrderer, DNSName: "orderer.example.com", ExposedPorts: []string{PortOrderer}}
	CAService      = Service{Role: RoleCertificateAuthority, DNSName: "ca.example.com", ExposedPorts: []string{PortCA}}
	CouchDBService = Service{Role: RoleCouchDB, DNSName: "couchdb", ExposedPorts: []string{PortCouchDB}}
	LogsService    = Service{Role: RoleLogs, DNSName: "logs", ExposedPorts: []string{PortLogs}}
)

// Services returns the five managed services in a fixed order.
func Services() []Service {
	return []Service{PeerService, OrdererService, CAService, CouchDBService, LogsService}
}
