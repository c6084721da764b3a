// Package discovery registers the server with consul and lets clients
// find it again.
package discovery

import (
	"fmt"
	"net"
	"strconv"

	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/metorial/script-admin/internal/logging"
)

const (
	ServiceName     = "script-admin"
	GRPCServiceName = "script-admin-grpc"
)

type Registry struct {
	client *consul.Client
	log    *zap.SugaredLogger
	ids    []string
}

func NewRegistry(consulAddr string, log *zap.SugaredLogger) (*Registry, error) {
	config := consul.DefaultConfig()
	config.Address = consulAddr

	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	if log == nil {
		log = logging.Nop()
	}

	return &Registry{client: client, log: log}, nil
}

// Register announces the HTTP service and, when grpcPort is set, the gRPC
// health endpoint. address falls back to the first non-loopback IPv4 address.
func (r *Registry) Register(address, httpPort, grpcPort string) error {
	if address == "" {
		address = LocalIP()
	}

	port, err := strconv.Atoi(httpPort)
	if err != nil {
		return fmt.Errorf("parse http port: %w", err)
	}

	httpRegistration := &consul.AgentServiceRegistration{
		ID:      ServiceName,
		Name:    ServiceName,
		Port:    port,
		Address: address,
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%s/api/v1/health", address, httpPort),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
		Tags: []string{"scripts", "http", "api"},
	}

	if err := r.client.Agent().ServiceRegister(httpRegistration); err != nil {
		return fmt.Errorf("register http service: %w", err)
	}
	r.ids = append(r.ids, httpRegistration.ID)

	if grpcPort == "" {
		return nil
	}

	gport, err := strconv.Atoi(grpcPort)
	if err != nil {
		return fmt.Errorf("parse grpc port: %w", err)
	}

	grpcRegistration := &consul.AgentServiceRegistration{
		ID:      GRPCServiceName,
		Name:    GRPCServiceName,
		Port:    gport,
		Address: address,
		Check: &consul.AgentServiceCheck{
			GRPC:                           fmt.Sprintf("%s:%s", address, grpcPort),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
		Tags: []string{"scripts", "grpc", "health"},
	}

	if err := r.client.Agent().ServiceRegister(grpcRegistration); err != nil {
		return fmt.Errorf("register grpc service: %w", err)
	}
	r.ids = append(r.ids, grpcRegistration.ID)

	return nil
}

// Deregister removes every service registered by this registry.
func (r *Registry) Deregister() {
	for _, id := range r.ids {
		if err := r.client.Agent().ServiceDeregister(id); err != nil {
			r.log.Errorw("failed to deregister service", "service_id", id, "error", err)
			continue
		}
		r.log.Infow("deregistered service", "service_id", id)
	}
	r.ids = nil
}

// Discover returns the host:port of the first healthy instance of name.
func Discover(consulAddr, name string) (string, error) {
	config := consul.DefaultConfig()
	config.Address = consulAddr

	client, err := consul.NewClient(config)
	if err != nil {
		return "", fmt.Errorf("create consul client: %w", err)
	}

	services, _, err := client.Health().Service(name, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("query consul: %w", err)
	}

	if len(services) == 0 {
		return "", fmt.Errorf("no healthy %s services found", name)
	}

	service := services[0]
	addr := service.Service.Address
	if addr == "" {
		addr = service.Node.Address
	}

	return net.JoinHostPort(addr, strconv.Itoa(service.Service.Port)), nil
}

func LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}

	return "127.0.0.1"
}
