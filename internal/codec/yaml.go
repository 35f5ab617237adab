package codec

import (
	"fmt"
	"io"

	"sdnview/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec exports a flat node/edge listing as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of the output
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

type yamlTopology struct {
	Routers  []yamlDatapath `yaml:"routers"`
	Switches []yamlDatapath `yaml:"switches"`
	Hosts    []yamlHost     `yaml:"hosts"`
	Links    []yamlLink     `yaml:"links"`
}

type yamlDatapath struct {
	DPID  string `yaml:"dpid"`
	Label string `yaml:"label"`
	Ports int    `yaml:"ports"`
}

type yamlHost struct {
	Name       string `yaml:"name"`
	IP         string `yaml:"ip,omitempty"`
	MAC        string `yaml:"mac,omitempty"`
	Attachment string `yaml:"attachment"`
	Reachable  *bool  `yaml:"reachable,omitempty"`
}

type yamlLink struct {
	Kind string `yaml:"kind"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Export writes the snapshot grouped by role
func (c *YAMLCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	yt := yamlTopology{
		Routers:  []yamlDatapath{},
		Switches: []yamlDatapath{},
		Hosts:    make([]yamlHost, 0, len(snap.Hosts)),
		Links:    make([]yamlLink, 0, len(snap.Links)),
	}

	for _, dp := range snap.Datapaths {
		yd := yamlDatapath{DPID: dp.ID, Label: snap.DisplayLabel(dp.ID), Ports: len(dp.Ports)}
		if snap.IsRouter(dp.ID) {
			yt.Routers = append(yt.Routers, yd)
		} else {
			yt.Switches = append(yt.Switches, yd)
		}
	}

	for _, h := range snap.Hosts {
		yt.Hosts = append(yt.Hosts, yamlHost{
			Name:       h.Name,
			IP:         h.IP,
			MAC:        h.MAC,
			Attachment: h.Attachment.String(),
			Reachable:  h.Reachable,
		})
	}

	for _, l := range snap.Links {
		yt.Links = append(yt.Links, yamlLink{
			Kind: string(l.Kind),
			From: endpointName(snap, l.From, l.FromPort),
			To:   endpointName(snap, l.To, l.ToPort),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yt); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

func endpointName(snap *domain.Snapshot, e domain.Endpoint, port int) string {
	name := e.ID
	if e.Kind == domain.EndpointHost {
		if h, ok := snap.Host(e.ID); ok {
			name = h.Name
		}
	} else {
		name = snap.DisplayLabel(e.ID)
	}
	if port == domain.PortNotApplicable {
		return name
	}
	return fmt.Sprintf("%s:%d", name, port)
}
