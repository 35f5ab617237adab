package topology

import (
	"sdnview/internal/domain"
)

// dp builds a datapath from index/name pairs given as alternating values
func dp(id string, ports ...any) domain.Datapath {
	d := domain.Datapath{ID: id}
	for i := 0; i+1 < len(ports); i += 2 {
		d.Ports = append(d.Ports, domain.Port{
			DatapathID: id,
			Index:      ports[i].(int),
			Name:       ports[i+1].(string),
		})
	}
	return d
}

func ref(dpid string, port int) *domain.PortRef {
	return &domain.PortRef{DatapathID: dpid, Port: port}
}

func newTestClassifier(datapaths []domain.Datapath, configured ...string) (*PortIndex, *Classifier) {
	index := NewPortIndex(datapaths)
	routers := ClassifyRouters(datapaths, configured, nil)
	return index, NewClassifier(index, routers)
}
