package controller

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"sdnview/internal/domain"
)

// encoding selects how string-typed numbers of a response are read. The
// topology API renders datapath and port numbers as zero-padded hex; the
// application endpoints use decimal.
type encoding int

const (
	decimal encoding = iota
	hexadecimal
)

// dpidHexWidth is the width of the topology API's zero-padded hex DPIDs
const dpidHexWidth = 16

// parseDPID normalises a datapath identifier to canonical decimal. A
// 16-digit hex string is always the topology API form, whatever enc says.
// Values that are not numbers in the expected encoding are kept verbatim.
func parseDPID(r gjson.Result, enc encoding) string {
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.Number:
		if n, err := strconv.ParseUint(r.Raw, 10, 64); err == nil {
			return strconv.FormatUint(n, 10)
		}
		return r.Raw
	}

	s := strings.TrimSpace(r.String())
	if s == "" || strings.EqualFold(s, "none") {
		return ""
	}
	if isPaddedHex(s) {
		enc = hexadecimal
	}
	if n, ok := parseUint(s, enc); ok {
		return strconv.FormatUint(n, 10)
	}
	return s
}

// parsePort reads a port number; ok is false when the value is absent or
// not a number
func parsePort(r gjson.Result, enc encoding) (int, bool) {
	switch r.Type {
	case gjson.Null:
		return 0, false
	case gjson.Number:
		return int(r.Int()), true
	}
	n, ok := parseUint(strings.TrimSpace(r.String()), enc)
	if !ok || n > 1<<31 {
		return 0, false
	}
	return int(n), true
}

func isPaddedHex(s string) bool {
	if len(s) != dpidHexWidth {
		return false
	}
	for _, c := range strings.ToLower(s) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func parseUint(s string, enc encoding) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	if rest, found := strings.CutPrefix(strings.ToLower(s), "0x"); found {
		n, err := strconv.ParseUint(rest, 16, 64)
		return n, err == nil
	}
	base := 10
	if enc == hexadecimal {
		base = 16
	}
	n, err := strconv.ParseUint(s, base, 64)
	return n, err == nil
}

func requireArray(r gjson.Result, what string) error {
	if !r.IsArray() {
		return fmt.Errorf("%s: expected JSON array", what)
	}
	return nil
}

func parseSwitches(r gjson.Result) ([]domain.Datapath, error) {
	if err := requireArray(r, "switches"); err != nil {
		return nil, err
	}

	var out []domain.Datapath
	r.ForEach(func(_, sw gjson.Result) bool {
		id := parseDPID(sw.Get("dpid"), hexadecimal)
		if id == "" {
			return true
		}
		dp := domain.Datapath{ID: id}
		sw.Get("ports").ForEach(func(_, p gjson.Result) bool {
			idx, ok := parsePort(p.Get("port_no"), hexadecimal)
			if !ok {
				return true
			}
			dp.Ports = append(dp.Ports, domain.Port{
				DatapathID: id,
				Index:      idx,
				Name:       p.Get("name").String(),
				HWAddr:     strings.ToLower(p.Get("hw_addr").String()),
			})
			return true
		})
		out = append(out, dp)
		return true
	})
	return out, nil
}

func parseRouterConfig(r gjson.Result) ([]string, error) {
	if err := requireArray(r, "router config"); err != nil {
		return nil, err
	}

	var out []string
	r.ForEach(func(_, entry gjson.Result) bool {
		v := entry
		if entry.IsObject() {
			v = entry.Get("dpid")
		}
		if id := parseDPID(v, decimal); id != "" {
			out = append(out, id)
		}
		return true
	})
	return out, nil
}

func parsePortRef(r gjson.Result) (domain.PortRef, bool) {
	id := parseDPID(r.Get("dpid"), hexadecimal)
	port, ok := parsePort(r.Get("port_no"), hexadecimal)
	if id == "" || !ok {
		return domain.PortRef{}, false
	}
	return domain.PortRef{DatapathID: id, Port: port}, true
}

func parseLinks(r gjson.Result) ([]domain.PhysicalLink, error) {
	if err := requireArray(r, "links"); err != nil {
		return nil, err
	}

	var out []domain.PhysicalLink
	r.ForEach(func(_, l gjson.Result) bool {
		src, okSrc := parsePortRef(l.Get("src"))
		dst, okDst := parsePortRef(l.Get("dst"))
		if okSrc && okDst {
			out = append(out, domain.PhysicalLink{Src: src, Dst: dst})
		}
		return true
	})
	return out, nil
}

func parseHosts(r gjson.Result) ([]domain.HostRecord, error) {
	if err := requireArray(r, "hosts"); err != nil {
		return nil, err
	}

	var out []domain.HostRecord
	r.ForEach(func(_, h gjson.Result) bool {
		rec := domain.HostRecord{
			MAC:    strings.ToLower(h.Get("mac").String()),
			IP:     firstUsableIPv4(h.Get("ipv4").Array()),
			Source: domain.HostSourceDiscovery,
		}
		if ref, ok := parsePortRef(h.Get("port")); ok {
			rec.Attachment = &ref
		}
		out = append(out, rec)
		return true
	})
	return out, nil
}

func firstUsableIPv4(addrs []gjson.Result) string {
	for _, a := range addrs {
		ip, err := netip.ParseAddr(strings.TrimSpace(a.String()))
		if err != nil || !ip.Is4() || ip.IsUnspecified() {
			continue
		}
		return ip.String()
	}
	return ""
}

func parseHostMap(r gjson.Result) ([]domain.Registration, error) {
	if err := requireArray(r, "host map"); err != nil {
		return nil, err
	}

	var out []domain.Registration
	r.ForEach(func(_, e gjson.Result) bool {
		ip := strings.TrimSpace(e.Get("ip").String())
		if ip == "" {
			return true
		}
		port, _ := parsePort(e.Get("port"), decimal)
		out = append(out, domain.Registration{
			IP:         ip,
			Hostname:   e.Get("hostname").String(),
			DatapathID: parseDPID(e.Get("dpid"), decimal),
			Port:       port,
		})
		return true
	})
	return out, nil
}

func parsePairs(r gjson.Result) ([]domain.Pair, error) {
	list := r
	if r.IsObject() {
		list = r.Get("pairs")
	}
	if !list.Exists() {
		return nil, nil
	}
	if err := requireArray(list, "pairs"); err != nil {
		return nil, err
	}

	var out []domain.Pair
	list.ForEach(func(_, p gjson.Result) bool {
		var src, dst string
		if p.IsArray() {
			// tuple form ["src", "dst"]
			src, dst = p.Get("0").String(), p.Get("1").String()
		} else {
			src, dst = p.Get("src").String(), p.Get("dst").String()
		}
		src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
		if src != "" && dst != "" {
			out = append(out, domain.Pair{Src: src, Dst: dst})
		}
		return true
	})
	return out, nil
}

// HostRecords converts host map registrations into secondary host records.
// A registration carries an attachment only when both datapath and port are
// known.
func HostRecords(regs []domain.Registration) []domain.HostRecord {
	out := make([]domain.HostRecord, 0, len(regs))
	for _, reg := range regs {
		rec := domain.HostRecord{
			Name:   reg.Hostname,
			IP:     reg.IP,
			Source: domain.HostSourceHostMap,
		}
		if reg.DatapathID != "" && reg.Port > 0 {
			rec.Attachment = &domain.PortRef{DatapathID: reg.DatapathID, Port: reg.Port}
		}
		out = append(out, rec)
	}
	return out
}
