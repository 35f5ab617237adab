package topology

import (
	"log/slog"
	"slices"
	"strings"

	"sdnview/internal/domain"
)

// MergeStats counts what happened to the records of one merge
type MergeStats struct {
	Primary        int `json:"primary"`
	Secondary      int `json:"secondary"`
	Ghosts         int `json:"ghosts"`
	Duplicates     int `json:"duplicates"`
	Unresolved     int `json:"unresolved"`
	SubstringMatch int `json:"substring_match"`
	Kept           int `json:"kept"`
}

// MergeHosts unions the discovery feed (primary) with the static host map
// (secondary) into one deduplicated, ghost-free host set sorted by ID.
//
// Primary records win on address conflicts because they carry live
// attachment evidence. Secondary records without an attachment are resolved
// through the port index by their name token.
func MergeHosts(primary, secondary []domain.HostRecord, index *PortIndex, classifier *Classifier) ([]domain.Host, MergeStats) {
	stats := MergeStats{Primary: len(primary), Secondary: len(secondary)}

	nameByIP := make(map[string]string, len(secondary))
	for _, rec := range secondary {
		if rec.IP != "" && rec.Name != "" {
			nameByIP[rec.IP] = rec.Name
		}
	}

	hosts := make([]domain.Host, 0, len(primary)+len(secondary))
	ids := make(map[string]struct{})
	seenIP := make(map[string]struct{})

	for _, rec := range primary {
		if rec.Attachment == nil {
			stats.Unresolved++
			continue
		}
		if classifier.IsGhost(rec) {
			stats.Ghosts++
			slog.Debug("dropped ghost host", "mac", rec.MAC, "ip", rec.IP, "attachment", rec.Attachment.String())
			continue
		}

		name := rec.Name
		if name == "" {
			name = nameByIP[rec.IP]
		}
		if name == "" && rec.IP != "" {
			name = domain.NameFromIP(rec.IP)
		}
		if name == "" {
			name = rec.MAC
		}

		id := domain.HostID(rec.MAC, name)
		if _, dup := ids[id]; dup {
			stats.Duplicates++
			continue
		}
		ids[id] = struct{}{}
		if rec.IP != "" {
			seenIP[rec.IP] = struct{}{}
		}

		hosts = append(hosts, domain.Host{
			ID:         id,
			Name:       name,
			IP:         rec.IP,
			MAC:        strings.ToLower(rec.MAC),
			Attachment: *rec.Attachment,
			Source:     domain.HostSourceDiscovery,
		})
	}

	resolver := NewResolver(index)

	for _, rec := range secondary {
		if rec.IP == "" {
			stats.Unresolved++
			continue
		}
		if _, seen := seenIP[rec.IP]; seen {
			stats.Duplicates++
			continue
		}

		var ref domain.PortRef
		if rec.Attachment != nil {
			ref = *rec.Attachment
		} else {
			res := resolver.Resolve(rec.Name)
			if !res.Found() {
				stats.Unresolved++
				slog.Debug("unresolved host map entry", "hostname", rec.Name, "ip", rec.IP)
				continue
			}
			if res.Tier == TierSubstring {
				stats.SubstringMatch++
			}
			ref = res.Ref
		}

		if classifier.isGhostAt(ref, rec.HasIP()) {
			stats.Ghosts++
			slog.Debug("dropped ghost host map entry", "hostname", rec.Name, "ip", rec.IP, "attachment", ref.String())
			continue
		}

		name := rec.Name
		if name == "" {
			name = domain.NameFromIP(rec.IP)
		}
		id := domain.HostID("", name)
		if _, dup := ids[id]; dup {
			id = id + "@" + rec.IP
		}
		ids[id] = struct{}{}
		seenIP[rec.IP] = struct{}{}

		hosts = append(hosts, domain.Host{
			ID:         id,
			Name:       name,
			IP:         rec.IP,
			Attachment: ref,
			Source:     domain.HostSourceHostMap,
		})
	}

	slices.SortFunc(hosts, func(a, b domain.Host) int {
		return strings.Compare(a.ID, b.ID)
	})
	stats.Kept = len(hosts)

	return hosts, stats
}
