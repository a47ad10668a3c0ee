package usage

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// LoadDomainMap loads the IP to domain table from the most recent
// domains_*.csv dated at or before asOf, falling back to the newest
// available one. Missing or unparseable files degrade to an empty map.
func (r *Reader) LoadDomainMap(asOf string) map[string]string {
	dates := r.domainDates()
	if len(dates) == 0 {
		return map[string]string{}
	}

	pick := ""
	for _, d := range dates {
		if d <= asOf {
			pick = d
		}
	}
	if pick == "" {
		pick = dates[len(dates)-1]
	}

	mapping := make(map[string]string)
	for _, row := range ReadRows(FilePath(r.Dir, KindDomains, pick)) {
		ip := strings.TrimSpace(row["ip"])
		dom := strings.TrimSpace(row["domain"])
		if ip != "" && dom != "" {
			mapping[ip] = dom
		}
	}
	return mapping
}

// domainDates lists the dates of available domains_*.csv files, ascending.
func (r *Reader) domainDates() []string {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), KindDomains+"_") {
			continue
		}
		if m := dateInName.FindStringSubmatch(e.Name()); m != nil {
			dates = append(dates, m[1])
		}
	}
	sort.Strings(dates)
	return dates
}

// LooksLikeIP reports whether s is a dotted-quad IPv4 address: exactly four
// dot-separated parts, each an integer in [0, 255].
func LooksLikeIP(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// ResolveDst translates an IP-shaped destination through the domain map.
// Hostnames pass through untouched; an empty destination renders as "-".
func ResolveDst(dst string, mapping map[string]string) string {
	dst = strings.TrimSpace(dst)
	if dst == "" {
		return "-"
	}
	if !LooksLikeIP(dst) {
		return dst
	}
	if dom, ok := mapping[dst]; ok {
		return dom
	}
	return dst
}
