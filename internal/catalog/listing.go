package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnbalancedQuotes marks a listing line whose quoted field never closes.
var ErrUnbalancedQuotes = errors.New("unbalanced quotes")

// SplitCSVLine splits one line of CSV on commas outside double quotes.
// Inside quotes a doubled quote ("") yields a literal quote. Fields are trimmed.
func SplitCSVLine(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuote && i+1 < len(line) && line[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if inQuote {
		return nil, ErrUnbalancedQuotes
	}
	return append(fields, strings.TrimSpace(cur.String())), nil
}

// ParseListing turns `kaggle datasets list --csv` output into entries.
// Lines before the header (CLI warnings) are skipped. Output without a
// header line is malformed unless the CLI reported no results.
func ParseListing(out []byte, now time.Time) ([]Entry, error) {
	text := strings.TrimSpace(strings.ReplaceAll(string(out), "\r\n", "\n"))
	if text == "" || strings.HasPrefix(text, "No datasets found") {
		return []Entry{}, nil
	}
	lines := strings.Split(text, "\n")
	hdr := -1
	var header []string
	for i, l := range lines {
		fields, err := SplitCSVLine(l)
		if err == nil && len(fields) > 1 && fields[0] == "ref" {
			hdr, header = i, fields
			break
		}
	}
	if hdr < 0 {
		return nil, fmt.Errorf("no header line in %d lines of output", len(lines))
	}
	entries := make([]Entry, 0, len(lines)-hdr-1)
	// A quoted field may span lines; keep joining until the quotes balance.
	var pending string
	start := 0
	for n, l := range lines[hdr+1:] {
		if pending == "" {
			if strings.TrimSpace(l) == "" {
				continue
			}
			pending, start = l, hdr+n+2
		} else {
			pending += "\n" + l
		}
		vals, err := SplitCSVLine(pending)
		if errors.Is(err, ErrUnbalancedQuotes) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", start, err)
		}
		pending = ""
		rec := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(vals) {
				rec[h] = vals[i]
			}
		}
		entries = append(entries, entryFromRecord(rec, now))
	}
	if pending != "" {
		return nil, fmt.Errorf("line %d: %w", start, ErrUnbalancedQuotes)
	}
	return entries, nil
}

func entryFromRecord(rec map[string]string, now time.Time) Entry {
	e := Entry{
		Ref:         rec["ref"],
		Title:       firstNonEmpty(rec["title"], "Untitled Dataset"),
		Subtitle:    rec["subtitle"],
		Description: firstNonEmpty(rec["description"], rec["title"], "No description"),
		Size:        firstNonEmpty(rec["size"], humanBytes(rec["totalBytes"]), "Unknown"),
		Tags:        strings.Fields(rec["tags"]),
		LastUpdated: now,
	}
	e.DownloadCount, _ = strconv.Atoi(rec["downloadCount"])
	e.VoteCount, _ = strconv.Atoi(rec["voteCount"])
	e.UsabilityRating, _ = strconv.ParseFloat(rec["usabilityRating"], 64)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, rec["lastUpdated"]); err == nil {
			e.LastUpdated = t
			break
		}
	}
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func humanBytes(s string) string {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n <= 0 {
		return ""
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for n >= 1024 && i < len(units)-1 {
		n /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f B", n)
	}
	return fmt.Sprintf("%.1f %s", n, units[i])
}
