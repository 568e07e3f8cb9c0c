package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Formatter formats results for output.
type Formatter interface {
	FormatList(w io.Writer, result *ListResult) error
	FormatGet(w io.Writer, result *GetResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatList formats a directory listing as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Entries) == 0 {
		_, _ = fmt.Fprintf(w, "%s is empty\n", result.Path)
		return nil
	}

	maxNameLen := 4 // "NAME"
	for i := range result.Entries {
		if n := len(displayName(result.Entries[i])); n > maxNameLen {
			maxNameLen = n
		}
	}
	if maxNameLen > 60 {
		maxNameLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxNameLen, "NAME", "SIZE", "MODIFIED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	dirs := 0
	for i := range result.Entries {
		e := &result.Entries[i]
		name := displayName(*e)
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		size := formatSize(e.Size)
		if e.IsDir {
			size = "-"
			dirs++
		}

		_, _ = fmt.Fprintf(w, "%-*s  %10s  %s\n", maxNameLen, name, size, e.ModTime.Local().Format("2006-01-02 15:04:05"))
	}

	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "\n%d dir(s), %d file(s) (%s total)\n",
			dirs, len(result.Entries)-dirs, formatSize(result.TotalSize()))
	}

	return nil
}

// FormatGet formats an archive download as human-readable text.
func (f *HumanFormatter) FormatGet(w io.Writer, result *GetResult) error {
	if f.Quiet {
		return nil
	}

	switch {
	case result.ExtractTo != "":
		_, _ = fmt.Fprintf(w, "Extracted: %s -> %s (%d files, %s)\n",
			result.RemotePath, result.ExtractTo, result.Files, formatSize(result.Size))
	case result.LocalPath == "-":
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.RemotePath, formatSize(result.Size))
	default:
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.RemotePath, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	maxNameLen := 4 // "NAME"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %s\n", maxNameLen, "NAME", "SERVER")
	_, _ = fmt.Fprintf(w, "  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 30))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %s\n", marker, maxNameLen, name, p.Server)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	_, _ = fmt.Fprintf(w, "Name:   %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Server: %s\n", profile.Server)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatList formats a directory listing as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatGet formats an archive download as JSON.
func (f *JSONFormatter) FormatGet(w io.Writer, result *GetResult) error {
	return writeJSON(w, result)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	type jsonProfile struct {
		Name    string `json:"name"`
		Server  string `json:"server"`
		Default bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = jsonProfile{
			Name:    profiles[i].Name,
			Server:  profiles[i].Server,
			Default: profiles[i].Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	output := struct {
		Name    string `json:"name"`
		Server  string `json:"server"`
		Default bool   `json:"default"`
	}{
		Name:    profile.Name,
		Server:  profile.Server,
		Default: isDefault,
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayName(e EntryInfo) string {
	if e.IsDir {
		return e.Name + "/"
	}
	return e.Name
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	if bytes < 0 {
		return "?"
	}
	return humanize.Bytes(uint64(bytes))
}

// ProgressPrinter renders a single updating progress line for a download.
// Updates are throttled to Interval; Done prints the final state.
type ProgressPrinter struct {
	W        io.Writer
	Label    string
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
	done int64
	tot  int64
}

// NewProgressPrinter returns a printer that writes to w.
func NewProgressPrinter(w io.Writer, label string) *ProgressPrinter {
	return &ProgressPrinter{W: w, Label: label, Interval: 100 * time.Millisecond}
}

// Update records progress and redraws the line when due. It matches ProgressFunc.
func (p *ProgressPrinter) Update(done, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done, p.tot = done, total
	now := time.Now()
	if now.Sub(p.last) < p.Interval && done != total {
		return
	}
	p.last = now
	p.draw()
}

// Done redraws the final state and ends the line.
func (p *ProgressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.draw()
	_, _ = fmt.Fprintln(p.W)
}

func (p *ProgressPrinter) draw() {
	if p.tot > 0 {
		pct := float64(p.done) / float64(p.tot) * 100
		_, _ = fmt.Fprintf(p.W, "\r%s: %s / %s (%.0f%%)", p.Label, formatSize(p.done), formatSize(p.tot), pct)
		return
	}
	_, _ = fmt.Fprintf(p.W, "\r%s: %s", p.Label, formatSize(p.done))
}
