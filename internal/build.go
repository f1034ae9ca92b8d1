// Package internal holds what every part of the application needs to know
// about the binary it runs in.
package internal

import (
	"log/slog"
	"runtime/debug"
	"strings"
	"time"
)

// Version can be set at link time:
//
//	go build -ldflags "-X github.com/ferrianes/foodmarket-backend/internal.Version=v1.2.0"
var Version = "dev"

// BuildInfo describes the VCS state the binary was built from.
type BuildInfo struct {
	Revision string
	Time     time.Time
	Modified bool
}

// Build is read once from the binary at startup.
var Build = readBuildInfo(debug.ReadBuildInfo)

func readBuildInfo(read func() (*debug.BuildInfo, bool)) BuildInfo {
	b := BuildInfo{Revision: "unknown"}

	info, ok := read()
	if !ok {
		return b
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Revision = setting.Value
		case "vcs.time":
			// an unparsable time is left at zero.
			b.Time, _ = time.Parse(time.RFC3339, setting.Value)
		case "vcs.modified":
			b.Modified = setting.Value == "true"
		}
	}

	return b
}

// String returns the version followed by a short revision, "+dirty" is
// appended for builds with local modifications. For example: v1.2.0-3f9a1c2+dirty.
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString(Version)

	if b.Revision != "unknown" && b.Revision != "" {
		sb.WriteString("-")
		sb.WriteString(shortRevision(b.Revision))
	}

	if b.Modified {
		sb.WriteString("+dirty")
	}

	return sb.String()
}

// LogValue implements slog.LogValuer.
func (b BuildInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("version", Version),
		slog.String("revision", b.Revision),
		slog.Time("time", b.Time),
		slog.Bool("modified", b.Modified),
	)
}

func shortRevision(r string) string {
	if len(r) > 7 {
		return r[:7]
	}
	return r
}
