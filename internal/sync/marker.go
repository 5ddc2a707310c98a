package sync

import (
	"strings"
	"time"

	"github.com/nidohq/nido-sync/pkg/calendarclient"
)

// Loop prevention: outbound writes are tagged so that when the provider
// echoes them back through a webhook, the reconciler recognizes them as
// self-originated and leaves local state alone.
const (
	markerSourceKey = "nidoSyncSource"
	markerTimeKey   = "nidoSyncAt"
	markerSource    = "nido-sync"

	// Fallback for providers that strip private extended properties. Can
	// false-positive on user-authored text containing the same phrase; the
	// extended property is always checked first.
	markerSuffix = "\n\n[synced by nido]"
)

func tagOutbound(ev *calendarclient.Event) {
	if ev.ExtendedPrivate == nil {
		ev.ExtendedPrivate = map[string]string{}
	}
	ev.ExtendedPrivate[markerSourceKey] = markerSource
	ev.ExtendedPrivate[markerTimeKey] = time.Now().UTC().Format(time.RFC3339)

	if !strings.Contains(ev.Description, markerSuffix) {
		ev.Description += markerSuffix
	}
}

func isSelfOriginated(ev calendarclient.Event) bool {
	if ev.ExtendedPrivate[markerSourceKey] == markerSource {
		return true
	}
	return strings.Contains(ev.Description, markerSuffix)
}

func stripMarker(description string) string {
	return strings.ReplaceAll(description, markerSuffix, "")
}
