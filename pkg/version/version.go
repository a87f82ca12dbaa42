// Package version pins the server identity and the protocol revisions it
// negotiates.
package version

const (
	ServerName = "toolgate"
	Version    = "0.2.0"

	// ProtocolVersion is offered when the client asks for a revision we do
	// not know.
	ProtocolVersion = "2025-06-18"
)

var SupportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}
