// Package protocol owns the BLDS wire contract above the frame layer.
//
// Ownership boundary:
// - outbound command payload construction
// - inbound reply tag/success parsing
// - routing payloads to the params and data codecs
package protocol
