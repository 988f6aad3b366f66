package master

// Inbound message prefixes (spec §6). The four leading 0xFF bytes every
// datagram carries on the wire are stripped by the listener before
// Dispatch ever sees the payload (spec §6, §4.7).
const (
	prefixHeartbeat        = "heartbeat "
	prefixInfoResponse     = "infoResponse\n"
	prefixGetServersExt    = "getserversExt "
	prefixGetServers       = "getservers "
	shutdownSentinelGameID = "TikiServer-Flatline"
)

// Outbound literals (spec §4.4, §4.6).
const (
	outPrefix                = "\xff\xff\xff\xff"
	getInfoCommand           = "getinfo "
	getServersResponseHeader = "getserversResponse\x00"
	getServersExtResponseHdr = "getserversExtResponse"
)

// terminator is the end-of-transmission record that ends every
// getservers/getserversExt response stream (spec §4.6, GLOSSARY "EOT").
var terminator = []byte("\\EOT\x00\x00\x00")

// maxPacketSize is the hard ceiling on any single response packet
// (spec §4.6).
const maxPacketSize = 1400

// maxGameIDLen bounds the heartbeat gameId token (spec §4.4 step 1,
// §6).
const maxGameIDLen = 63
