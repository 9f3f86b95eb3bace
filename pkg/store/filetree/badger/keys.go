package badger

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the entity types
// into namespaces. Every entity is stored once under its generated ID; the
// uniqueness constraints live in separate index namespaces.
//
// Data Type            Prefix   Key Format                        Value
// ==========================================================================
// Scopes               "s:"     s:<scopeID>                       Scope (JSON)
// Objects              "o:"     o:<objectID>                      Object (JSON)
// Path Index           "p:"     p:<scopeID>\x00<path>             objectID
// Versions             "v:"     v:<versionID>                     FileVersion (JSON)
// GUID Files           "g:"     g:<guidID>                        GuidFile (JSON)
// GUID Path Index      "gp:"    gp:<nodeID>\x00<path>             guidID
//
// Path Index (p:)
//   - Enforces at most one object per (scope, path)
//   - Scope-wide listings are range scans over "p:<scopeID>\x00"
//   - The root path is the empty string, so the root key ends at the separator
//
// The NUL separator cannot appear in scope IDs (UUIDs) nor in node IDs
// accepted by the service, which keeps the index keys unambiguous.

const (
	prefixScope    = "s:"
	prefixObject   = "o:"
	prefixPath     = "p:"
	prefixVersion  = "v:"
	prefixGuid     = "g:"
	prefixGuidPath = "gp:"
	indexSeparator = "\x00"
)

func keyScope(id string) []byte {
	return []byte(prefixScope + id)
}

func keyObject(id string) []byte {
	return []byte(prefixObject + id)
}

func keyPath(scopeID, path string) []byte {
	return []byte(prefixPath + scopeID + indexSeparator + path)
}

// keyPathScopePrefix is the range prefix of all path index entries of a scope.
func keyPathScopePrefix(scopeID string) []byte {
	return []byte(prefixPath + scopeID + indexSeparator)
}

func keyVersion(id string) []byte {
	return []byte(prefixVersion + id)
}

func keyGuid(id string) []byte {
	return []byte(prefixGuid + id)
}

func keyGuidPath(nodeID, path string) []byte {
	return []byte(prefixGuidPath + nodeID + indexSeparator + path)
}
