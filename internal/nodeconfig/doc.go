// Package nodeconfig turns a fresh home directory into a runnable sandbox
// configuration: it runs the node's init command for baseline genesis.json
// and config.json, then layers caller patches and extra genesis accounts on
// top.
//
// Patches use RFC 7396 merge-patch semantics: object keys merge recursively,
// null deletes a key, arrays are replaced wholesale. The node has far too
// many config knobs to mirror as structs, so documents are edited as plain
// JSON.
package nodeconfig
