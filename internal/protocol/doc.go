// Package protocol owns the wire contract and its error taxonomy.
//
// Ownership boundary:
// - value model (protocol/value)
// - tagged value codec (protocol/tlv)
// - request/response envelopes (protocol/envelope)
// - schema language and validation (protocol/schema)
//
// No package under protocol can resolve or call anything named by a payload.
// The tag set is closed: there is no tag for references, functions, or types.
package protocol
