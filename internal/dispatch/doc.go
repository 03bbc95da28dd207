// Package dispatch turns one request envelope into one response envelope.
//
// A request moves through received, decoded, validated, invoked and encoded.
// Any failure before encoding becomes an ERROR response; only a cancelled
// caller context or an unreadable envelope produce no bytes. The handler runs
// at most once and only after its arguments passed validation.
//
// A handler that ignores its context cannot be stopped: when its timeout
// passes the request is answered and the handler goroutine is abandoned,
// still holding its native arguments until it returns. Such handlers are
// logged at warn level with the action id.
//
// The Dispatcher holds no mutable state. The sealed catalog is the only
// structure shared between concurrent requests.
package dispatch
