// Package codec packs an answer option and a term into the short token carried by
// inline keyboard buttons, and unpacks it again when the button is pressed.
//
// A token is the option tag, a separator, and the term: "1:osmosis". The transport
// rejects payloads longer than MaxPayloadBytes, so Encode refuses anything that would
// not fit instead of truncating it.
package codec
