// Package api is the HTTP gateway to the remote auth module.
//
// Every operation issues exactly one POST with a JSON body and decodes the
// uniform [Envelope]. Server-side rejections arrive as envelopes with
// Success == false and are returned without error; only transport,
// non-envelope HTTP failures ([HTTPError]) and decode failures ([ErrDecode])
// are returned as errors. The client never retries, and its timeout is fixed
// at construction.
package api
