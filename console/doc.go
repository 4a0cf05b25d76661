// Package console bridges a debug monitor's character calls to a serial
// transport.
//
// The legacy calls, GetCharacter and PutCharacter, retry the transport until
// exactly one byte has moved. They never fail and cannot be interrupted. The
// bounded calls, ReadByteContext and WriteByteContext, apply a Retry policy
// and return an *ErrTransfer when the policy gives up. A Bridge also serves
// as an io.Reader and io.Writer over the bounded calls.
package console
