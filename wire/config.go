package wire

// Config controls optional decoder behaviors. The zero value matches
// standard proto3 semantics.
type Config struct {
	// StrictWireType: when true, a known field that arrives with a wire type
	// other than the one its kind encodes to fails with ErrWireTypeMismatch.
	// When false (default), such records are skipped like unknown fields.
	StrictWireType bool

	// PreserveUnknown: when true, skipped records are kept verbatim under
	// value.UnknownFieldsKey and re-emitted by the encoder after the known
	// fields. Default false discards them.
	PreserveUnknown bool
}
