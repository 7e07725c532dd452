package pickle

import "errors"

var (
	// errUnsupportedConstant is wrapped when a reducer yields Constant for
	// a type this codec has no scalar encoding for.
	errUnsupportedConstant = errors.New("unsupported constant")

	// errUnknownConstructor is returned when the unpickler encounters a
	// constructor id with no registered builder.
	errUnknownConstructor = errors.New("unknown constructor")

	// errNoPersistentNamespace is returned when a stream contains a
	// "__ns__" reference but the unpickler was not given one.
	errNoPersistentNamespace = errors.New("persistent namespace reference with no namespace bound")

	// errBadOpcode is returned on a corrupt or unrecognized stream tag.
	errBadOpcode = errors.New("bad opcode")
)
