package trace

type constError string

// ErrMalformedTrace is returned by [Reader.Next] for a line it cannot parse.
const ErrMalformedTrace = constError("malformed trace")

func (errStr constError) Error() string { return string(errStr) }
