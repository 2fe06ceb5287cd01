package schema

// Kind identifies the shape of a schema node.
type Kind uint8

const (
	KindScalar Kind = iota
	KindMapping
	KindSequence
	KindSequenceFixed
)

var kindNames = [...]string{
	KindScalar:        "scalar",
	KindMapping:       "mapping",
	KindSequence:      "sequence",
	KindSequenceFixed: "sequence-fixed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}
