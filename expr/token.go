package expr

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokKeyword
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  Pos
}

var keywords = map[string]bool{
	"true": true, "false": true, "null": true, "in": true,
}
