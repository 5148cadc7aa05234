package evaluator

// ContextKey names an entry of the lexical context. The values match the
// magic constants they feed.
type ContextKey string

const (
	CtxFunction  ContextKey = "__FUNCTION__"
	CtxNamespace ContextKey = "__NAMESPACE__"
	CtxClass     ContextKey = "__CLASS__"
	CtxTrait     ContextKey = "__TRAIT__"
)

// Context is the lexical context of a declaration site. Missing keys read as
// the empty string.
type Context map[ContextKey]string

// Get returns the value stored under key, or "".
func (c Context) Get(key ContextKey) string {
	return c[key]
}

// With returns a copy of c with key set to value.
func (c Context) With(key ContextKey, value string) Context {
	out := make(Context, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}
