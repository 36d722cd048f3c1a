package memory

// Flatten turns a namespaced Entry.Custom map into the flat "namespace.key"
// map the expression evaluator's memory.<key> reads expect (§4.1).
func Flatten(e Entry) map[string]any {
	flat := make(map[string]any)
	for ns, kv := range e.Custom {
		for k, v := range kv {
			flat[ns+"."+k] = v
		}
	}
	return flat
}
