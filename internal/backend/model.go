package backend

// ModelLocator is an optional interface for backends that can locate
// the actual model file inside a downloaded repository directory.
type ModelLocator interface {
	ResolveModelPath(basePath string) (string, error)
}
