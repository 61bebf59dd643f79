//go:build !(amd64 || arm64) || purego

package cast

func defaultHalfConverter() HalfConverter {
	return GenericHalfConverter{}
}
