//go:build !windows

package platform

func defaultEndpoint(func(Endpoint) error) error {
	return ErrUnsupported
}
