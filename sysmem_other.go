//go:build !linux

package gudaprim

// systemMemory returns total system memory in bytes
func systemMemory() uint64 {
	return defaultSystemMemory
}
