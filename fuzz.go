package msiecf

// Fuzz drives the header/bitmap/hash-chain/scanner pipeline over arbitrary
// bytes for github.com/dvyukov/go-fuzz -- partially corrupted index.dat
// files are the primary forensic use case this package targets, so
// surviving arbitrary mutation without panicking is the property under
// test.
func Fuzz(data []byte) int {
	f, err := OpenBytes(data, nil)
	if err != nil {
		return 0
	}
	for i := 0; i < f.NumItems(); i++ {
		_, _ = f.Item(i)
	}
	for i := 0; i < f.NumRecoveredItems(); i++ {
		_, _ = f.RecoveredItem(i)
	}
	return 1
}
