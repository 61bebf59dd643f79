package tensor

import "fmt"

// Copy duplicates src's elements into dst. Both must have the same kind and
// element count. When dst and src view the same storage nothing is copied.
func Copy(dst, src *RawTensor) error {
	if dst == nil || src == nil {
		return fmt.Errorf("copy: nil tensor")
	}
	if dst.dtype != src.dtype {
		return fmt.Errorf("copy: dtype mismatch %s vs %s", dst.dtype, src.dtype)
	}
	if dst.NumElements() != src.NumElements() {
		return fmt.Errorf("copy: size mismatch %d vs %d", dst.NumElements(), src.NumElements())
	}
	if dst.SharesBuffer(src) {
		return nil
	}

	if src.dtype == String {
		copy(dst.buffer.strs, src.buffer.strs)
		return nil
	}
	copy(dst.buffer.data[:dst.ByteSize()], src.buffer.data[:src.ByteSize()])
	return nil
}
