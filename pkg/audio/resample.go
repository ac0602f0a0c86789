package audio

import (
	"errors"
	"fmt"
)

// Resample converts mono int16 PCM from srcRate to dstRate using linear
// interpolation. Any ratio is accepted; equal rates return a copy.
func Resample(src []int16, srcRate, dstRate int) ([]int16, error) {
	if len(src) == 0 {
		return nil, errors.New("pcm empty")
	}
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("unsupported ratio %d:%d", srcRate, dstRate)
	}
	if srcRate == dstRate {
		out := make([]int16, len(src))
		copy(out, src)
		return out, nil
	}

	n := int(int64(len(src)) * int64(dstRate) / int64(srcRate))
	if n == 0 {
		n = 1
	}
	dst := make([]int16, n)
	step := float64(srcRate) / float64(dstRate)
	last := len(src) - 1
	for i := range dst {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			dst[i] = src[last]
			continue
		}
		frac := pos - float64(j)
		v := float64(src[j])*(1-frac) + float64(src[j+1])*frac
		dst[i] = saturateInt16(int32(v))
	}
	return dst, nil
}

// saturateInt16 clamps v to the valid int16 range.
func saturateInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
