package reader

import (
	"encoding/binary"
	"io"

	"github.com/viant/ccprof/profile"
)

func readString(r io.Reader, phase string) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", truncated(phase, err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", truncated(phase, err)
		}
	}
	return string(buf), nil
}

func readU32(r io.Reader, phase string) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(phase, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader, phase string) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(phase, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// readMetadata parses the profile-metadata section: target-name,
// num-metrics, then per metric a name/flags/period triple (spec.md §6).
func readMetadata(r io.Reader) (targetName string, metrics []profile.MetricDescriptor, err error) {
	targetName, err = readString(r, "metadata.target-name")
	if err != nil {
		return "", nil, err
	}
	numMetrics, err := readU32(r, "metadata.num-metrics")
	if err != nil {
		return "", nil, err
	}
	metrics = make([]profile.MetricDescriptor, 0, numMetrics)
	for i := uint32(0); i < numMetrics; i++ {
		name, err := readString(r, "metadata.metric.name")
		if err != nil {
			return "", nil, err
		}
		flags, err := readU64(r, "metadata.metric.flags")
		if err != nil {
			return "", nil, err
		}
		period, err := readU64(r, "metadata.metric.period")
		if err != nil {
			return "", nil, err
		}
		metrics = append(metrics, profile.MetricDescriptor{
			Name:      name,
			Period:    period,
			IsDerived: flags&1 != 0,
		})
	}
	return targetName, metrics, nil
}
