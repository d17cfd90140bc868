package store

import (
	"encoding/binary"
	"encoding/json"
)

func mustEncodeInt64(in int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(in))
	return buf
}

func mustDecodeInt64(in []byte) int64 {
	if len(in) == 0 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(in))
}

func mustMarshalJSON(in interface{}) []byte {
	out, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	return out
}

func mustUnmarshalJSON(data []byte, in interface{}) {
	if err := json.Unmarshal(data, in); err != nil {
		panic(err)
	}
}
