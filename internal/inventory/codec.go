package inventory

import "github.com/bytedance/sonic"

var codec = sonic.ConfigStd

func marshalJSON(v any) ([]byte, error) {
	return codec.Marshal(v)
}

func unmarshalJSON(b []byte, v any) error {
	return codec.Unmarshal(b, v)
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return marshalJSON(s)
}

func DecodeSnapshot(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := unmarshalJSON(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
