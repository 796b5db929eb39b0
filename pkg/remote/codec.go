package remote

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field kinds of the stored document. Each field is kept as a typed envelope
// so values survive JSON without guessing (int64 vs float64, []byte vs string).
const (
	kindNull    = "null"
	kindString  = "string"
	kindBool    = "bool"
	kindInt     = "int"
	kindFloat   = "float"
	kindTime    = "time"
	kindBytes   = "bytes"
	kindStrings = "strings"
	kindBlobs   = "blobs"
	kindAssets  = "assets"
)

type envelope struct {
	Kind  string          `json:"k"`
	Value json.RawMessage `json:"v,omitempty"`
}

type storedAsset struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// EncodeFields serializes record fields. Asset payloads are not encoded;
// persist them first with PersistAssets.
func EncodeFields(fields map[string]any) ([]byte, error) {
	doc := make(map[string]envelope, len(fields))
	for name, value := range fields {
		env, err := encodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		doc[name] = env
	}
	return json.Marshal(doc)
}

func encodeValue(value any) (envelope, error) {
	var kind string
	var payload any

	switch v := value.(type) {
	case nil:
		return envelope{Kind: kindNull}, nil
	case string:
		kind, payload = kindString, v
	case bool:
		kind, payload = kindBool, v
	case int:
		kind, payload = kindInt, int64(v)
	case int64:
		kind, payload = kindInt, v
	case float64:
		kind, payload = kindFloat, v
	case time.Time:
		kind, payload = kindTime, v.UTC()
	case []byte:
		kind, payload = kindBytes, v
	case []string:
		kind, payload = kindStrings, v
	case [][]byte:
		kind, payload = kindBlobs, v
	case []Asset:
		stored := make([]storedAsset, len(v))
		for i, a := range v {
			stored[i] = storedAsset{Key: a.Key, Size: a.Size}
		}
		kind, payload = kindAssets, stored
	default:
		return envelope{}, fmt.Errorf("unsupported field type %T", value)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, err
	}
	return envelope{Kind: kind, Value: raw}, nil
}

// DecodeFields is the inverse of EncodeFields. Assets come back with Key and
// Size only; see HydrateAssets.
func DecodeFields(data []byte) (map[string]any, error) {
	var doc map[string]envelope
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode record fields: %w", err)
	}

	fields := make(map[string]any, len(doc))
	for name, env := range doc {
		value, err := decodeValue(env)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields[name] = value
	}
	return fields, nil
}

func decodeValue(env envelope) (any, error) {
	switch env.Kind {
	case kindNull:
		return nil, nil
	case kindString:
		var v string
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindBool:
		var v bool
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindInt:
		var v int64
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindFloat:
		var v float64
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindTime:
		var v time.Time
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindBytes:
		var v []byte
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindStrings:
		var v []string
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindBlobs:
		var v [][]byte
		err := unmarshalInto(env.Value, &v)
		return v, err
	case kindAssets:
		var stored []storedAsset
		if err := unmarshalInto(env.Value, &stored); err != nil {
			return nil, err
		}
		assets := make([]Asset, len(stored))
		for i, s := range stored {
			assets[i] = Asset{Key: s.Key, Size: s.Size}
		}
		return assets, nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", env.Kind)
	}
}

func unmarshalInto(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
