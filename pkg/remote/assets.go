package remote

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"prompt-manager-core/pkg/blobstore"

	"github.com/google/uuid"
)

// LoadAsset returns the payload to upload for a, reading FilePath when set.
func LoadAsset(a Asset) ([]byte, error) {
	if a.FilePath == "" {
		return a.Data, nil
	}
	data, err := os.ReadFile(a.FilePath)
	if err != nil {
		return nil, fmt.Errorf("read asset file: %w", err)
	}
	return data, nil
}

func hasPayload(a Asset) bool {
	return a.FilePath != "" || a.Data != nil
}

// PersistAssets uploads every asset payload in fields and returns a copy of
// fields whose assets carry only Key and Size, plus the keys it wrote. Assets
// that already have a key and no payload are kept as references.
func PersistAssets(ctx context.Context, blobs blobstore.Store, recordID string, fields map[string]any) (map[string]any, []string, error) {
	out := make(map[string]any, len(fields))
	var written []string

	for name, value := range fields {
		assets, ok := value.([]Asset)
		if !ok {
			out[name] = value
			continue
		}

		stored := make([]Asset, len(assets))
		for i, a := range assets {
			if !hasPayload(a) && a.Key != "" {
				stored[i] = Asset{Key: a.Key, Size: a.Size}
				continue
			}
			data, err := LoadAsset(a)
			if err != nil {
				return nil, written, err
			}
			key := fmt.Sprintf("%s/%s/%s", recordID, name, uuid.NewString())
			n, err := blobs.Put(ctx, key, bytes.NewReader(data))
			if err != nil {
				return nil, written, fmt.Errorf("upload asset %d of %s: %w", i, name, err)
			}
			written = append(written, key)
			stored[i] = Asset{Key: key, Size: n}
		}
		out[name] = stored
	}
	return out, written, nil
}

// HydrateAssets loads the payload of every asset in fields in place.
func HydrateAssets(ctx context.Context, blobs blobstore.Store, fields map[string]any) error {
	for name, value := range fields {
		assets, ok := value.([]Asset)
		if !ok {
			continue
		}
		for i := range assets {
			data, err := blobs.Get(ctx, assets[i].Key)
			if err != nil {
				return fmt.Errorf("download asset %d of %s: %w", i, name, err)
			}
			assets[i].Data = data
			assets[i].Size = int64(len(data))
		}
	}
	return nil
}

// AssetKeys lists the blob keys referenced by fields.
func AssetKeys(fields map[string]any) []string {
	var keys []string
	for _, value := range fields {
		if assets, ok := value.([]Asset); ok {
			for _, a := range assets {
				if a.Key != "" {
					keys = append(keys, a.Key)
				}
			}
		}
	}
	return keys
}

// DeleteUnreferenced removes the keys of before that after no longer uses.
func DeleteUnreferenced(ctx context.Context, blobs blobstore.Store, before, after []string) error {
	keep := make(map[string]struct{}, len(after))
	for _, k := range after {
		keep[k] = struct{}{}
	}
	for _, k := range before {
		if _, ok := keep[k]; ok {
			continue
		}
		if err := blobs.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
