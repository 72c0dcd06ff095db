package full

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/internal/store"
)

// encryptedPrefix marks a sealed settings value.
const encryptedPrefix = "enc:"

// SensitiveSettings are the auth settings keys stored encrypted.
var SensitiveSettings = []string{"oauth_client_secret", "api_key", "client_secret", "password", "token"}

// EncryptSettings returns a copy of settings with every sensitive string
// value sealed. Values already sealed are left as they are.
func (s *Service) EncryptSettings(settings map[string]any) (map[string]any, error) {
	return s.transformSettings(settings, func(sealer *store.Sealer, key, v string) (string, error) {
		if strings.HasPrefix(v, encryptedPrefix) {
			return v, nil
		}
		sealed, err := sealer.Seal([]byte(v))
		if err != nil {
			return "", err
		}
		return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
	})
}

// DecryptSettings returns a copy of settings with every sealed sensitive
// value opened. Plain values are left as they are.
func (s *Service) DecryptSettings(settings map[string]any) (map[string]any, error) {
	return s.transformSettings(settings, func(sealer *store.Sealer, key, v string) (string, error) {
		if !strings.HasPrefix(v, encryptedPrefix) {
			return v, nil
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, encryptedPrefix))
		if err != nil {
			return "", crossbase.WithContext(
				fmt.Errorf("%w: sealed value is not base64", crossbase.ErrInvalidData),
				map[string]interface{}{"setting": key},
			)
		}
		plain, err := sealer.Open(raw)
		if err != nil {
			return "", crossbase.WithContext(err, map[string]interface{}{"setting": key})
		}
		return string(plain), nil
	})
}

func (s *Service) transformSettings(settings map[string]any, fn func(*store.Sealer, string, string) (string, error)) (map[string]any, error) {
	if settings == nil {
		return nil, nil
	}
	sealer, err := s.sealerFor()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	for _, key := range SensitiveSettings {
		v, ok := out[key].(string)
		if !ok || v == "" {
			continue
		}
		converted, err := fn(sealer, key, v)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

// AuthOps returns the auth group bound to s.
func (s *Service) AuthOps() capability.AuthOps {
	return capability.AuthOps{
		EncryptSettings: s.EncryptSettings,
		DecryptSettings: s.DecryptSettings,
	}
}
