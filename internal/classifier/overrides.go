package classifier

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/talent-matcher/internal/domain"
)

// DecodeOverrides converts per-unit weight overrides as read by viper (nested map[string]interface{}
// with loosely typed numbers) into validated profiles.
func DecodeOverrides(raw map[string]any) (map[string]Profile, error) {
	out := make(map[string]Profile, len(raw))
	for name, value := range raw {
		var profile Profile
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			TagName:          "mapstructure",
			Result:           &profile,
		})
		if err != nil {
			return nil, fmt.Errorf("build decoder: %w", err)
		}
		if err := decoder.Decode(value); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode override for unit "+name, err)
		}
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("override for unit %s: %w", name, err)
		}
		out[name] = profile
	}
	return out, nil
}
