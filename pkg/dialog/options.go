package dialog

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeOptions decodes a loosely-typed option payload (begin arguments,
// pending prompt options, activity values) into a typed struct. Weak typing
// is enabled so values that crossed a JSON boundary ("3", 3.0) still land
// in int/string fields.
func DecodeOptions(in any, out any) error {
	if in == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build options decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	return nil
}
